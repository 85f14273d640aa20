package domain

import "time"

// MemberStatus represents lifecycle states for a member account.
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusInactive  MemberStatus = "INACTIVE"
	MemberStatusSuspended MemberStatus = "SUSPENDED"
	MemberStatusPending   MemberStatus = "PENDING"
)

// MemberRole enumerates portal roles carried in access tokens.
type MemberRole string

const (
	RoleAdministrator MemberRole = "ADMINISTRATOR"
	RoleMember        MemberRole = "MEMBER"
)

// Member is the domain model for a portal account. PasswordHash is nil for
// invite-only accounts that have not set a password yet.
type Member struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash *string
	Role         MemberRole
	Status       MemberStatus
	Verified     bool
	ResetToken   *string
	ResetExpiry  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the member can authenticate with a password.
func (m *Member) HasPassword() bool {
	return m.PasswordHash != nil && *m.PasswordHash != ""
}
