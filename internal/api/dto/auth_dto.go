package dto

import (
	"time"

	"github.com/spec-kit/membership-service/internal/domain"
)

// LoginRequest payload for login. LoginMethod is "email" or "phone".
type LoginRequest struct {
	Identifier  string `json:"identifier"`
	LoginMethod string `json:"loginMethod"`
	Password    string `json:"password"`
}

// RefreshRequest payload for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest payload for logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest payload for authenticated password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// MemberResponse is the sanitized identity view. It never carries the
// password hash, reset token or extended profile.
type MemberResponse struct {
	ID        string              `json:"id"`
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
	Email     string              `json:"email"`
	Phone     string              `json:"phone"`
	Role      domain.MemberRole   `json:"role"`
	Status    domain.MemberStatus `json:"status"`
	Verified  bool                `json:"verified"`
}

// NewMemberResponse maps a domain member to its public view.
func NewMemberResponse(member *domain.Member) MemberResponse {
	return MemberResponse{
		ID:        member.ID,
		FirstName: member.FirstName,
		LastName:  member.LastName,
		Email:     member.Email,
		Phone:     member.Phone,
		Role:      member.Role,
		Status:    member.Status,
		Verified:  member.Verified,
	}
}

// SessionResponse carries issued tokens and their expiry timestamps.
type SessionResponse struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
