package domain

import "time"

// RefreshToken is a server-tracked long-lived credential. The token string is
// unique across all rows; rotation replaces the value in place so a stale
// token becomes unresolvable immediately.
type RefreshToken struct {
	ID        string
	Token     string
	MemberID  string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the stored expiry has passed.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
