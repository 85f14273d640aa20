package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/membership-service/internal/domain"
)

// ErrTokenSigning wraps signing failures. A token is never returned unsigned.
var ErrTokenSigning = errors.New("token signing failed")

// TokenManager issues and validates the two JWT classes. Access and refresh
// tokens are signed with distinct secrets so compromise of one secret cannot
// forge the other class.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Claims describes the JWT payload shared by both token classes.
type Claims struct {
	MemberID string            `json:"member_id"`
	Email    string            `json:"email"`
	Role     domain.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// AccessTTL returns the configured access-token lifetime.
func (tm *TokenManager) AccessTTL() time.Duration { return tm.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (tm *TokenManager) RefreshTTL() time.Duration { return tm.refreshTTL }

// GenerateAccessToken signs a short-lived access token for the member.
func (tm *TokenManager) GenerateAccessToken(member *domain.Member) (string, time.Time, error) {
	return tm.generate(member, tm.accessSecret, tm.accessTTL)
}

// GenerateRefreshToken signs a long-lived refresh token for the member.
func (tm *TokenManager) GenerateRefreshToken(member *domain.Member) (string, time.Time, error) {
	return tm.generate(member, tm.refreshSecret, tm.refreshTTL)
}

func (tm *TokenManager) generate(member *domain.Member, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if member == nil || member.ID == "" {
		return "", time.Time{}, fmt.Errorf("%w: missing subject", ErrTokenSigning)
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		MemberID: member.ID,
		Email:    member.Email,
		Role:     member.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrTokenSigning, err)
	}
	return tokenString, expiresAt, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (tm *TokenManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, tm.accessSecret)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (tm *TokenManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, tm.refreshSecret)
}

func (tm *TokenManager) parse(tokenStr string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.MemberID == "" {
		return nil, errors.New("token missing subject")
	}
	return claims, nil
}
