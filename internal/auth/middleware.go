package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/repository"
	apperrors "github.com/spec-kit/membership-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller attached to the request context.
// Role and status come from a fresh store load, not from the token claims.
type Principal struct {
	Member *domain.Member
	Claims *Claims
}

// Middleware validates bearer tokens and loads the member behind them.
type Middleware struct {
	tokens  *TokenManager
	members repository.MemberRepository
}

// NewMiddleware constructs the request guard.
func NewMiddleware(tokens *TokenManager, members repository.MemberRepository) *Middleware {
	return &Middleware{tokens: tokens, members: members}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewAuthError(apperrors.CodeNoToken, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return apperrors.NewAuthError(apperrors.CodeNoToken, "invalid authorization header")
	}

	// Verification library errors are not distinguished from expiry.
	claims, err := m.tokens.ParseAccessToken(parts[1])
	if err != nil {
		return apperrors.NewAuthError(apperrors.CodeInvalidToken, "invalid or expired token")
	}

	member, err := m.members.GetByID(c.Context(), claims.MemberID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewAuthError(apperrors.CodeUserNotFound, "account no longer exists")
		}
		return apperrors.MapError(err)
	}
	if member.Status != domain.MemberStatusActive {
		return apperrors.NewAuthErrorWithDetails(apperrors.CodeAccountInactive, "account is not active",
			map[string]any{"status": member.Status})
	}

	c.Locals(principalKey, &Principal{Member: member, Claims: claims})
	return c.Next()
}

// RequireRole ensures the attached principal carries one of the allowed roles.
func RequireRole(allowed ...domain.MemberRole) fiber.Handler {
	allowedSet := make(map[domain.MemberRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewAuthError(apperrors.CodeNoToken, "authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Member.Role]; !exists {
			return apperrors.NewForbidden(apperrors.CodeInsufficientPermissions, "insufficient permissions")
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated member.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
