package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/membership-service/internal/domain"
	apperrors "github.com/spec-kit/membership-service/pkg/util"
)

type staticMemberRepo struct {
	members map[string]*domain.Member
}

func (r *staticMemberRepo) GetByID(_ context.Context, id string) (*domain.Member, error) {
	member, ok := r.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return member, nil
}

func (r *staticMemberRepo) Create(context.Context, *domain.Member) error { return nil }
func (r *staticMemberRepo) Update(context.Context, *domain.Member) error { return nil }
func (r *staticMemberRepo) GetByEmail(context.Context, string) (*domain.Member, error) {
	return nil, pgx.ErrNoRows
}
func (r *staticMemberRepo) GetByPhone(context.Context, string) (*domain.Member, error) {
	return nil, pgx.ErrNoRows
}
func (r *staticMemberRepo) GetByResetToken(context.Context, string) (*domain.Member, error) {
	return nil, pgx.ErrNoRows
}
func (r *staticMemberRepo) SetResetToken(context.Context, string, string, time.Time) error {
	return nil
}
func (r *staticMemberRepo) UpdatePassword(context.Context, string, string) error { return nil }

func newGuardedApp(t *testing.T, repo *staticMemberRepo, roles ...domain.MemberRole) (*fiber.App, *TokenManager) {
	t.Helper()
	tm := newTestManager()
	middleware := NewMiddleware(tm, repo)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})

	handlerChain := []fiber.Handler{middleware.Handle}
	if len(roles) > 0 {
		handlerChain = append(handlerChain, RequireRole(roles...))
	}
	handlerChain = append(handlerChain, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		require.True(t, ok)
		return c.JSON(fiber.Map{"id": principal.Member.ID})
	})
	app.Get("/guarded", handlerChain...)
	return app, tm
}

func requestWithToken(app *fiber.App, token string) (int, error) {
	req := httptest.NewRequest("GET", "/guarded", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func TestGuardMissingHeader(t *testing.T) {
	app, _ := newGuardedApp(t, &staticMemberRepo{members: map[string]*domain.Member{}})
	status, err := requestWithToken(app, "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGuardBadToken(t *testing.T) {
	app, _ := newGuardedApp(t, &staticMemberRepo{members: map[string]*domain.Member{}})
	status, err := requestWithToken(app, "garbage")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGuardMemberDeletedAfterIssue(t *testing.T) {
	repo := &staticMemberRepo{members: map[string]*domain.Member{}}
	app, tm := newGuardedApp(t, repo)

	token, _, err := tm.GenerateAccessToken(testMember())
	require.NoError(t, err)

	status, err := requestWithToken(app, token)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGuardStatusRecheckedFresh(t *testing.T) {
	member := testMember()
	repo := &staticMemberRepo{members: map[string]*domain.Member{member.ID: member}}
	app, tm := newGuardedApp(t, repo)

	token, _, err := tm.GenerateAccessToken(member)
	require.NoError(t, err)

	status, err := requestWithToken(app, token)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, status)

	// Suspension takes effect immediately, before the token expires.
	member.Status = domain.MemberStatusSuspended
	status, err = requestWithToken(app, token)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGuardRefreshTokenRejectedOnAccessRoutes(t *testing.T) {
	member := testMember()
	repo := &staticMemberRepo{members: map[string]*domain.Member{member.ID: member}}
	app, tm := newGuardedApp(t, repo)

	refreshToken, _, err := tm.GenerateRefreshToken(member)
	require.NoError(t, err)

	status, err := requestWithToken(app, refreshToken)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRequireRoleAllowList(t *testing.T) {
	member := testMember()
	repo := &staticMemberRepo{members: map[string]*domain.Member{member.ID: member}}
	app, tm := newGuardedApp(t, repo, domain.RoleAdministrator)

	token, _, err := tm.GenerateAccessToken(member)
	require.NoError(t, err)

	status, err := requestWithToken(app, token)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, status)

	member.Role = domain.RoleAdministrator
	adminToken, _, err := tm.GenerateAccessToken(member)
	require.NoError(t, err)
	status, err = requestWithToken(app, adminToken)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, status)
}
