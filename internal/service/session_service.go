package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/events"
	"github.com/spec-kit/membership-service/internal/mailer"
	"github.com/spec-kit/membership-service/internal/ratelimit"
	"github.com/spec-kit/membership-service/internal/repository"
	apperrors "github.com/spec-kit/membership-service/pkg/util"
)

// LoginMethod selects which unique field resolves the identifier.
type LoginMethod string

const (
	LoginByEmail LoginMethod = "email"
	LoginByPhone LoginMethod = "phone"
)

// ForgotPasswordMessage is returned for every forgot-password request,
// existing account or not, byte for byte.
const ForgotPasswordMessage = "If that email address is registered, a password reset link has been sent."

// Session carries the tokens issued by a successful login or refresh,
// with expiry timestamps for UI display.
type Session struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// SessionService orchestrates login, refresh, logout and password reset.
type SessionService struct {
	members  repository.MemberRepository
	tokens   repository.RefreshTokenRepository
	tokenMgr *auth.TokenManager
	mail     mailer.Mailer
	limiter  *ratelimit.Limiter
	events   events.Dispatcher
	logger   *zap.Logger

	bcryptCost   int
	resetTTL     time.Duration
	resetLinkURL string
}

// SessionDependencies encapsulates collaborator requirements.
type SessionDependencies struct {
	MemberRepo       repository.MemberRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Mailer           mailer.Mailer
	Limiter          *ratelimit.Limiter
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(cfg *config.Config, deps SessionDependencies) *SessionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		members:  deps.MemberRepo,
		tokens:   deps.RefreshTokenRepo,
		tokenMgr: auth.NewTokenManager(cfg.Auth.AccessTokenSecret, cfg.Auth.RefreshTokenSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL()),
		mail:     deps.Mailer,
		limiter:  deps.Limiter,
		events:   deps.Dispatcher,
		logger:   logger,

		bcryptCost:   cfg.Auth.BcryptCost,
		resetTTL:     cfg.Auth.PasswordResetTTL(),
		resetLinkURL: cfg.SMTP.ResetLinkURL,
	}
}

// Login authenticates a member by email or phone. Missing account and wrong
// password both fail with INVALID_CREDENTIALS. Exactly one refresh-token row
// is created per successful login, none on failure.
func (s *SessionService) Login(ctx context.Context, identifier string, method LoginMethod, password string) (*domain.Member, *Session, error) {
	if identifier == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("identifier and password required", nil)
	}

	if err := s.checkLoginBudget(ctx, identifier); err != nil {
		return nil, nil, err
	}

	var member *domain.Member
	var err error
	switch method {
	case LoginByEmail:
		member, err = s.members.GetByEmail(ctx, identifier)
	case LoginByPhone:
		member, err = s.members.GetByPhone(ctx, identifier)
	default:
		return nil, nil, apperrors.NewValidationError("loginMethod must be email or phone", nil)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, s.failLogin(ctx, identifier)
		}
		return nil, nil, apperrors.MapError(err)
	}

	if !member.HasPassword() {
		return nil, nil, apperrors.NewAuthError(apperrors.CodeNoPassword, "no password set for this account")
	}
	if err := auth.ComparePassword(*member.PasswordHash, password); err != nil {
		return nil, nil, s.failLogin(ctx, identifier)
	}
	if member.Status != domain.MemberStatusActive {
		return nil, nil, apperrors.NewAuthErrorWithDetails(apperrors.CodeAccountInactive, "account is not active",
			map[string]any{"status": member.Status})
	}

	session, err := s.issueSession(ctx, member)
	if err != nil {
		return nil, nil, err
	}

	if err := s.limiter.ResetLogin(ctx, identifier); err != nil {
		s.logger.Warn("reset login counter", zap.Error(err))
	}
	s.publish(ctx, events.EventMemberLoggedIn, member.ID, nil)

	return member, session, nil
}

func (s *SessionService) issueSession(ctx context.Context, member *domain.Member) (*Session, error) {
	accessToken, accessExp, err := s.tokenMgr.GenerateAccessToken(member)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	refreshToken, refreshExp, err := s.tokenMgr.GenerateRefreshToken(member)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	row := &domain.RefreshToken{
		Token:     refreshToken,
		MemberID:  member.ID,
		ExpiresAt: refreshExp,
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		if errors.Is(err, repository.ErrDuplicateToken) {
			return nil, apperrors.NewConflict("refresh token collision", nil)
		}
		return nil, apperrors.MapError(err)
	}

	return &Session{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a still-valid refresh token for a new access/refresh
// pair, rotating the stored row in place. The conditional rotation means two
// concurrent calls with the same token produce at most one winner.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperrors.NewValidationError("refreshToken required", nil)
	}

	claims, err := s.tokenMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.NewAuthError(apperrors.CodeInvalidRefreshToken, "invalid refresh token")
	}

	if err := s.checkRefreshBudget(ctx, claims.MemberID); err != nil {
		return nil, err
	}

	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAuthError(apperrors.CodeInvalidRefreshToken, "invalid refresh token")
		}
		return nil, apperrors.MapError(err)
	}
	if stored.Revoked {
		return nil, apperrors.NewAuthError(apperrors.CodeInvalidRefreshToken, "invalid refresh token")
	}
	if stored.Expired(time.Now()) {
		// Cleanup on read; distinct code so callers know to log in again.
		if err := s.tokens.Delete(ctx, stored.ID); err != nil {
			s.logger.Warn("delete expired refresh token", zap.Error(err))
		}
		return nil, apperrors.NewAuthError(apperrors.CodeRefreshTokenExpired, "refresh token expired")
	}

	member, err := s.members.GetByID(ctx, stored.MemberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAuthError(apperrors.CodeInvalidRefreshToken, "invalid refresh token")
		}
		return nil, apperrors.MapError(err)
	}
	if member.Status != domain.MemberStatusActive {
		return nil, apperrors.NewAuthErrorWithDetails(apperrors.CodeAccountInactive, "account is not active",
			map[string]any{"status": member.Status})
	}

	accessToken, accessExp, err := s.tokenMgr.GenerateAccessToken(member)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	newRefresh, refreshExp, err := s.tokenMgr.GenerateRefreshToken(member)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.tokens.Rotate(ctx, stored.ID, refreshToken, newRefresh, refreshExp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Another refresh rotated or a reset revoked the row first.
			return nil, apperrors.NewAuthError(apperrors.CodeInvalidRefreshToken, "invalid refresh token")
		}
		return nil, apperrors.MapError(err)
	}

	return &Session{
		AccessToken:      accessToken,
		RefreshToken:     newRefresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Logout revokes the refresh token. It succeeds even when the token is
// unknown or already revoked; the caller's session is gone either way.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		s.logger.Warn("revoke refresh token", zap.Error(err))
	}
	return nil
}

// ForgotPassword issues a single-use reset token and emails a reset link.
// The response message never reveals whether the email exists. A prior
// unconsumed token is overwritten. Mailer failures are surfaced.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperrors.NewValidationError("email required", nil)
	}

	member, err := s.members.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ForgotPasswordMessage, nil
		}
		return "", apperrors.MapError(err)
	}

	token := uuid.NewString()
	expiry := time.Now().Add(s.resetTTL)
	if err := s.members.SetResetToken(ctx, member.ID, token, expiry); err != nil {
		return "", apperrors.MapError(err)
	}

	html, err := mailer.RenderResetEmail(member.FirstName, s.resetLinkURL, token, s.resetTTL)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if err := s.mail.Send(ctx, &mailer.Message{
		To:      member.Email,
		Subject: "Reset your membership portal password",
		HTML:    html,
	}); err != nil {
		return "", apperrors.NewDependencyFailure("could not send reset email", err)
	}

	s.publish(ctx, events.EventPasswordResetRequested, member.ID, nil)
	return ForgotPasswordMessage, nil
}

// ResetPassword consumes a reset token, stores the new password hash and
// revokes every outstanding refresh token for the member, forcing re-login
// everywhere.
func (s *SessionService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperrors.NewValidationError("token and newPassword required", nil)
	}

	member, err := s.members.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewAuthError(apperrors.CodeInvalidResetToken, "invalid or expired reset token")
		}
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.members.UpdatePassword(ctx, member.ID, hash); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tokens.RevokeAllForMember(ctx, member.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPasswordChanged, member.ID, nil)
	return nil
}

// ChangePassword verifies the current password before storing a new hash.
// Like ResetPassword it revokes every outstanding refresh token.
func (s *SessionService) ChangePassword(ctx context.Context, memberID, currentPassword, newPassword string) error {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewAuthError(apperrors.CodeUserNotFound, "account no longer exists")
		}
		return apperrors.MapError(err)
	}
	if !member.HasPassword() {
		return apperrors.NewAuthError(apperrors.CodeNoPassword, "no password set for this account")
	}
	if err := auth.ComparePassword(*member.PasswordHash, currentPassword); err != nil {
		return apperrors.NewAuthError(apperrors.CodeInvalidCredentials, "invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.members.UpdatePassword(ctx, member.ID, hash); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tokens.RevokeAllForMember(ctx, member.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPasswordChanged, member.ID, nil)
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *SessionService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *SessionService) checkLoginBudget(ctx context.Context, identifier string) error {
	err := s.limiter.CheckLogin(ctx, identifier)
	if err == nil {
		return nil
	}
	if errors.Is(err, ratelimit.ErrLimited) {
		return apperrors.NewRateLimited("too many login attempts, try again later")
	}
	// Fail open when redis is unreachable; throttling is defense in depth.
	s.logger.Warn("login rate limiter unavailable", zap.Error(err))
	return nil
}

func (s *SessionService) checkRefreshBudget(ctx context.Context, memberID string) error {
	err := s.limiter.CheckRefresh(ctx, memberID)
	if err == nil {
		return nil
	}
	if errors.Is(err, ratelimit.ErrLimited) {
		return apperrors.NewRateLimited("too many refresh attempts, try again later")
	}
	s.logger.Warn("refresh rate limiter unavailable", zap.Error(err))
	return nil
}

func (s *SessionService) failLogin(ctx context.Context, identifier string) error {
	if err := s.limiter.RecordLoginFailure(ctx, identifier); err != nil {
		if errors.Is(err, ratelimit.ErrLimited) {
			return apperrors.NewRateLimited("too many login attempts, try again later")
		}
		s.logger.Warn("record login failure", zap.Error(err))
	}
	return apperrors.NewAuthError(apperrors.CodeInvalidCredentials, "invalid credentials")
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, memberID string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		MemberID:  memberID,
		Timestamp: time.Now(),
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
