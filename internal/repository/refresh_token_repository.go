package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/membership-service/internal/domain"
)

// ErrDuplicateToken is returned when persisting a refresh token whose value
// already exists. Token entropy makes this vanishingly unlikely, but the
// store still enforces uniqueness.
var ErrDuplicateToken = errors.New("refresh token already exists")

const pgUniqueViolation = "23505"

// RefreshTokenRepository is the single source of truth for whether a refresh
// token is still usable.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	// Rotate replaces the stored token value in place, conditioned on the old
	// value still being current and unrevoked. Returns pgx.ErrNoRows when the
	// row was already rotated or revoked, which closes the concurrent-refresh
	// race.
	Rotate(ctx context.Context, id, oldToken, newToken string, newExpiry time.Time) error
	Revoke(ctx context.Context, token string) error
	RevokeAllForMember(ctx context.Context, memberID string) error
	Delete(ctx context.Context, id string) error
}

type refreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository returns a Postgres-backed implementation.
func NewRefreshTokenRepository(pool *pgxpool.Pool) RefreshTokenRepository {
	return &refreshTokenRepository{pool: pool}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (token, member_id, expires_at)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		token.Token,
		token.MemberID,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (r *refreshTokenRepository) GetByToken(ctx context.Context, tokenStr string) (*domain.RefreshToken, error) {
	const query = `
        SELECT id, token, member_id, expires_at, revoked, created_at, updated_at
        FROM refresh_tokens WHERE token=$1`

	var token domain.RefreshToken
	if err := r.pool.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.Token,
		&token.MemberID,
		&token.ExpiresAt,
		&token.Revoked,
		&token.CreatedAt,
		&token.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, id, oldToken, newToken string, newExpiry time.Time) error {
	const query = `
        UPDATE refresh_tokens SET token=$1, expires_at=$2, updated_at=NOW()
        WHERE id=$3 AND token=$4 AND revoked=FALSE`

	cmd, err := r.pool.Exec(ctx, query, newToken, newExpiry, id, oldToken)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Revoke marks the token unusable. Rows are retained for audit. A missing
// row is not an error, which keeps logout idempotent.
func (r *refreshTokenRepository) Revoke(ctx context.Context, tokenStr string) error {
	const query = `UPDATE refresh_tokens SET revoked=TRUE, updated_at=NOW() WHERE token=$1`
	_, err := r.pool.Exec(ctx, query, tokenStr)
	return err
}

func (r *refreshTokenRepository) RevokeAllForMember(ctx context.Context, memberID string) error {
	const query = `UPDATE refresh_tokens SET revoked=TRUE, updated_at=NOW() WHERE member_id=$1 AND revoked=FALSE`
	_, err := r.pool.Exec(ctx, query, memberID)
	return err
}

// Delete removes a row outright. Used for cleanup-on-read of expired tokens.
func (r *refreshTokenRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM refresh_tokens WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
