package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/membership-service/internal/domain"
)

// MemberRepository defines persistence access for member accounts.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	Update(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Member, error)
	GetByResetToken(ctx context.Context, token string) (*domain.Member, error)
	SetResetToken(ctx context.Context, memberID, token string, expiry time.Time) error
	UpdatePassword(ctx context.Context, memberID, passwordHash string) error
}

type memberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a Postgres-backed implementation.
func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepository{pool: pool}
}

const memberColumns = `id, first_name, last_name, email, phone, password_hash, role, status, verified, reset_token, reset_expiry, created_at, updated_at`

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	const query = `
        INSERT INTO members (first_name, last_name, email, phone, password_hash, role, status, verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		member.FirstName,
		member.LastName,
		member.Email,
		member.Phone,
		member.PasswordHash,
		member.Role,
		member.Status,
		member.Verified,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
}

func (r *memberRepository) Update(ctx context.Context, member *domain.Member) error {
	const query = `
        UPDATE members
        SET first_name=$1, last_name=$2, email=$3, phone=$4, password_hash=$5,
            role=$6, status=$7, verified=$8, reset_token=$9, reset_expiry=$10, updated_at=NOW()
        WHERE id=$11`

	cmd, err := r.pool.Exec(ctx, query,
		member.FirstName,
		member.LastName,
		member.Email,
		member.Phone,
		member.PasswordHash,
		member.Role,
		member.Status,
		member.Verified,
		member.ResetToken,
		member.ResetExpiry,
		member.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	return r.getBy(ctx, `SELECT `+memberColumns+` FROM members WHERE id=$1`, id)
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return r.getBy(ctx, `SELECT `+memberColumns+` FROM members WHERE email=$1`, email)
}

func (r *memberRepository) GetByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	return r.getBy(ctx, `SELECT `+memberColumns+` FROM members WHERE phone=$1`, phone)
}

func (r *memberRepository) GetByResetToken(ctx context.Context, token string) (*domain.Member, error) {
	const query = `SELECT ` + memberColumns + ` FROM members WHERE reset_token=$1 AND reset_expiry > NOW()`
	return r.getBy(ctx, query, token)
}

func (r *memberRepository) getBy(ctx context.Context, query string, arg any) (*domain.Member, error) {
	var member domain.Member
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&member.ID,
		&member.FirstName,
		&member.LastName,
		&member.Email,
		&member.Phone,
		&member.PasswordHash,
		&member.Role,
		&member.Status,
		&member.Verified,
		&member.ResetToken,
		&member.ResetExpiry,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}

// SetResetToken overwrites any outstanding reset token for the member.
func (r *memberRepository) SetResetToken(ctx context.Context, memberID, token string, expiry time.Time) error {
	const query = `
        UPDATE members SET reset_token=$1, reset_expiry=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, token, expiry, memberID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdatePassword stores a new hash and clears the single-use reset token.
func (r *memberRepository) UpdatePassword(ctx context.Context, memberID, passwordHash string) error {
	const query = `
        UPDATE members SET password_hash=$1, reset_token=NULL, reset_expiry=NULL, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, memberID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
