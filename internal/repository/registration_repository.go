package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/membership-service/internal/domain"
)

// RegistrationRepository persists multi-step intake progress. Records are
// never deleted; the tracking number is the resumption anchor.
type RegistrationRepository interface {
	Create(ctx context.Context, progress *domain.RegistrationProgress) error
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.RegistrationProgress, error)
	GetByMemberID(ctx context.Context, memberID string) (*domain.RegistrationProgress, error)
	// Merge writes only the non-nil step fields of the given record, leaving
	// previously stored values untouched.
	Merge(ctx context.Context, progress *domain.RegistrationProgress) error
}

type registrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository returns a Postgres-backed implementation.
func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepository{pool: pool}
}

const registrationColumns = `id, tracking_number, member_id, gender, date_of_birth, home_address, district, region, vote_name, salary, computer_number, created_at, updated_at`

func (r *registrationRepository) Create(ctx context.Context, progress *domain.RegistrationProgress) error {
	const query = `
        INSERT INTO registration_progress (tracking_number, member_id)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		progress.TrackingNumber,
		progress.MemberID,
	).Scan(&progress.ID, &progress.CreatedAt, &progress.UpdatedAt)
}

func (r *registrationRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.RegistrationProgress, error) {
	const query = `
        SELECT ` + registrationColumns + `
        FROM registration_progress WHERE UPPER(tracking_number)=UPPER($1)`
	return r.getBy(ctx, query, trackingNumber)
}

func (r *registrationRepository) GetByMemberID(ctx context.Context, memberID string) (*domain.RegistrationProgress, error) {
	const query = `
        SELECT ` + registrationColumns + `
        FROM registration_progress WHERE member_id=$1`
	return r.getBy(ctx, query, memberID)
}

func (r *registrationRepository) getBy(ctx context.Context, query string, arg any) (*domain.RegistrationProgress, error) {
	var progress domain.RegistrationProgress
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&progress.ID,
		&progress.TrackingNumber,
		&progress.MemberID,
		&progress.Gender,
		&progress.DateOfBirth,
		&progress.HomeAddress,
		&progress.District,
		&progress.Region,
		&progress.VoteName,
		&progress.Salary,
		&progress.ComputerNumber,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *registrationRepository) Merge(ctx context.Context, progress *domain.RegistrationProgress) error {
	const query = `
        UPDATE registration_progress
        SET gender=COALESCE($1, gender),
            date_of_birth=COALESCE($2, date_of_birth),
            home_address=COALESCE($3, home_address),
            district=COALESCE($4, district),
            region=COALESCE($5, region),
            vote_name=COALESCE($6, vote_name),
            salary=COALESCE($7, salary),
            computer_number=COALESCE($8, computer_number),
            updated_at=NOW()
        WHERE id=$9`

	cmd, err := r.pool.Exec(ctx, query,
		progress.Gender,
		progress.DateOfBirth,
		progress.HomeAddress,
		progress.District,
		progress.Region,
		progress.VoteName,
		progress.Salary,
		progress.ComputerNumber,
		progress.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
