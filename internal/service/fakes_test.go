package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/mailer"
	"github.com/spec-kit/membership-service/internal/ratelimit"
	"github.com/spec-kit/membership-service/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			AccessTokenSecret:       "test-access-secret",
			RefreshTokenSecret:      "test-refresh-secret",
			AccessTokenTTLMinutes:   30,
			RefreshTokenTTLDays:     30,
			PasswordResetTTLMinutes: 60,
			BcryptCost:              4,
		},
		SMTP: config.SMTPConfig{
			From:         "noreply@test.local",
			ResetLinkURL: "http://localhost:3000/reset-password",
		},
	}
}

func noLimiter() *ratelimit.Limiter {
	return ratelimit.New(nil, config.RateLimitConfig{})
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[string]*domain.Member
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[string]*domain.Member)}
}

func (r *fakeMemberRepo) Create(_ context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	clone := *member
	r.members[member.ID] = &clone
	return nil
}

func (r *fakeMemberRepo) Update(_ context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[member.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *member
	r.members[member.ID] = &clone
	return nil
}

func (r *fakeMemberRepo) GetByID(_ context.Context, id string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *member
	return &clone, nil
}

func (r *fakeMemberRepo) GetByEmail(_ context.Context, email string) (*domain.Member, error) {
	return r.findBy(func(m *domain.Member) bool { return m.Email == email })
}

func (r *fakeMemberRepo) GetByPhone(_ context.Context, phone string) (*domain.Member, error) {
	return r.findBy(func(m *domain.Member) bool { return m.Phone == phone })
}

func (r *fakeMemberRepo) GetByResetToken(_ context.Context, token string) (*domain.Member, error) {
	now := time.Now()
	return r.findBy(func(m *domain.Member) bool {
		return m.ResetToken != nil && *m.ResetToken == token &&
			m.ResetExpiry != nil && m.ResetExpiry.After(now)
	})
}

func (r *fakeMemberRepo) findBy(match func(*domain.Member) bool) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members {
		if match(member) {
			clone := *member
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMemberRepo) SetResetToken(_ context.Context, memberID, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[memberID]
	if !ok {
		return pgx.ErrNoRows
	}
	member.ResetToken = &token
	member.ResetExpiry = &expiry
	return nil
}

func (r *fakeMemberRepo) UpdatePassword(_ context.Context, memberID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[memberID]
	if !ok {
		return pgx.ErrNoRows
	}
	member.PasswordHash = &passwordHash
	member.ResetToken = nil
	member.ResetExpiry = nil
	return nil
}

// fakeRefreshTokenRepo mirrors the conditional-update semantics of the
// Postgres implementation, including single-winner rotation.
type fakeRefreshTokenRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{rows: make(map[string]*domain.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Token == token.Token {
			return repository.ErrDuplicateToken
		}
	}
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	token.CreatedAt = time.Now()
	token.UpdatedAt = token.CreatedAt
	clone := *token
	r.rows[token.ID] = &clone
	return nil
}

func (r *fakeRefreshTokenRepo) GetByToken(_ context.Context, tokenStr string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Token == tokenStr {
			clone := *row
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefreshTokenRepo) Rotate(_ context.Context, id, oldToken, newToken string, newExpiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.Token != oldToken || row.Revoked {
		return pgx.ErrNoRows
	}
	row.Token = newToken
	row.ExpiresAt = newExpiry
	row.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, tokenStr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Token == tokenStr {
			row.Revoked = true
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAllForMember(_ context.Context, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.MemberID == memberID {
			row.Revoked = true
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *fakeRefreshTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeRegistrationRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.RegistrationProgress
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{rows: make(map[string]*domain.RegistrationProgress)}
}

func (r *fakeRegistrationRepo) Create(_ context.Context, progress *domain.RegistrationProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	progress.CreatedAt = time.Now()
	progress.UpdatedAt = progress.CreatedAt
	clone := *progress
	r.rows[progress.ID] = &clone
	return nil
}

func (r *fakeRegistrationRepo) GetByTrackingNumber(_ context.Context, trackingNumber string) (*domain.RegistrationProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if strings.EqualFold(row.TrackingNumber, trackingNumber) {
			clone := *row
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRegistrationRepo) GetByMemberID(_ context.Context, memberID string) (*domain.RegistrationProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.MemberID == memberID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRegistrationRepo) Merge(_ context.Context, progress *domain.RegistrationProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[progress.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	mergeStr(&row.Gender, progress.Gender)
	if progress.DateOfBirth != nil {
		row.DateOfBirth = progress.DateOfBirth
	}
	mergeStr(&row.HomeAddress, progress.HomeAddress)
	mergeStr(&row.District, progress.District)
	mergeStr(&row.Region, progress.Region)
	mergeStr(&row.VoteName, progress.VoteName)
	mergeStr(&row.Salary, progress.Salary)
	mergeStr(&row.ComputerNumber, progress.ComputerNumber)
	row.UpdatedAt = time.Now()
	return nil
}

func mergeStr(dst **string, src *string) {
	if src != nil {
		*dst = src
	}
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []*mailer.Message
	failNext error
}

func (m *fakeMailer) Send(_ context.Context, msg *mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
