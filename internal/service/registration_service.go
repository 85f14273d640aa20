package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/events"
	"github.com/spec-kit/membership-service/internal/repository"
	apperrors "github.com/spec-kit/membership-service/pkg/util"
)

// RegistrationStart is the step-1 input: identity plus minimal profile.
type RegistrationStart struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

// StepTwoInput carries personal details. Nil fields are left unchanged.
type StepTwoInput struct {
	Gender      *string
	DateOfBirth *time.Time
	HomeAddress *string
	District    *string
}

// StepThreeInput carries union placement identifiers.
type StepThreeInput struct {
	Region   *string
	VoteName *string
}

// StepFourInput carries employment details.
type StepFourInput struct {
	Salary         *string
	ComputerNumber *string
}

// ResumeResult describes where an applicant left off. Completion is derived
// from which fields are populated, not from a stored counter.
type ResumeResult struct {
	Progress       *domain.RegistrationProgress
	CompletedSteps []int
	NextStep       int
}

// RegistrationService maintains multi-step intake records addressable by a
// durable tracking number, independent of session state.
type RegistrationService struct {
	registrations repository.RegistrationRepository
	members       repository.MemberRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	bcryptCost    int
}

// NewRegistrationService builds the service.
func NewRegistrationService(cfg *config.Config, registrations repository.RegistrationRepository, members repository.MemberRepository, dispatcher events.Dispatcher, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		registrations: registrations,
		members:       members,
		dispatcher:    dispatcher,
		logger:        logger,
		bcryptCost:    cfg.Auth.BcryptCost,
	}
}

// Start creates the member identity and the progress record, and hands the
// applicant their tracking number. The tracking number is the only credential
// needed to resume later.
func (s *RegistrationService) Start(ctx context.Context, input RegistrationStart) (*domain.Member, *domain.RegistrationProgress, error) {
	if input.Email == "" || input.Phone == "" || input.FirstName == "" {
		return nil, nil, apperrors.NewValidationError("firstName, email and phone required", nil)
	}

	if _, err := s.members.GetByEmail(ctx, input.Email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", map[string]any{"field": "email"})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}
	if _, err := s.members.GetByPhone(ctx, input.Phone); err == nil {
		return nil, nil, apperrors.NewConflict("phone already registered", map[string]any{"field": "phone"})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}

	member := &domain.Member{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      domain.RoleMember,
		Status:    domain.MemberStatusPending,
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, nil, apperrors.MapError(err)
		}
		member.PasswordHash = &hash
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	progress := &domain.RegistrationProgress{
		TrackingNumber: newTrackingNumber(),
		MemberID:       member.ID,
	}
	if err := s.registrations.Create(ctx, progress); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventRegistrationStarted, member.ID, &events.RegistrationStepPayload{
		TrackingNumber: progress.TrackingNumber,
		Step:           1,
	})
	return member, progress, nil
}

// Resume loads the progress record for a tracking number and derives the
// completed steps and the next one. Lookup is case-insensitive.
func (s *RegistrationService) Resume(ctx context.Context, trackingNumber string) (*ResumeResult, error) {
	progress, err := s.load(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	return &ResumeResult{
		Progress:       progress,
		CompletedSteps: progress.CompletedSteps(),
		NextStep:       progress.NextStep(),
	}, nil
}

// SaveStepTwo merges personal details into the progress record.
func (s *RegistrationService) SaveStepTwo(ctx context.Context, trackingNumber string, input StepTwoInput) (*ResumeResult, error) {
	return s.saveStep(ctx, trackingNumber, 2, func(p *domain.RegistrationProgress) {
		p.Gender = input.Gender
		p.DateOfBirth = input.DateOfBirth
		p.HomeAddress = input.HomeAddress
		p.District = input.District
	})
}

// SaveStepThree merges union placement identifiers.
func (s *RegistrationService) SaveStepThree(ctx context.Context, trackingNumber string, input StepThreeInput) (*ResumeResult, error) {
	return s.saveStep(ctx, trackingNumber, 3, func(p *domain.RegistrationProgress) {
		p.Region = input.Region
		p.VoteName = input.VoteName
	})
}

// SaveStepFour merges employment details.
func (s *RegistrationService) SaveStepFour(ctx context.Context, trackingNumber string, input StepFourInput) (*ResumeResult, error) {
	return s.saveStep(ctx, trackingNumber, 4, func(p *domain.RegistrationProgress) {
		p.Salary = input.Salary
		p.ComputerNumber = input.ComputerNumber
	})
}

func (s *RegistrationService) saveStep(ctx context.Context, trackingNumber string, step int, apply func(*domain.RegistrationProgress)) (*ResumeResult, error) {
	progress, err := s.load(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}

	// Writing step N requires every earlier step to be complete; resumption
	// detection stays tolerant of gaps, writing does not.
	for earlier := 1; earlier < step; earlier++ {
		if !progress.StepComplete(earlier) {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("step %d must be completed before step %d", earlier, step), nil)
		}
	}

	update := &domain.RegistrationProgress{ID: progress.ID}
	apply(update)
	if err := s.registrations.Merge(ctx, update); err != nil {
		return nil, apperrors.MapError(err)
	}

	refreshed, err := s.registrations.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	eventType := events.EventRegistrationStepSaved
	if refreshed.NextStep() > domain.RegistrationStepCount {
		eventType = events.EventRegistrationCompleted
	}
	s.publish(ctx, eventType, refreshed.MemberID, &events.RegistrationStepPayload{
		TrackingNumber: refreshed.TrackingNumber,
		Step:           step,
	})

	return &ResumeResult{
		Progress:       refreshed,
		CompletedSteps: refreshed.CompletedSteps(),
		NextStep:       refreshed.NextStep(),
	}, nil
}

func (s *RegistrationService) load(ctx context.Context, trackingNumber string) (*domain.RegistrationProgress, error) {
	if trackingNumber == "" {
		return nil, apperrors.NewValidationError("trackingNumber required", nil)
	}
	progress, err := s.registrations.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("registration", map[string]any{"trackingNumber": trackingNumber})
		}
		return nil, apperrors.MapError(err)
	}
	return progress, nil
}

func (s *RegistrationService) publish(ctx context.Context, eventType events.EventType, memberID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		MemberID:  memberID,
		Timestamp: time.Now(),
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

// newTrackingNumber derives a short shareable code from UUID entropy, stored
// uppercase.
func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "REG-" + strings.ToUpper(raw[:10])
}
