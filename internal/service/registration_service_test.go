package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/membership-service/internal/domain"
	apperrors "github.com/spec-kit/membership-service/pkg/util"
)

func strPtr(s string) *string { return &s }

func newRegistrationFixture(t *testing.T) (*RegistrationService, *fakeMemberRepo, *fakeRegistrationRepo) {
	t.Helper()
	members := newFakeMemberRepo()
	registrations := newFakeRegistrationRepo()
	svc := NewRegistrationService(testConfig(), registrations, members, nil, nil)
	return svc, members, registrations
}

func startRegistration(t *testing.T, svc *RegistrationService) *domain.RegistrationProgress {
	t.Helper()
	_, progress, err := svc.Start(context.Background(), RegistrationStart{
		FirstName: "Agnes",
		LastName:  "Phiri",
		Email:     "agnes@b.com",
		Phone:     "0977000001",
		Password:  "initial-password",
	})
	require.NoError(t, err)
	return progress
}

func TestStartCreatesPendingMemberAndTracking(t *testing.T) {
	svc, members, _ := newRegistrationFixture(t)
	progress := startRegistration(t, svc)

	assert.True(t, strings.HasPrefix(progress.TrackingNumber, "REG-"))
	assert.Equal(t, progress.TrackingNumber, strings.ToUpper(progress.TrackingNumber))

	member, err := members.GetByEmail(context.Background(), "agnes@b.com")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberStatusPending, member.Status)
	assert.Equal(t, domain.RoleMember, member.Role)
	assert.True(t, member.HasPassword())
}

func TestStartDuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)
	startRegistration(t, svc)

	_, _, err := svc.Start(context.Background(), RegistrationStart{
		FirstName: "Other",
		Email:     "agnes@b.com",
		Phone:     "0977999999",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestResumeIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)
	progress := startRegistration(t, svc)

	result, err := svc.Resume(context.Background(), strings.ToLower(progress.TrackingNumber))
	require.NoError(t, err)
	assert.Equal(t, progress.TrackingNumber, result.Progress.TrackingNumber)
	assert.Equal(t, []int{1}, result.CompletedSteps)
	assert.Equal(t, 2, result.NextStep)
}

func TestResumeUnknownTracking(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)
	_, err := svc.Resume(context.Background(), "REG-DOESNOTEXIST")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestStepProgressionAndPartialMerge(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)
	progress := startRegistration(t, svc)
	tracking := progress.TrackingNumber
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)

	// Partial step-2 write: record advances only once all four fields exist.
	result, err := svc.SaveStepTwo(context.Background(), tracking, StepTwoInput{
		Gender:      strPtr("female"),
		DateOfBirth: &dob,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, result.CompletedSteps)
	assert.Equal(t, 2, result.NextStep)

	result, err = svc.SaveStepTwo(context.Background(), tracking, StepTwoInput{
		HomeAddress: strPtr("12 Kabulonga Rd"),
		District:    strPtr("Lusaka"),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, result.CompletedSteps)
	assert.Equal(t, 3, result.NextStep)
	// Earlier fields were merged, not overwritten.
	assert.Equal(t, "female", *result.Progress.Gender)
	require.NotNil(t, result.Progress.DateOfBirth)
	assert.True(t, dob.Equal(*result.Progress.DateOfBirth))

	result, err = svc.SaveStepThree(context.Background(), tracking, StepThreeInput{
		Region:   strPtr("Copperbelt"),
		VoteName: strPtr("Ndola Central"),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, result.CompletedSteps)
	assert.Equal(t, 4, result.NextStep)

	// Salary alone completes step 4.
	result, err = svc.SaveStepFour(context.Background(), tracking, StepFourInput{
		Salary: strPtr("K8500"),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, result.CompletedSteps)
	assert.Equal(t, 5, result.NextStep)
}

func TestStepSkippingRejected(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)
	progress := startRegistration(t, svc)

	_, err := svc.SaveStepThree(context.Background(), progress.TrackingNumber, StepThreeInput{
		Region:   strPtr("Copperbelt"),
		VoteName: strPtr("Ndola Central"),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestNextStepDerivedFromFieldPresence(t *testing.T) {
	// A record with steps 1 and 2 populated resumes at step 3.
	dob := time.Date(1985, 1, 2, 0, 0, 0, 0, time.UTC)
	progress := &domain.RegistrationProgress{
		TrackingNumber: "REG-ABCDEF1234",
		Gender:         strPtr("male"),
		DateOfBirth:    &dob,
		HomeAddress:    strPtr("3 Chilimbulu Rd"),
		District:       strPtr("Kitwe"),
	}

	assert.Equal(t, []int{1, 2}, progress.CompletedSteps())
	assert.Equal(t, 3, progress.NextStep())
}

func TestCompletionToleratesGaps(t *testing.T) {
	// Step 4 fields present without step 3: detection reports the gap.
	progress := &domain.RegistrationProgress{
		TrackingNumber: "REG-ABCDEF1234",
		ComputerNumber: strPtr("CN-991"),
	}

	assert.Equal(t, []int{1, 4}, progress.CompletedSteps())
	assert.Equal(t, 2, progress.NextStep())
}
