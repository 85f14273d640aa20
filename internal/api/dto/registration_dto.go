package dto

import (
	"time"

	"github.com/spec-kit/membership-service/internal/domain"
)

// RegistrationStartRequest is the step-1 payload.
type RegistrationStartRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// StepTwoRequest carries personal details; omitted fields stay unchanged.
type StepTwoRequest struct {
	Gender      *string    `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	HomeAddress *string    `json:"homeAddress"`
	District    *string    `json:"district"`
}

// StepThreeRequest carries union placement identifiers.
type StepThreeRequest struct {
	Region   *string `json:"region"`
	VoteName *string `json:"voteName"`
}

// StepFourRequest carries employment details.
type StepFourRequest struct {
	Salary         *string `json:"salary"`
	ComputerNumber *string `json:"computerNumber"`
}

// RegistrationProgressResponse reports resumable progress.
type RegistrationProgressResponse struct {
	TrackingNumber string     `json:"trackingNumber"`
	CompletedSteps []int      `json:"completedSteps"`
	NextStep       int        `json:"nextStep"`
	Gender         *string    `json:"gender,omitempty"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	HomeAddress    *string    `json:"homeAddress,omitempty"`
	District       *string    `json:"district,omitempty"`
	Region         *string    `json:"region,omitempty"`
	VoteName       *string    `json:"voteName,omitempty"`
	Salary         *string    `json:"salary,omitempty"`
	ComputerNumber *string    `json:"computerNumber,omitempty"`
}

// NewRegistrationProgressResponse maps progress with derived step state.
func NewRegistrationProgressResponse(progress *domain.RegistrationProgress, completed []int, next int) RegistrationProgressResponse {
	return RegistrationProgressResponse{
		TrackingNumber: progress.TrackingNumber,
		CompletedSteps: completed,
		NextStep:       next,
		Gender:         progress.Gender,
		DateOfBirth:    progress.DateOfBirth,
		HomeAddress:    progress.HomeAddress,
		District:       progress.District,
		Region:         progress.Region,
		VoteName:       progress.VoteName,
		Salary:         progress.Salary,
		ComputerNumber: progress.ComputerNumber,
	}
}
