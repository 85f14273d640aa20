package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/api/dto"
	"github.com/spec-kit/membership-service/internal/service"
	apperrors "github.com/spec-kit/membership-service/pkg/util"
)

// RegistrationHandler exposes the multi-step intake endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs handler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Start handles POST /register: step 1, identity plus minimal profile.
func (h *RegistrationHandler) Start(c *fiber.Ctx) error {
	var req dto.RegistrationStartRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	member, progress, err := h.registrations.Start(c.Context(), service.RegistrationStart{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "registration started",
		"data": fiber.Map{
			"trackingNumber": progress.TrackingNumber,
			"nextStep":       progress.NextStep(),
			"user":           dto.NewMemberResponse(member),
		},
	})
}

// Resume handles GET /register/:tracking.
func (h *RegistrationHandler) Resume(c *fiber.Ctx) error {
	result, err := h.registrations.Resume(c.Context(), c.Params("tracking"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "registration progress",
		"data":    dto.NewRegistrationProgressResponse(result.Progress, result.CompletedSteps, result.NextStep),
	})
}

// StepTwo handles PATCH /register/:tracking/step2.
func (h *RegistrationHandler) StepTwo(c *fiber.Ctx) error {
	var req dto.StepTwoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.registrations.SaveStepTwo(c.Context(), c.Params("tracking"), service.StepTwoInput{
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
		HomeAddress: req.HomeAddress,
		District:    req.District,
	})
	if err != nil {
		return err
	}
	return h.progressResponse(c, result)
}

// StepThree handles PATCH /register/:tracking/step3.
func (h *RegistrationHandler) StepThree(c *fiber.Ctx) error {
	var req dto.StepThreeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.registrations.SaveStepThree(c.Context(), c.Params("tracking"), service.StepThreeInput{
		Region:   req.Region,
		VoteName: req.VoteName,
	})
	if err != nil {
		return err
	}
	return h.progressResponse(c, result)
}

// StepFour handles PATCH /register/:tracking/step4.
func (h *RegistrationHandler) StepFour(c *fiber.Ctx) error {
	var req dto.StepFourRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.registrations.SaveStepFour(c.Context(), c.Params("tracking"), service.StepFourInput{
		Salary:         req.Salary,
		ComputerNumber: req.ComputerNumber,
	})
	if err != nil {
		return err
	}
	return h.progressResponse(c, result)
}

func (h *RegistrationHandler) progressResponse(c *fiber.Ctx, result *service.ResumeResult) error {
	return c.JSON(fiber.Map{
		"message": "registration progress saved",
		"data":    dto.NewRegistrationProgressResponse(result.Progress, result.CompletedSteps, result.NextStep),
	})
}
