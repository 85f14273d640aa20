package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/api/dto"
	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/service"
	apperrors "github.com/spec-kit/membership-service/pkg/util"
)

// AuthHandler exposes the session lifecycle endpoints.
type AuthHandler struct {
	sessions *service.SessionService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Identifier == "" || req.Password == "" {
		return apperrors.NewValidationError("identifier and password required", nil)
	}
	method := service.LoginMethod(req.LoginMethod)
	if method == "" {
		method = service.LoginByEmail
	}

	member, session, err := h.sessions.Login(c.Context(), req.Identifier, method, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "login successful",
		"data": fiber.Map{
			"accessToken":      session.AccessToken,
			"refreshToken":     session.RefreshToken,
			"accessExpiresAt":  session.AccessExpiresAt,
			"refreshExpiresAt": session.RefreshExpiresAt,
			"user":             dto.NewMemberResponse(member),
		},
	})
}

// Refresh handles POST /auth/refresh. No identity payload is returned; the
// caller already holds it.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RefreshToken == "" {
		return apperrors.NewValidationError("refreshToken required", nil)
	}

	session, err := h.sessions.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "token refreshed",
		"data": fiber.Map{
			"accessToken":      session.AccessToken,
			"refreshToken":     session.RefreshToken,
			"accessExpiresAt":  session.AccessExpiresAt,
			"refreshExpiresAt": session.RefreshExpiresAt,
		},
	})
}

// Logout handles POST /auth/logout. Idempotent: an unknown token still
// yields success.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.sessions.Logout(c.Context(), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	message, err := h.sessions.ForgotPassword(c.Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": message})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and newPassword required", nil)
	}

	if err := h.sessions.ResetPassword(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "password updated, please log in again"})
}

// ChangePassword handles POST /auth/password/change (guarded).
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthError(apperrors.CodeNoToken, "authentication required")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("currentPassword and newPassword required", nil)
	}

	if err := h.sessions.ChangePassword(c.Context(), principal.Member.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "password updated, please log in again"})
}

// Verify handles GET /auth/verify (guarded). It reflects the identity the
// request guard resolved.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthError(apperrors.CodeNoToken, "authentication required")
	}
	return c.JSON(fiber.Map{
		"message": "token valid",
		"data":    fiber.Map{"user": dto.NewMemberResponse(principal.Member)},
	})
}
