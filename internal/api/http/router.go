package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/api/http/handlers"
	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Registration   *handlers.RegistrationHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/verify", cfg.Auth.Verify)
	protected.Post("/password/change", cfg.Auth.ChangePassword)

	registerGroup := app.Group("/register")
	registerGroup.Post("", cfg.Registration.Start)
	registerGroup.Get("/:tracking", cfg.Registration.Resume)
	registerGroup.Patch("/:tracking/step2", cfg.Registration.StepTwo)
	registerGroup.Patch("/:tracking/step3", cfg.Registration.StepThree)
	registerGroup.Patch("/:tracking/step4", cfg.Registration.StepFour)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdministrator))
	admin.Get("/metrics", cfg.Health.Metrics)
}
