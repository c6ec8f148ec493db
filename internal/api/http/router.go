package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roadguard/internal/api/http/handlers"
	"github.com/spec-kit/roadguard/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Admin    *handlers.AdminHandler
	Problems *handlers.ProblemsHandler
	Analysis *handlers.AnalysisHandler
	Gate     *auth.Gate
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authenticated := cfg.Gate.Authenticate()

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", authenticated, cfg.Auth.Me)

	admin := app.Group("/admin", authenticated, cfg.Gate.Require(auth.AdminOnly))
	admin.Put("/users/role", cfg.Admin.UpdateRole)
	admin.Get("/users", cfg.Admin.ListUsers)

	problems := app.Group("/problems")
	problems.Get("/", cfg.Problems.ListProblems)
	problems.Post("/", authenticated, cfg.Problems.CreateProblem)
	problems.Get("/:id", cfg.Problems.GetProblem)
	problems.Put("/:id/status", authenticated, cfg.Gate.Require(auth.AdminOrContractor), cfg.Problems.UpdateStatus)
	problems.Delete("/:id", authenticated, cfg.Gate.Require(auth.AdminOnly), cfg.Problems.DeleteProblem)

	app.Post("/api/analyze-image", authenticated, cfg.Analysis.AnalyzeImage)
}
