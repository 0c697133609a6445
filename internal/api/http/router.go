package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Sweep          *handlers.SweepHandler
	MetricsHandler fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		app.Get("/metrics", cfg.MetricsHandler)
	}

	ops := app.Group("/ops", cfg.AuthMiddleware.Handle)
	ops.Post("/sweep", cfg.Sweep.Trigger)
	ops.Get("/violations", cfg.Sweep.Violations)
	ops.Get("/entities/:id", cfg.Sweep.Entity)
	ops.Get("/reports/latest", cfg.Sweep.LatestReport)
}
