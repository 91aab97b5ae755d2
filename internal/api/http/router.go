package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Projects       *handlers.ProjectsHandler
	Tickets        *handlers.TicketsHandler
	Policies       *handlers.PoliciesHandler
	Breaches       *handlers.BreachHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	api.Post("/projects", cfg.Projects.CreateProject)
	api.Get("/projects", cfg.Projects.ListProjects)
	api.Get("/projects/:id/policies", cfg.Policies.ListPolicies)
	api.Get("/projects/:id/breaches", cfg.Breaches.Partition)

	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Post("/tickets/:id/notes", cfg.Tickets.AddNote)
	api.Patch("/tickets/:id/status", cfg.Tickets.UpdateStatus)
	api.Get("/tickets/:id/breach", cfg.Breaches.Status)

	api.Post("/policies", cfg.Policies.CreatePolicy)
	api.Get("/breach-condition", cfg.Breaches.Condition)

	api.Get("/settings/excluded-authors", cfg.Policies.GetExcludedAuthors)
	api.Put("/settings/excluded-authors", cfg.Policies.UpdateExcludedAuthors)
}
