package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jira-mirror/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Sync    *handlers.SyncHandler
	Metrics *handlers.MetricsHandler
	Rules   *handlers.RulesHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/tickets", cfg.Tickets.ListTickets)
	app.Get("/tickets/:key", cfg.Tickets.GetTicket)

	app.Post("/sync", cfg.Sync.StartSync)
	app.Delete("/sync", cfg.Sync.CancelSync)
	app.Get("/sync/status", cfg.Sync.Status)

	app.Get("/metrics/summary", cfg.Metrics.Summary)
	app.Get("/metrics/aggregations", cfg.Metrics.Aggregations)

	app.Get("/rules", cfg.Rules.ListRules)
	app.Put("/rules", cfg.Rules.SaveRules)
}
