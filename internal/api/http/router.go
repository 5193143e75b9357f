package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/ticketd/internal/api/http/handlers"
	"github.com/helpdesk-kit/ticketd/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Categories     *handlers.CategoriesHandler
	SLA            *handlers.SLAHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets/:number", cfg.Tickets.GetTicket)
	api.Put("/tickets/:number", auth.RequireAdmin(), cfg.Tickets.UpdateTicket)
	api.Delete("/tickets/:number", auth.RequireAdmin(), cfg.Tickets.DeleteTicket)

	api.Get("/tickets/:number/comments", cfg.Comments.ListComments)
	api.Post("/tickets/:number/comments", cfg.Comments.AddComment)

	api.Get("/categories", cfg.Categories.ListCategories)

	api.Get("/sla", cfg.SLA.ListPolicies)
	api.Put("/sla/:priority", auth.RequireAdmin(), cfg.SLA.UpdatePolicy)

	api.Get("/dashboard/stats", auth.RequireAdmin(), cfg.Dashboard.Stats)
	api.Get("/dashboard/priority-stats", auth.RequireAdmin(), cfg.Dashboard.PriorityStats)
}
