package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/northgate/helpdesk/internal/api/http/handlers"
	"github.com/northgate/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Assets         *handlers.AssetsHandler
	FAQs           *handlers.FAQsHandler
	Export         *handlers.ExportHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	api := app.Group("/api")
	api.Post("/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	privileged := auth.RequirePrivileged()

	protected.Get("/me", cfg.Auth.Me)
	protected.Post("/me/password", cfg.Auth.ChangePassword)

	protected.Get("/tickets", cfg.Tickets.ListTickets)
	protected.Post("/tickets", cfg.Tickets.CreateTicket)
	protected.Get("/tickets/:id", cfg.Tickets.GetTicket)
	protected.Put("/tickets/:id", cfg.Tickets.UpdateTicket)
	protected.Delete("/tickets/:id", privileged, cfg.Tickets.DeleteTicket)
	protected.Get("/tickets/:id/mensajes", cfg.Tickets.ListMessages)
	protected.Post("/tickets/:id/mensajes", cfg.Tickets.PostMessage)

	protected.Get("/activos", cfg.Assets.List)
	protected.Post("/activos", privileged, cfg.Assets.Create)
	protected.Delete("/activos/:id", privileged, cfg.Assets.Delete)

	protected.Get("/faqs", cfg.FAQs.List)
	protected.Get("/faqs/:id", cfg.FAQs.Get)
	protected.Post("/faqs", privileged, cfg.FAQs.Create)
	protected.Delete("/faqs/:id", privileged, cfg.FAQs.Delete)

	protected.Get("/export", privileged, cfg.Export.Tickets)
}
