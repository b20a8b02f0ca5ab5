package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Articles       *handlers.ArticlesHandler
	Triage         *handlers.TriageHandler
	AuthMiddleware *auth.AuthMiddleware
	AuthLimiter    *ratelimit.Limiter
	TriageLimiter  *ratelimit.Limiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth", RateLimitMiddleware(cfg.AuthLimiter))
	authGroup.Post("/users/register", cfg.Auth.RegisterUser)
	authGroup.Post("/users/login", cfg.Auth.LoginUser)
	authGroup.Post("/agents/login", cfg.Auth.LoginAgent)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	agentOnly := auth.RequireAgentRole(domain.AgentRoleAgent, domain.AgentRoleAdmin)

	agentGroup := app.Group("/agent", cfg.AuthMiddleware.Handle, agentOnly)
	agentGroup.Get("/tickets/:id", cfg.Triage.GetTicket)
	agentGroup.Post("/tickets/:id/triage", RateLimitMiddleware(cfg.TriageLimiter), cfg.Triage.TriggerTriage)
	agentGroup.Get("/tickets/:id/suggestions", cfg.Triage.ListSuggestions)
	agentGroup.Get("/audit/:traceId", cfg.Triage.GetAuditTrail)

	articles := app.Group("/articles", cfg.AuthMiddleware.Handle, agentOnly)
	articles.Post("", cfg.Articles.CreateArticle)
	articles.Get("", cfg.Articles.ListArticles)
	articles.Get("/:id", cfg.Articles.GetArticle)
	articles.Patch("/:id", cfg.Articles.UpdateArticle)
	articles.Post("/:id/publish", cfg.Articles.PublishArticle)
	articles.Post("/:id/archive", cfg.Articles.ArchiveArticle)
}
