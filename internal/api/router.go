package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mammyai/chat-gateway/internal/api/handler"
	customMiddleware "github.com/mammyai/chat-gateway/internal/api/middleware"
	"github.com/mammyai/chat-gateway/internal/config"
	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/mammyai/chat-gateway/internal/repository/redis"
	"github.com/mammyai/chat-gateway/internal/service"
)

// NewRouter creates and configures the HTTP router. limiter may be nil
// when Redis is not configured; the send path then runs unthrottled.
func NewRouter(cfg *config.Config, transport domain.AgentTransport, limiter *redis.SendLimiter) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	states := handler.NewStateManager(transport, service.Options{
		AgentName:      cfg.Agent.Name,
		HistoryAgent:   cfg.Agent.HistoryAgent,
		SystemPrompt:   cfg.Agent.SystemPrompt,
		SessionTTLDays: cfg.Session.TTLDays,
		CookiePrefix:   cfg.Session.CookiePrefix,
		UserCookieName: cfg.Session.UserCookieName,
	})

	chatHandler := handler.NewChatHandler(states)
	sessionHandler := handler.NewSessionHandler(states)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Post("/", sessionHandler.Create)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Post("/select", sessionHandler.Select)
				r.Delete("/", sessionHandler.Delete)
			})
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/history", chatHandler.History)

			r.Group(func(r chi.Router) {
				if limiter != nil {
					r.Use(customMiddleware.NewRateLimitMiddleware(limiter, cfg.Session.UserCookieName).Limit)
				}
				r.Post("/", chatHandler.Send)
			})
		})
	})

	return r
}
