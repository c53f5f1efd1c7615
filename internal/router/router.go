package router

import (
	"net/http"

	"tradepost-rest-api/internal/handler"
	"tradepost-rest-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	UserHandler    *handler.UserHandler
	ListingHandler *handler.ListingHandler
	TradeHandler   *handler.TradeHandler
	InboxHandler   *handler.InboxHandler
	AuthHandler    *handler.AuthHandler
	AdminHandler   *handler.AdminHandler
	AuthMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key", "X-Token", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// Registration and the open read endpoints need no credential
		if cfg.UserHandler != nil {
			r.Post("/users", cfg.UserHandler.Register)
			r.Get("/users", cfg.UserHandler.List)
		}
		if cfg.ListingHandler != nil {
			r.Get("/listings", cfg.ListingHandler.List)
		}
		if cfg.AuthHandler != nil {
			r.Post("/auth/token", cfg.AuthHandler.GenerateToken)
		}

		// Admin endpoints authenticate via X-Login-Key inside the handler
		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Delete("/users/{user_id}", cfg.AdminHandler.DeleteUser)
				r.Get("/stats", cfg.AdminHandler.GetStats)
			})
		}

		// AUTHENTICATED routes
		r.Group(func(r chi.Router) {
			if cfg.AuthMiddleware != nil {
				r.Use(cfg.AuthMiddleware)
			}

			if cfg.AuthHandler != nil {
				r.Post("/auth/revoke", cfg.AuthHandler.RevokeToken)
				r.Post("/auth/refresh", cfg.AuthHandler.RefreshToken)
			}

			if cfg.ListingHandler != nil {
				r.Post("/listings", cfg.ListingHandler.Create)
				r.Delete("/listings/{listing_id}", cfg.ListingHandler.Retire)
			}

			if cfg.TradeHandler != nil {
				r.Post("/trades", cfg.TradeHandler.Execute)
			}

			if cfg.InboxHandler != nil {
				r.Get("/inbox", cfg.InboxHandler.List)
				r.Delete("/inbox/{entry_id}", cfg.InboxHandler.Claim)
			}
		})
	})

	return r
}
