package router

import (
	"net/http"

	"itemmarket-rest-api/internal/handler"
	"itemmarket-rest-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler            *handler.Handler
	ListingHandler     *handler.ListingHandler
	TransactionHandler *handler.TransactionHandler
	AdminHandler       *handler.AdminHandler
	AuthHandler        *handler.AuthHandler
	AuthMiddleware     func(http.Handler) http.Handler
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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		// API v1 routes
		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Auth endpoints
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/token", cfg.AuthHandler.GenerateToken)
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
					r.Post("/refresh", cfg.AuthHandler.RefreshToken)
				})
			}

			// Listing endpoints
			if cfg.ListingHandler != nil {
				r.Route("/listings", func(r chi.Router) {
					r.Post("/", cfg.ListingHandler.CreateListing)
					r.Get("/", cfg.ListingHandler.List)
					r.Route("/{listing_id}", func(r chi.Router) {
						r.Get("/", cfg.ListingHandler.Get)
						r.Post("/purchase", cfg.ListingHandler.Purchase)
						r.Delete("/", cfg.ListingHandler.Cancel)
					})
				})
			}

			// Transaction endpoints
			if cfg.TransactionHandler != nil {
				r.Route("/transactions", func(r chi.Router) {
					r.Get("/recent", cfg.TransactionHandler.Recent)
					r.Get("/{transaction_id}", cfg.TransactionHandler.Get)
					r.Get("/seller/{player_uuid}", cfg.TransactionHandler.BySeller)
					r.Get("/buyer/{player_uuid}", cfg.TransactionHandler.ByBuyer)
				})
			}

			// Admin endpoints
			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Post("/sweep", cfg.AdminHandler.TriggerSweep)
				})
			}
		})
	})

	return r
}
