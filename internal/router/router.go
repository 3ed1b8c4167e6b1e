package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"tcg-inventory-api/internal/handler"
	"tcg-inventory-api/internal/middleware"
	"tcg-inventory-api/pkg/apierror"
	"tcg-inventory-api/pkg/response"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler       *handler.Handler
	LedgerHandler *handler.LedgerHandler
	AdminHandler  *handler.AdminHandler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if h := cfg.LedgerHandler; h != nil {
			r.Route("/users", func(r chi.Router) {
				r.Post("/", h.RegisterUser)
				r.Get("/{username}", h.GetUser)
				r.Get("/{username}/inventory", h.ListInventory)
			})

			r.Route("/cards", func(r chi.Router) {
				r.Post("/", h.AddCard)
				r.Post("/sell", h.SellCard)
				r.Post("/transfer", h.TransferCard)
				r.Get("/{id}/history", h.CardHistory)
				r.Get("/{id}/audit", h.AuditCard)
			})

			r.Get("/transactions", h.QueryTransactions)
			r.Get("/prices/{card_name}", h.SearchPrice)
		}

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Delete("/price-cache", cfg.AdminHandler.ClearPriceCache)
				r.Delete("/price-cache/{card_name}", cfg.AdminHandler.EvictPrice)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, apierror.NotFound("", "route not found"))
	})

	return r
}
