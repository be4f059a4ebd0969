package router

import (
	"net/http"

	"batterella/internal/handler"
	"batterella/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Orders    *handler.OrderHandler
	Tracking  *handler.TrackingHandler
	Discounts *handler.DiscountHandler
	Customers *handler.CustomerHandler
	Realtime  *handler.RealtimeHandler
	Admin     *handler.AdminHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Applied in order: Recovery -> RequestID -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.Orders.Create)
		r.Get("/orders", h.Orders.List)
		r.Get("/orders/updates", h.Orders.Updates)
		r.Post("/orders/track", h.Orders.Track)
		r.Get("/orders/{id}", h.Orders.Get)

		r.Get("/tracking", h.Tracking.Get)

		r.Get("/customers/{phone}", h.Customers.Get)

		r.Get("/realtime", h.Realtime.Stream)
		r.Get("/sse", h.Realtime.Stream)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(apiKey, logger))

			// Order status changes
			r.Patch("/orders/{id}", h.Orders.Update)
			r.Delete("/orders/{id}", h.Orders.Cancel)
			r.Post("/tracking", h.Tracking.Update)

			r.Get("/discounts", h.Discounts.List)
			r.Post("/discounts", h.Discounts.Decide)
			r.Post("/discounts/apply", h.Discounts.Apply)

			r.Get("/admin/export-csv", h.Admin.ExportCSV)
			r.Get("/admin/stats", h.Admin.Stats)
			r.Get("/admin/storage", h.Admin.Storage)
			r.Delete("/admin/data", h.Admin.Reset)
		})
	})

	return r
}
