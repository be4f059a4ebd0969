package handler

import (
	"fmt"
	"net/http"

	"batterella/internal/model"
	"batterella/internal/service"

	"github.com/rs/zerolog"
)

// TrackingHandler serves the customer tracking endpoint.
type TrackingHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewTrackingHandler creates a new tracking handler.
func NewTrackingHandler(service service.OrderService, logger zerolog.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger.With().Str("handler", "tracking").Logger(),
	}
}

// Get handles GET /api/tracking?id=|token=|tracking= requests.
func (h *TrackingHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	identifier := q.Get("id")
	if identifier == "" {
		identifier = q.Get("token")
	}
	if identifier == "" {
		identifier = q.Get("tracking")
	}

	info, err := h.service.GetTracking(r.Context(), identifier)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// Update handles POST /api/tracking requests.
func (h *TrackingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.TrackingUpdateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.UpdateTracking(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.TrackingUpdateResult{
		Success: true,
		Message: fmt.Sprintf("Order status updated to %s", order.Status),
		Order:   order,
	})
}
