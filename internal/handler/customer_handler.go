package handler

import (
	"net/http"

	"batterella/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CustomerHandler handles customer lookups.
type CustomerHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(service service.OrderService, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		logger:  logger.With().Str("handler", "customer").Logger(),
	}
}

// Get handles GET /api/customers/{phone}. Unknown phones return null.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.GetCustomer(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, customer)
}
