package handler

import (
	"net/http"

	"batterella/internal/model"
	"batterella/internal/service"

	"github.com/rs/zerolog"
)

// DiscountHandler handles the admin discount endpoints.
type DiscountHandler struct {
	service service.DiscountService
	logger  zerolog.Logger
}

// NewDiscountHandler creates a new discount handler.
func NewDiscountHandler(service service.DiscountService, logger zerolog.Logger) *DiscountHandler {
	return &DiscountHandler{
		service: service,
		logger:  logger.With().Str("handler", "discount").Logger(),
	}
}

// List handles GET /api/discounts requests.
func (h *DiscountHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListPending(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"pendingApprovals": views})
}

// Decide handles POST /api/discounts requests.
func (h *DiscountHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req model.DiscountActionRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	switch req.Action {
	case model.DiscountActionApprove:
		result, err := h.service.Approve(r.Context(), req.Identifier(), req.DiscountPercent)
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case model.DiscountActionReject:
		result, err := h.service.Reject(r.Context(), req.Identifier())
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, result)

	default:
		writeDomainError(w, model.ErrInvalidAction, h.logger)
	}
}

// Apply handles POST /api/discounts/apply requests.
func (h *DiscountHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req model.ApplyDiscountRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Apply(r.Context(), req.OrderID, req.DiscountPercent)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
