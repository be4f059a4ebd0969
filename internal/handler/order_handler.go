package handler

import (
	"fmt"
	"net/http"
	"time"

	"batterella/internal/model"
	"batterella/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.Metadata = model.Metadata{
		DeviceID:  r.Header.Get("X-Device-ID"),
		SessionID: r.Header.Get("X-Session-ID"),
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}

	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	message := "Order created successfully"
	if order.IsRepeatCustomer {
		message = "Order created - Discount approval pending"
	}

	writeJSON(w, http.StatusCreated, model.OrderCreatedResponse{Order: order, Message: message})
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	list, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// Updates handles GET /api/orders/updates requests.
func (h *OrderHandler) Updates(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("lastUpdate"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidFilter, "invalid lastUpdate parameter", h.logger)
			return
		}
		since = t
	}

	updates, err := h.service.ListUpdates(r.Context(), since)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, updates)
}

// Get handles GET /api/orders/{id} requests.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// Update handles PATCH /api/orders/{id} requests.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.OrderUpdateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Cancel handles DELETE /api/orders/{id} requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order cancelled",
		"order":   order,
	})
}

// Track handles POST /api/orders/track requests.
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req model.TrackRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.TrackOrder(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// parseOrderFilter reads the listing filters from the query string.
func parseOrderFilter(r *http.Request) (model.OrderFilter, error) {
	q := r.URL.Query()
	filter := model.OrderFilter{
		Type:   model.OrderType(q.Get("type")),
		Source: model.Source(q.Get("source")),
		Phone:  q.Get("phone"),
	}

	if raw := q.Get("status"); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			return filter, model.NewDomainError(model.ErrCodeInvalidFilter, fmt.Sprintf("invalid status filter: %s", raw))
		}
		filter.Status = status
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"dateFrom", &filter.DateFrom},
		{"dateTo", &filter.DateTo},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := parseTime(raw)
		if err != nil {
			return filter, model.NewDomainError(model.ErrCodeInvalidFilter, fmt.Sprintf("invalid %s parameter", p.name))
		}
		*p.dst = &t
	}

	return filter, nil
}

// parseTime accepts RFC 3339 timestamps or plain dates.
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
