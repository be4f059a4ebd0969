package handler

import (
	"net/http"
	"time"

	"batterella/internal/model"
	"batterella/internal/realtime"
	"batterella/internal/service"

	"github.com/rs/zerolog"
)

// RealtimeHandler streams order events to the admin console over SSE.
type RealtimeHandler struct {
	hub       *realtime.Hub
	orders    service.OrderService
	discounts service.DiscountService
	heartbeat time.Duration
	logger    zerolog.Logger
}

// NewRealtimeHandler creates a new realtime handler.
func NewRealtimeHandler(
	hub *realtime.Hub,
	orders service.OrderService,
	discounts service.DiscountService,
	heartbeat time.Duration,
	logger zerolog.Logger,
) *RealtimeHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &RealtimeHandler{
		hub:       hub,
		orders:    orders,
		discounts: discounts,
		heartbeat: heartbeat,
		logger:    logger.With().Str("handler", "realtime").Logger(),
	}
}

// Stream handles GET /api/realtime requests. It sends a connection
// acknowledgement and a snapshot, then relays hub frames and heartbeats until
// the client goes away.
func (h *RealtimeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.hub.Subscribe()
	defer h.hub.Unsubscribe(client)

	w.WriteHeader(http.StatusOK)

	if err := h.send(w, rc, realtime.NewConnectionEvent(time.Now())); err != nil {
		return
	}

	snapshot, err := h.snapshot(r)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load realtime snapshot")
		return
	}
	if err := h.send(w, rc, snapshot); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			return
		case frame := <-client.Messages():
			if err := h.write(w, rc, frame); err != nil {
				return
			}
		case t := <-ticker.C:
			if err := h.send(w, rc, realtime.NewPingEvent(t)); err != nil {
				return
			}
		}
	}
}

func (h *RealtimeHandler) snapshot(r *http.Request) (realtime.InitialDataEvent, error) {
	list, err := h.orders.ListOrders(r.Context(), model.OrderFilter{})
	if err != nil {
		return realtime.InitialDataEvent{}, err
	}
	pending, err := h.discounts.ListPending(r.Context())
	if err != nil {
		return realtime.InitialDataEvent{}, err
	}
	return realtime.NewInitialDataEvent(list.Orders, pending), nil
}

func (h *RealtimeHandler) send(w http.ResponseWriter, rc *http.ResponseController, e realtime.Event) error {
	payload, err := realtime.Encode(e)
	if err != nil {
		h.logger.Error().Err(err).Str("event", e.EventType()).Msg("failed to encode event")
		return err
	}
	return h.write(w, rc, realtime.Frame(payload))
}

func (h *RealtimeHandler) write(w http.ResponseWriter, rc *http.ResponseController, frame []byte) error {
	if _, err := w.Write(frame); err != nil {
		h.logger.Debug().Err(err).Msg("realtime client write failed")
		return err
	}
	if err := rc.Flush(); err != nil {
		h.logger.Debug().Err(err).Msg("realtime client flush failed")
		return err
	}
	return nil
}
