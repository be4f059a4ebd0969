// Package realtime fans order events out to Server-Sent-Events subscribers.
package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrHubStopped is returned by Publish once Run has exited.
var ErrHubStopped = errors.New("realtime hub stopped")

// Publisher accepts events for delivery to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Client is one subscriber. Frames are delivered on Messages until Done is closed.
type Client struct {
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Messages returns the channel of SSE frames for this client.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Done is closed when the client has been deregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Hub is the registry of connected clients.
type Hub struct {
	mu      sync.Mutex
	clients []*Client
	buffer  int
	events  chan []byte
	stopped chan struct{}
	logger  zerolog.Logger
}

// NewHub creates a hub whose clients each buffer up to buffer frames.
func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		buffer:  buffer,
		events:  make(chan []byte, 256),
		stopped: make(chan struct{}),
		logger:  logger.With().Str("component", "realtime-hub").Logger(),
	}
}

// Subscribe registers a new client.
func (h *Hub) Subscribe() *Client {
	c := &Client{
		send: make(chan []byte, h.buffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients = append(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Int("clients", count).Msg("client subscribed")
	return c
}

// Unsubscribe deregisters c. It is safe to call more than once.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	for i, existing := range h.clients {
		if existing == c {
			h.clients = append(h.clients[:i], h.clients[i+1:]...)
			break
		}
	}
	count := len(h.clients)
	h.mu.Unlock()

	c.close()
	h.logger.Info().Int("clients", count).Msg("client unsubscribed")
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast encodes e and delivers it to every client immediately.
func (h *Hub) Broadcast(e Event) error {
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	h.BroadcastPayload(payload)
	return nil
}

// BroadcastPayload frames an encoded event and offers it to every client in
// registration order. Clients that are closed or whose buffer is full are
// deregistered; the remaining clients still receive the frame.
func (h *Hub) BroadcastPayload(payload []byte) {
	frame := Frame(payload)

	h.mu.Lock()
	kept := h.clients[:0]
	dropped := 0
	for _, c := range h.clients {
		if c.closed() {
			dropped++
			continue
		}
		select {
		case c.send <- frame:
			kept = append(kept, c)
		default:
			c.close()
			dropped++
		}
	}
	for i := len(kept); i < len(h.clients); i++ {
		h.clients[i] = nil
	}
	h.clients = kept
	count := len(kept)
	h.mu.Unlock()

	if dropped > 0 {
		h.logger.Warn().Int("dropped", dropped).Int("clients", count).Msg("removed dead clients")
	}
}

// Publish queues e for delivery by Run. It never waits on subscribers.
func (h *Hub) Publish(ctx context.Context, e Event) error {
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	return h.publishPayload(ctx, payload)
}

func (h *Hub) publishPayload(ctx context.Context, payload []byte) error {
	select {
	case <-h.stopped:
		return ErrHubStopped
	default:
	}

	select {
	case h.events <- payload:
		return nil
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run delivers published events until ctx is cancelled, then deregisters every client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info().Msg("realtime hub started")

	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			h.closeAll()
			h.logger.Info().Msg("realtime hub stopped")
			return
		case payload := <-h.events:
			h.BroadcastPayload(payload)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		c.close()
	}
	h.clients = nil
}
