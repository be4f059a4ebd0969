package realtime

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultRetryInitial = 500 * time.Millisecond
	defaultRetryMax     = 30 * time.Second
)

// RedisRelay publishes events on a Redis channel so every API process delivers
// them to its own subscribers.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	logger  zerolog.Logger

	// subscribed is true while Run holds a live subscription. Until then
	// Publish also delivers to the local hub.
	subscribed atomic.Bool

	retryInitial time.Duration
	retryMax     time.Duration
}

// NewRedisRelay creates a relay between the Redis channel and the local hub.
func NewRedisRelay(rdb *redis.Client, channel string, hub *Hub, logger zerolog.Logger) *RedisRelay {
	return &RedisRelay{
		rdb:          rdb,
		channel:      channel,
		hub:          hub,
		logger:       logger.With().Str("component", "redis-relay").Str("channel", channel).Logger(),
		retryInitial: defaultRetryInitial,
		retryMax:     defaultRetryMax,
	}
}

// Subscribed reports whether the relay is receiving from Redis.
func (r *RedisRelay) Subscribed() bool {
	return r.subscribed.Load()
}

// Publish sends e to the Redis channel. The event goes to the local hub
// directly when Redis is unavailable or this process is not subscribed.
func (r *RedisRelay) Publish(ctx context.Context, e Event) error {
	payload, err := Encode(e)
	if err != nil {
		return err
	}

	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Warn().
			Err(err).
			Str("event", e.EventType()).
			Msg("redis publish failed, delivering locally")
		return r.hub.publishPayload(ctx, payload)
	}

	if !r.subscribed.Load() {
		r.logger.Debug().
			Str("event", e.EventType()).
			Msg("relay not subscribed, delivering locally")
		return r.hub.publishPayload(ctx, payload)
	}
	return nil
}

// Run subscribes to the channel and forwards every message to the local hub
// until ctx is cancelled. Failed subscriptions are retried with exponential
// backoff.
func (r *RedisRelay) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryInitial
	b.MaxInterval = r.retryMax
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		err := r.listen(ctx, b)
		if ctx.Err() != nil {
			r.logger.Info().Msg("redis relay stopped")
			return nil
		}

		wait := b.NextBackOff()
		r.logger.Warn().
			Err(err).
			Dur("retry_in", wait).
			Msg("redis relay not subscribed, retrying")

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("redis relay stopped")
			return nil
		case <-time.After(wait):
		}
	}
}

// listen holds one subscription until it fails or ctx is cancelled. The
// backoff is reset once the subscription is confirmed.
func (r *RedisRelay) listen(ctx context.Context, b backoff.BackOff) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	b.Reset()

	r.logger.Info().Msg("redis relay subscribed")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", r.channel)
			}
			r.hub.BroadcastPayload([]byte(msg.Payload))
		}
	}
}
