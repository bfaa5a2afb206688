package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/clipshare/internal/invalidation"
)

// busMessage is the JSON envelope published on the invalidation channel.
type busMessage struct {
	Origin string             `json:"origin"`
	Event  invalidation.Event `json:"event"`
}

// RedisBus carries invalidation events between processes over Redis pub/sub.
// Messages published by a bus are ignored by that same bus's subscriber.
type RedisBus struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *slog.Logger

	// Resubscribe backoff bounds for Listen.
	retryMin time.Duration
	retryMax time.Duration
}

// NewRedisBus creates a bus on the given channel with a fresh origin id.
func NewRedisBus(client *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{
		client:   client,
		channel:  channel,
		origin:   uuid.NewString(),
		logger:   logger,
		retryMin: 500 * time.Millisecond,
		retryMax: 30 * time.Second,
	}
}

// Publish sends the event to every subscriber of the channel.
func (b *RedisBus) Publish(ctx context.Context, e invalidation.Event) error {
	data, err := json.Marshal(busMessage{Origin: b.origin, Event: e})
	if err != nil {
		return fmt.Errorf("marshal invalidation event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Emit lets processes without a local cache, such as the worker, report
// mutations to the API processes.
func (b *RedisBus) Emit(ctx context.Context, e invalidation.Event) error {
	return b.Publish(ctx, e)
}

// Listen keeps a subscription open until ctx is cancelled. A failed
// subscribe is retried with exponential backoff so remote invalidations
// resume once Redis is reachable again.
func (b *RedisBus) Listen(ctx context.Context, handler func(invalidation.Event)) {
	backoff := b.retryMin
	for {
		err := b.Subscribe(ctx, handler)
		if ctx.Err() != nil {
			return
		}

		wait := b.retryMin
		if err != nil {
			wait = backoff
			backoff = min(backoff*2, b.retryMax)
			b.logger.Warn("invalidation subscriber failed, retrying",
				slog.String("channel", b.channel),
				slog.Duration("retry_in", wait),
				slog.String("error", err.Error()),
			)
		} else {
			backoff = b.retryMin
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// Subscribe blocks, calling handler for every event published by another
// process, until ctx is cancelled. It returns nil on cancellation.
func (b *RedisBus) Subscribe(ctx context.Context, handler func(invalidation.Event)) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Wait for confirmation so that publishes after this point are seen.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var m busMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				b.logger.Warn("dropping malformed invalidation message",
					slog.String("error", err.Error()),
				)
				continue
			}
			if m.Origin == b.origin {
				continue
			}
			handler(m.Event)
		}
	}
}
