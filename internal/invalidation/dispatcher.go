package invalidation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hszk-dev/clipshare/internal/infrastructure/metrics"
)

// Invalidator removes cached responses. The response cache store implements it.
type Invalidator interface {
	DeleteMatching(pattern string) (int, error)
	Delete(key string)
	Flush()
}

// Publisher forwards events to other processes sharing the same data.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Dispatcher translates events into pattern invalidations on the local cache
// and, when a publisher is set, fans them out to other processes.
type Dispatcher struct {
	table     Table
	cache     Invalidator
	publisher Publisher
	logger    *slog.Logger
}

// NewDispatcher validates the table before returning, so a broken template
// fails at startup rather than on the first mutation.
// publisher may be nil for a single-process deployment.
func NewDispatcher(table Table, cache Invalidator, publisher Publisher, logger *slog.Logger) (*Dispatcher, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invalidation table: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		table:     table,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Emit invalidates locally and then publishes the event.
// Publishing is best effort: a failure is logged and local invalidation
// still counts as success.
func (d *Dispatcher) Emit(ctx context.Context, e Event) error {
	if _, err := d.apply(e, metrics.InvalidationSourceLocal); err != nil {
		return err
	}
	d.publish(ctx, e)
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, e Event) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, e); err != nil {
		d.logger.Warn("failed to publish invalidation event",
			slog.String("kind", string(e.Kind)),
			slog.String("error", err.Error()),
		)
	}
}

// Apply invalidates locally only. Used for events received from other processes.
func (d *Dispatcher) Apply(e Event) (int, error) {
	return d.apply(e, metrics.InvalidationSourceBus)
}

func (d *Dispatcher) apply(e Event, source string) (int, error) {
	if e.Kind == KindFlush {
		d.cache.Flush()
		metrics.InvalidationEventsTotal.WithLabelValues(string(e.Kind), source).Inc()
		d.logger.Info("response cache flushed", slog.String("source", source))
		return 0, nil
	}

	patterns, err := d.table.Patterns(e)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, p := range patterns {
		n, err := d.cache.DeleteMatching(p)
		if err != nil {
			d.logger.Error("invalidation pattern rejected",
				slog.String("kind", string(e.Kind)),
				slog.String("pattern", p),
				slog.String("error", err.Error()),
			)
			return total, err
		}
		total += n
	}

	metrics.InvalidationEventsTotal.WithLabelValues(string(e.Kind), source).Inc()
	metrics.InvalidatedEntriesTotal.Add(float64(total))
	d.logger.Debug("cache invalidated",
		slog.String("kind", string(e.Kind)),
		slog.String("source", source),
		slog.Int("removed", total),
	)
	return total, nil
}

// InvalidateKey removes a single cached response.
func (d *Dispatcher) InvalidateKey(key string) {
	d.cache.Delete(key)
}

// Flush drops every cached response in this process and asks the other
// processes on the bus to do the same.
func (d *Dispatcher) Flush(ctx context.Context) {
	_, _ = d.apply(CacheFlushed(), metrics.InvalidationSourceLocal)
	d.publish(ctx, CacheFlushed())
}
