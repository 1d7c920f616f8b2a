package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/0m3kk/registrar/eventsrc"
	"github.com/0m3kk/registrar/msgbus"
)

// Store claims and settles outbox batches. The implementation owns the
// transaction: processFunc runs between the claim and the published-flag
// update, and a processFunc error rolls the whole batch back.
type Store interface {
	ProcessOutboxBatch(
		ctx context.Context,
		batchSize int,
		processFunc func(ctx context.Context, events []eventsrc.OutboxEvent) error,
	) error
}

// TopicMapper routes an event type to its broker topic. An empty topic
// means the event is settled without publishing.
type TopicMapper func(eventType string) string

// Observer is notified about publish attempts. Implementations must be safe
// for concurrent use; relays typically run as multiple workers.
type Observer interface {
	ObserveOutboxPublish(ok bool)
}

// Relay polls the outbox and forwards claimed events to the broker. Run
// several relays against one table; SKIP LOCKED in the store keeps their
// batches disjoint.
type Relay struct {
	store       Store
	broker      msgbus.Broker
	topicMapper TopicMapper
	batchSize   int
	interval    time.Duration
	observer    Observer
	wg          sync.WaitGroup
	quit        chan struct{}
}

// Option configures a Relay.
type Option func(*Relay)

// WithObserver instruments publish attempts.
func WithObserver(observer Observer) Option {
	return func(r *Relay) {
		r.observer = observer
	}
}

func NewRelay(
	store Store,
	broker msgbus.Broker,
	mapper TopicMapper,
	batchSize int,
	interval time.Duration,
	opts ...Option,
) *Relay {
	r := &Relay{
		store:       store,
		broker:      broker,
		topicMapper: mapper,
		batchSize:   batchSize,
		interval:    interval,
		quit:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the polling loop. It returns immediately; the loop stops
// on Stop or context cancellation.
func (r *Relay) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		slog.InfoContext(ctx, "Outbox relay started")
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := r.processBatch(ctx); err != nil {
					slog.ErrorContext(ctx, "Outbox batch failed", "error", err)
				}
			case <-r.quit:
				slog.InfoContext(ctx, "Outbox relay stopping")
				return
			case <-ctx.Done():
				slog.InfoContext(ctx, "Outbox relay stopping, context cancelled")
				return
			}
		}
	}()
}

// processBatch hands the publish step to the store, which runs it between
// claiming the batch and flipping the published flags.
func (r *Relay) processBatch(ctx context.Context) error {
	return r.store.ProcessOutboxBatch(ctx, r.batchSize, func(ctx context.Context, events []eventsrc.OutboxEvent) error {
		if len(events) == 0 {
			return nil
		}

		for _, evt := range events {
			topic := r.topicMapper(evt.EventType)
			if topic == "" {
				slog.WarnContext(ctx, "No topic for event type, settling without publish",
					"eventType", evt.EventType, "eventID", evt.EventID)
				continue
			}

			if err := r.broker.Publish(ctx, topic, evt); err != nil {
				if r.observer != nil {
					r.observer.ObserveOutboxPublish(false)
				}
				// Fails the whole batch; the rollback leaves every event
				// claimable again.
				return fmt.Errorf("publish event %s to %s: %w", evt.EventID, topic, err)
			}
			if r.observer != nil {
				r.observer.ObserveOutboxPublish(true)
			}
		}
		slog.InfoContext(ctx, "Outbox batch published", "count", len(events))
		return nil
	})
}

// Stop halts the polling loop and waits for the in-flight batch.
func (r *Relay) Stop() {
	close(r.quit)
	r.wg.Wait()
}
