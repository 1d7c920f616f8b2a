// Package cqrs provides the consumer-side plumbing for projections: an
// idempotent, version-ordered, transactional decorator around a view
// handler.
package cqrs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/0m3kk/registrar/eventsrc"
)

// ErrOutOfOrderEvent signals that an event arrived ahead of its
// predecessors. The subscription layer decides how to redeliver it.
var ErrOutOfOrderEvent = errors.New("out of order event")

// IdempotencyStore records which events a subscriber has already applied.
type IdempotencyStore interface {
	IsProcessed(ctx context.Context, eventID uuid.UUID, subscriberID string) (bool, error)
	MarkAsProcessed(ctx context.Context, eventID uuid.UUID, subscriberID string) error
}

// VersionedStore exposes the version a view currently reflects.
// GetVersion returns 0 when no view row exists yet.
type VersionedStore interface {
	GetVersion(ctx context.Context, aggregateID uuid.UUID) (int, error)
}

// TransactionalHandler runs inside a transaction started by a Transactor.
type TransactionalHandler func(ctx context.Context) error

// Transactor executes a handler within a single transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn TransactionalHandler) error
}

// ProjectionHandler applies one event to a view.
type ProjectionHandler func(ctx context.Context, evt eventsrc.OutboxEvent) error

// Projection decorates a view handler with an idempotency check, a
// version-ordering check and retry with exponential backoff. The
// processed-marker commits through the transactor; the handler's own view
// writes may go through their repository's connection and need not join
// that transaction. The per-attempt version read keeps retries convergent
// either way.
type Projection struct {
	subscriberID   string
	idempStore     IdempotencyStore
	versionStore   VersionedStore
	transactor     Transactor
	handler        ProjectionHandler
	maxElapsedTime time.Duration
}

// ProjectionOption configures a Projection.
type ProjectionOption func(*Projection)

// WithMaxElapsedTime bounds the total retry time per event.
func WithMaxElapsedTime(maxElapsedTime time.Duration) ProjectionOption {
	return func(p *Projection) {
		p.maxElapsedTime = maxElapsedTime
	}
}

// NewProjection builds the decorated projection for one subscriber.
func NewProjection(
	subscriberID string,
	idempStore IdempotencyStore,
	versionStore VersionedStore,
	transactor Transactor,
	handler ProjectionHandler,
	opts ...ProjectionOption,
) *Projection {
	p := &Projection{
		subscriberID:   subscriberID,
		idempStore:     idempStore,
		versionStore:   versionStore,
		transactor:     transactor,
		handler:        handler,
		maxElapsedTime: time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle applies one event, retrying transient failures.
func (p *Projection) Handle(ctx context.Context, evt eventsrc.OutboxEvent) error {
	done, err := p.idempStore.IsProcessed(ctx, evt.EventID, p.subscriberID)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if done {
		slog.WarnContext(ctx, "Event already applied, skipping",
			"eventID", evt.EventID, "subscriber", p.subscriberID)
		return nil
	}

	attempt := func() (any, error) {
		return nil, p.apply(ctx, evt)
	}

	_, err = backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(p.maxElapsedTime))
	if err != nil {
		slog.ErrorContext(ctx, "Giving up on event after retries",
			"error", err, "eventID", evt.EventID, "subscriber", p.subscriberID)
		return err
	}

	slog.InfoContext(ctx, "Event applied",
		"eventID", evt.EventID, "subscriber", p.subscriberID)
	return nil
}

// apply is one retry attempt. The version check runs inside the attempt so
// a view updated by a concurrent worker is re-read before each try.
func (p *Projection) apply(ctx context.Context, evt eventsrc.OutboxEvent) error {
	current, err := p.versionStore.GetVersion(ctx, evt.AggregateID)
	if err != nil {
		return fmt.Errorf("read view version: %w", err)
	}

	switch {
	case evt.Version <= current:
		// Already reflected in the view. Record it so a redelivery is
		// dropped at the idempotency check instead of re-read here.
		slog.WarnContext(ctx, "Stale event version, skipping",
			"eventID", evt.EventID, "eventVersion", evt.Version, "viewVersion", current)
		return backoff.Permanent(p.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
			return p.idempStore.MarkAsProcessed(txCtx, evt.EventID, p.subscriberID)
		}))

	case evt.Version != current+1:
		// A gap: the predecessor has not landed. Fail the delivery so the
		// broker redelivers after the missing event arrives.
		slog.WarnContext(ctx, "Event ahead of view, leaving for redelivery",
			"eventID", evt.EventID, "eventVersion", evt.Version, "expected", current+1)
		return backoff.Permanent(ErrOutOfOrderEvent)
	}

	err = p.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := p.handler(txCtx, evt); err != nil {
			return fmt.Errorf("projection handler: %w", err)
		}
		if err := p.idempStore.MarkAsProcessed(txCtx, evt.EventID, p.subscriberID); err != nil {
			return fmt.Errorf("mark processed: %w", err)
		}
		return nil
	})
	if err != nil && errors.Is(err, context.Canceled) {
		return backoff.Permanent(err)
	}
	return err
}
