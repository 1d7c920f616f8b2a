package eventsrc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Repository loads and saves one aggregate type against a Store. The
// factory produces the empty aggregate the history is replayed into.
type Repository[T Aggregate] struct {
	store   Store
	aggType AggregateType
	empty   func() T
}

func NewRepository[T Aggregate](store Store, aggType AggregateType, empty func() T) *Repository[T] {
	return &Repository[T]{
		store:   store,
		aggType: aggType,
		empty:   empty,
	}
}

// Load rehydrates an aggregate: snapshot first (when one exists), then the
// event tail. A stream with no events yields an Empty-state aggregate, not
// an error.
func (r *Repository[T]) Load(ctx context.Context, id uuid.UUID) (T, error) {
	aggregate := r.empty()

	snapshot, snapshotVersion, history, err := r.store.Load(ctx, r.aggType, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load aggregate %s: %w", id, err)
	}

	if snapshot != nil {
		if err := json.Unmarshal(snapshot, &aggregate); err != nil {
			var zero T
			slog.ErrorContext(ctx, "Snapshot unreadable", "aggregateID", id, "error", err)
			return zero, fmt.Errorf("unmarshal snapshot for %s: %w", id, err)
		}
		// The tail starts after the snapshot; the version must reflect that.
		aggregate.SetVersion(snapshotVersion)
	}

	aggregate.LoadFromHistory(ctx, history)
	return aggregate, nil
}

// Save appends the aggregate's uncommitted events and clears the buffer on
// success.
func (r *Repository[T]) Save(ctx context.Context, aggregate T) error {
	if len(aggregate.GetUncommittedEvents()) == 0 {
		return nil
	}
	if err := r.store.Save(ctx, aggregate); err != nil {
		return fmt.Errorf("save aggregate %s: %w", aggregate.ID(), err)
	}
	aggregate.ClearUncommittedEvents()
	return nil
}
