package eventsrc

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// ErrConcurrency reports that another writer appended to the stream first.
// Callers reload the aggregate and retry the command.
type ErrConcurrency struct {
	Msg string
}

func (e ErrConcurrency) Error() string {
	return e.Msg
}

// Store persists aggregate streams. Snapshot handling is the store's
// concern; callers never see whether one was taken.
type Store interface {
	// Save appends the aggregate's uncommitted events. Version conflicts
	// surface as ErrConcurrency.
	Save(ctx context.Context, aggregate Aggregate) error

	// Load returns the latest snapshot payload (nil when none exists), the
	// version that snapshot reflects, and the events recorded after it.
	Load(
		ctx context.Context,
		aggType AggregateType,
		aggregateID uuid.UUID,
	) (snapshot json.RawMessage, version int, history []Event, err error)
}
