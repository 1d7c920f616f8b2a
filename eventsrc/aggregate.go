// Package eventsrc is the event-sourcing kernel: events, aggregates, the
// store contract and the event factory registry.
package eventsrc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// AggregateType names a stream family ("students", "teachers", "classes").
type AggregateType string

// Aggregate is what the store and repositories work against. The JSON
// marshaling interfaces serve snapshotting.
type Aggregate interface {
	json.Marshaler
	json.Unmarshaler

	ID() uuid.UUID
	AggregateType() AggregateType
	// Version is the stream position the state currently reflects.
	Version() int
	// SetVersion overrides the tracked version when a snapshot is restored,
	// so the event tail replays against the right baseline.
	SetVersion(version int)
	GetUncommittedEvents() []Event
	ClearUncommittedEvents()
	// LoadFromHistory replays past events without validating: history was
	// valid when written.
	LoadFromHistory(ctx context.Context, events []Event)
	Apply(ctx context.Context, evt Event)
	Validate() error
}

// AggregateRoot holds the bookkeeping every aggregate needs: identity,
// version and the uncommitted-event buffer. Concrete aggregates embed it
// and hand their Apply and Validate methods to the constructor.
type AggregateRoot struct {
	id            uuid.UUID
	aggType       AggregateType
	version       int
	events        []Event
	applyMethod   func(context.Context, Event)
	validateState func() error
}

func NewAggregateRoot(
	aggType AggregateType,
	applyMethod func(context.Context, Event),
	validateState func() error,
) *AggregateRoot {
	return &AggregateRoot{
		aggType:       aggType,
		applyMethod:   applyMethod,
		validateState: validateState,
	}
}

func (a *AggregateRoot) ID() uuid.UUID                 { return a.id }
func (a *AggregateRoot) AggregateType() AggregateType  { return a.aggType }
func (a *AggregateRoot) Version() int                  { return a.version }
func (a *AggregateRoot) GetUncommittedEvents() []Event { return a.events }
func (a *AggregateRoot) ClearUncommittedEvents()       { a.events = nil }

// TrackChange applies a new event, validates the resulting state and
// buffers the event for the next Save. On validation failure the state has
// already been mutated; callers discard the aggregate instance.
func (a *AggregateRoot) TrackChange(ctx context.Context, evt Event) error {
	a.applyMethod(ctx, evt)
	if err := a.validateState(); err != nil {
		return fmt.Errorf("state invalid after %s: %w", evt.EventType(), err)
	}
	a.events = append(a.events, evt)
	return nil
}

// LoadFromHistory replays events in order, skipping validation.
func (a *AggregateRoot) LoadFromHistory(ctx context.Context, history []Event) {
	for _, evt := range history {
		a.applyMethod(ctx, evt)
	}
}

func (a *AggregateRoot) Apply(ctx context.Context, evt Event) {
	a.applyMethod(ctx, evt)
}

func (a *AggregateRoot) Validate() error {
	return a.validateState()
}

// SetID and SetVersion are called by concrete apply methods and by
// snapshot restore.
func (a *AggregateRoot) SetID(id uuid.UUID)     { a.id = id }
func (a *AggregateRoot) SetVersion(version int) { a.version = version }
