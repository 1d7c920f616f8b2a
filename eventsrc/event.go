package eventsrc

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is a fact recorded against one aggregate stream. Version is the
// 1-based position of the event within its stream.
type Event interface {
	EventID() uuid.UUID
	AggregateID() uuid.UUID
	AggregateType() AggregateType
	EventType() string
	Version() int
	Timestamp() time.Time
}

// BaseEvent carries the envelope fields shared by every domain event.
// Embed it by value; the accessors use value receivers so both value and
// pointer events satisfy Event.
type BaseEvent struct {
	ID      uuid.UUID     `json:"id"`
	AggID   uuid.UUID     `json:"aggregate_id"`
	AggType AggregateType `json:"aggregate_type"`
	Ver     int           `json:"version"`
	Ts      time.Time     `json:"ts"`
}

func (b BaseEvent) EventID() uuid.UUID           { return b.ID }
func (b BaseEvent) AggregateID() uuid.UUID       { return b.AggID }
func (b BaseEvent) AggregateType() AggregateType { return b.AggType }
func (b BaseEvent) Version() int                 { return b.Ver }
func (b BaseEvent) Timestamp() time.Time         { return b.Ts }

// OutboxEvent is an event row as relayed to the broker: envelope plus the
// raw payload. Field order matches the outbox SELECT column order because
// rows are scanned by position.
type OutboxEvent struct {
	EventID       uuid.UUID
	AggregateID   uuid.UUID
	AggregateType AggregateType
	EventType     string
	Payload       json.RawMessage
	Version       int
	Ts            time.Time
}
