// Package memory provides in-memory implementations of the persistence
// interfaces. They hold everything in process under a mutex and are meant
// for tests and single-node experiments, not durability.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/0m3kk/registrar/cqrs"
	"github.com/0m3kk/registrar/eventsrc"
	"github.com/0m3kk/registrar/workflow"
)

// Store is an in-memory event store. Streams are keyed by aggregate ID and
// appended under optimistic concurrency: a conflicting version returns
// eventsrc.ErrConcurrency, same as the PostgreSQL store.
type Store struct {
	mu      sync.RWMutex
	streams map[uuid.UUID][]eventsrc.Event
	// order keeps aggregate IDs per type in first-append order so replays
	// are deterministic.
	order     map[eventsrc.AggregateType][]uuid.UUID
	processed map[string]struct{}
	keys      map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		streams:   make(map[uuid.UUID][]eventsrc.Event),
		order:     make(map[eventsrc.AggregateType][]uuid.UUID),
		processed: make(map[string]struct{}),
		keys:      make(map[string]struct{}),
	}
}

// Save appends an aggregate's uncommitted events to its stream.
func (s *Store) Save(ctx context.Context, aggregate eventsrc.Aggregate) error {
	events := aggregate.GetUncommittedEvents()
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[aggregate.ID()]
	expected := len(stream) + 1
	for _, evt := range events {
		if evt.Version() != expected {
			return eventsrc.ErrConcurrency{
				Msg: fmt.Sprintf("concurrency error: expected version %d, got %d", expected, evt.Version()),
			}
		}
		expected++
	}

	if len(stream) == 0 {
		s.order[aggregate.AggregateType()] = append(s.order[aggregate.AggregateType()], aggregate.ID())
	}
	s.streams[aggregate.ID()] = append(stream, events...)
	return nil
}

// Load returns the full history of an aggregate. Snapshots are not kept
// in memory, so the returned snapshot is always nil.
func (s *Store) Load(
	ctx context.Context,
	aggType eventsrc.AggregateType,
	aggID uuid.UUID,
) (json.RawMessage, int, []eventsrc.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[aggID]
	history := make([]eventsrc.Event, len(stream))
	copy(history, stream)
	return nil, 0, history, nil
}

// ReadAllByType returns every event for an aggregate type, stream by
// stream in first-append order.
func (s *Store) ReadAllByType(
	ctx context.Context,
	aggType eventsrc.AggregateType,
) ([]eventsrc.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []eventsrc.Event
	for _, id := range s.order[aggType] {
		events = append(events, s.streams[id]...)
	}
	return events, nil
}

// WithTransaction implements cqrs.Transactor. The in-memory store has no
// real transactions, so the handler runs directly against the store.
func (s *Store) WithTransaction(ctx context.Context, fn cqrs.TransactionalHandler) error {
	return fn(ctx)
}

// IsProcessed implements cqrs.IdempotencyStore.
func (s *Store) IsProcessed(ctx context.Context, eventID uuid.UUID, subscriberID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.processed[processedKey(eventID, subscriberID)]
	return ok, nil
}

// MarkAsProcessed implements cqrs.IdempotencyStore.
func (s *Store) MarkAsProcessed(ctx context.Context, eventID uuid.UUID, subscriberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processed[processedKey(eventID, subscriberID)] = struct{}{}
	return nil
}

// Reserve implements workflow.KeyIndex over an in-memory set.
func (s *Store) Reserve(ctx context.Context, kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := kind + "/" + key
	if _, ok := s.keys[k]; ok {
		return workflow.ErrDuplicateKey
	}
	s.keys[k] = struct{}{}
	return nil
}

// Release implements workflow.KeyIndex. Unknown keys are a no-op.
func (s *Store) Release(ctx context.Context, kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, kind+"/"+key)
	return nil
}

func processedKey(eventID uuid.UUID, subscriberID string) string {
	return eventID.String() + "/" + subscriberID
}
