package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/eventsrc"
	"github.com/0m3kk/registrar/infra/memory"
	"github.com/0m3kk/registrar/workflow"
)

func registered(aggID uuid.UUID, version int, number string) *event.StudentRegistered {
	return &event.StudentRegistered{
		BaseEvent: eventsrc.BaseEvent{
			ID:      uuid.New(),
			AggID:   aggID,
			AggType: aggregate.StudentAggregateType,
			Ver:     version,
			Ts:      time.Now().UTC(),
		},
		Name:          "Ada",
		StudentNumber: number,
	}
}

func trackedAggregate(t *testing.T, evts ...eventsrc.Event) *aggregate.StudentAggregate {
	t.Helper()
	a := aggregate.NewStudentAggregateEmpty()
	for _, evt := range evts {
		require.NoError(t, a.TrackChange(context.Background(), evt))
	}
	return a
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	store := memory.NewStore()
	aggID := uuid.New()

	a := trackedAggregate(t, registered(aggID, 1, "S-1"))
	require.NoError(t, store.Save(context.Background(), a))

	snapshot, version, history, err := store.Load(context.Background(), aggregate.StudentAggregateType, aggID)
	require.NoError(t, err)
	assert.Nil(t, snapshot, "the memory store keeps no snapshots")
	assert.Equal(t, 0, version)
	require.Len(t, history, 1)
	assert.Equal(t, "StudentRegistered", history[0].EventType())
}

func TestStore_RejectsConflictingVersion(t *testing.T) {
	store := memory.NewStore()
	aggID := uuid.New()

	first := trackedAggregate(t, registered(aggID, 1, "S-1"))
	require.NoError(t, store.Save(context.Background(), first))

	// A second writer that loaded before the first save also appends
	// version 1 and must be rejected.
	second := trackedAggregate(t, registered(aggID, 1, "S-1"))
	err := store.Save(context.Background(), second)
	require.Error(t, err)

	var conflict eventsrc.ErrConcurrency
	assert.ErrorAs(t, err, &conflict)
}

func TestStore_ReadAllByTypeKeepsFirstAppendOrder(t *testing.T) {
	store := memory.NewStore()
	firstID := uuid.New()
	secondID := uuid.New()

	require.NoError(t, store.Save(context.Background(), trackedAggregate(t, registered(firstID, 1, "S-1"))))
	require.NoError(t, store.Save(context.Background(), trackedAggregate(t, registered(secondID, 1, "S-2"))))

	events, err := store.ReadAllByType(context.Background(), aggregate.StudentAggregateType)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, firstID, events[0].AggregateID())
	assert.Equal(t, secondID, events[1].AggregateID())

	// Other types see nothing.
	events, err = store.ReadAllByType(context.Background(), aggregate.ClassAggregateType)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_IdempotencyTracking(t *testing.T) {
	store := memory.NewStore()
	eventID := uuid.New()

	processed, err := store.IsProcessed(context.Background(), eventID, "sub")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkAsProcessed(context.Background(), eventID, "sub"))

	processed, err = store.IsProcessed(context.Background(), eventID, "sub")
	require.NoError(t, err)
	assert.True(t, processed)

	// Different subscriber has its own cursor.
	processed, err = store.IsProcessed(context.Background(), eventID, "other")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestStore_ReserveIsFirstComeFirstServed(t *testing.T) {
	store := memory.NewStore()

	require.NoError(t, store.Reserve(context.Background(), "student", "S-1"))

	err := store.Reserve(context.Background(), "student", "S-1")
	assert.ErrorIs(t, err, workflow.ErrDuplicateKey)

	// Same key under a different kind is a separate namespace.
	require.NoError(t, store.Reserve(context.Background(), "teacher", "S-1"))
}

func TestStore_ReleaseMakesKeyReservableAgain(t *testing.T) {
	store := memory.NewStore()

	require.NoError(t, store.Reserve(context.Background(), "student", "S-1"))
	require.NoError(t, store.Release(context.Background(), "student", "S-1"))
	require.NoError(t, store.Reserve(context.Background(), "student", "S-1"))

	// Releasing a key that was never reserved is a no-op.
	require.NoError(t, store.Release(context.Background(), "teacher", "T-9"))
}
