package aggregate_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/domain/model"
	"github.com/0m3kk/registrar/eventsrc"
)

func baseEvent(aggID uuid.UUID, version int) eventsrc.BaseEvent {
	return eventsrc.BaseEvent{
		ID:      uuid.New(),
		AggID:   aggID,
		AggType: aggregate.StudentAggregateType,
		Ver:     version,
		Ts:      time.Now().UTC(),
	}
}

func registeredEvent(aggID uuid.UUID, version int) *event.StudentRegistered {
	return &event.StudentRegistered{
		BaseEvent:     baseEvent(aggID, version),
		Name:          "Ada Lovelace",
		StudentNumber: "S-1001",
		DateOfBirth:   time.Date(2008, 3, 14, 0, 0, 0, 0, time.UTC),
		Email:         "ada@example.edu",
		Phone:         "555-0100",
		Address:       "12 Analytical Way",
	}
}

func TestStudentAggregate_Register(t *testing.T) {
	aggID := uuid.New()
	a := aggregate.NewStudentAggregateEmpty()

	a.Apply(context.Background(), registeredEvent(aggID, 1))

	assert.Equal(t, model.LifecycleActive, a.State)
	assert.Equal(t, aggID, a.ID())
	assert.Equal(t, "Ada Lovelace", a.Student.Name)
	assert.Equal(t, "S-1001", a.Student.StudentNumber)
	assert.Equal(t, 1, a.Version())
	assert.Nil(t, a.Student.ClassID)
}

func TestStudentAggregate_PartialUpdatePreservesUnsetFields(t *testing.T) {
	aggID := uuid.New()
	a := aggregate.NewStudentAggregateEmpty()
	a.Apply(context.Background(), registeredEvent(aggID, 1))

	newEmail := "lovelace@example.edu"
	a.Apply(context.Background(), &event.StudentUpdated{
		BaseEvent: baseEvent(aggID, 2),
		Email:     &newEmail,
	})

	assert.Equal(t, "lovelace@example.edu", a.Student.Email)
	assert.Equal(t, "Ada Lovelace", a.Student.Name, "unset fields must keep their values")
	assert.Equal(t, "555-0100", a.Student.Phone)
	assert.Equal(t, 2, a.Version())
}

func TestStudentAggregate_UpdateCanClearField(t *testing.T) {
	aggID := uuid.New()
	a := aggregate.NewStudentAggregateEmpty()
	a.Apply(context.Background(), registeredEvent(aggID, 1))

	empty := ""
	a.Apply(context.Background(), &event.StudentUpdated{
		BaseEvent: baseEvent(aggID, 2),
		Phone:     &empty,
	})

	assert.Equal(t, "", a.Student.Phone, "pointer to empty string clears the field")
	assert.Equal(t, "ada@example.edu", a.Student.Email)
}

func TestStudentAggregate_EventsBeforeRegistrationAreNoOps(t *testing.T) {
	aggID := uuid.New()
	a := aggregate.NewStudentAggregateEmpty()

	name := "Ghost"
	a.Apply(context.Background(), &event.StudentUpdated{
		BaseEvent: baseEvent(aggID, 1),
		Name:      &name,
	})

	assert.Equal(t, model.LifecycleEmpty, a.State, "update on empty stream leaves state empty")
	assert.Equal(t, "", a.Student.Name)
	assert.Equal(t, 1, a.Version(), "version still advances for swallowed events")
}

func TestStudentAggregate_DeleteKeepsFieldsAsSnapshot(t *testing.T) {
	aggID := uuid.New()
	a := aggregate.NewStudentAggregateEmpty()
	a.Apply(context.Background(), registeredEvent(aggID, 1))
	a.Apply(context.Background(), &event.StudentDeleted{BaseEvent: baseEvent(aggID, 2)})

	assert.Equal(t, model.LifecycleDeleted, a.State)
	assert.Equal(t, "Ada Lovelace", a.Student.Name, "deleted state keeps fields verbatim")

	// Further updates against the deleted aggregate are swallowed.
	name := "Changed"
	a.Apply(context.Background(), &event.StudentUpdated{
		BaseEvent: baseEvent(aggID, 3),
		Name:      &name,
	})
	assert.Equal(t, "Ada Lovelace", a.Student.Name)
	assert.Equal(t, model.LifecycleDeleted, a.State)
	assert.Equal(t, 3, a.Version())
}

func TestStudentAggregate_ClassAssignmentRoundTrip(t *testing.T) {
	aggID := uuid.New()
	classID := uuid.New()
	a := aggregate.NewStudentAggregateEmpty()
	a.Apply(context.Background(), registeredEvent(aggID, 1))

	a.Apply(context.Background(), &event.StudentAssignedToClass{
		BaseEvent: baseEvent(aggID, 2),
		ClassID:   classID,
	})
	require.NotNil(t, a.Student.ClassID)
	assert.Equal(t, classID, *a.Student.ClassID)

	// Removing a different class is a no-op on the pointer.
	a.Apply(context.Background(), &event.StudentRemovedFromClass{
		BaseEvent: baseEvent(aggID, 3),
		ClassID:   uuid.New(),
	})
	require.NotNil(t, a.Student.ClassID)
	assert.Equal(t, classID, *a.Student.ClassID)

	// Removing the matching class clears it.
	a.Apply(context.Background(), &event.StudentRemovedFromClass{
		BaseEvent: baseEvent(aggID, 4),
		ClassID:   classID,
	})
	assert.Nil(t, a.Student.ClassID)
	assert.Equal(t, 4, a.Version(), "assign+remove advances the version by two")
}

func TestStudentAggregate_ReplayIsDeterministic(t *testing.T) {
	aggID := uuid.New()
	classID := uuid.New()
	email := "new@example.edu"
	history := []eventsrc.Event{
		registeredEvent(aggID, 1),
		&event.StudentUpdated{BaseEvent: baseEvent(aggID, 2), Email: &email},
		&event.StudentAssignedToClass{BaseEvent: baseEvent(aggID, 3), ClassID: classID},
		&event.StudentRemovedFromClass{BaseEvent: baseEvent(aggID, 4), ClassID: classID},
	}

	first := aggregate.NewStudentAggregateEmpty()
	first.LoadFromHistory(context.Background(), history)
	second := aggregate.NewStudentAggregateEmpty()
	second.LoadFromHistory(context.Background(), history)

	assert.Equal(t, first.State, second.State)
	assert.Equal(t, first.Student, second.Student)
	assert.Equal(t, first.Version(), second.Version())
}

func TestStudentAggregate_SnapshotRoundTrip(t *testing.T) {
	aggID := uuid.New()
	a := aggregate.NewStudentAggregateEmpty()
	a.Apply(context.Background(), registeredEvent(aggID, 1))

	data, err := json.Marshal(a)
	require.NoError(t, err)

	restored := aggregate.NewStudentAggregateEmpty()
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, a.State, restored.State)
	assert.Equal(t, a.Student, restored.Student)
	assert.Equal(t, aggID, restored.ID())
}

func TestStudentAggregate_TrackChangeRejectsInvalidActiveState(t *testing.T) {
	aggID := uuid.New()
	a := aggregate.NewStudentAggregateEmpty()

	evt := registeredEvent(aggID, 1)
	evt.Name = ""

	err := a.TrackChange(context.Background(), evt)
	assert.Error(t, err, "an active student without a name must fail validation")
}
