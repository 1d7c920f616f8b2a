package aggregate_test

import (
	"context"
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

func classBaseEvent(aggID uuid.UUID, version int) eventsrc.BaseEvent {
	return eventsrc.BaseEvent{
		ID:      uuid.New(),
		AggID:   aggID,
		AggType: aggregate.ClassAggregateType,
		Ver:     version,
		Ts:      time.Now().UTC(),
	}
}

func classCreatedEvent(aggID uuid.UUID, version int) *event.ClassCreated {
	return &event.ClassCreated{
		BaseEvent:   classBaseEvent(aggID, version),
		Name:        "Algebra I",
		Code:        "MATH-101",
		Description: "Introductory algebra",
	}
}

func TestClassAggregate_Create(t *testing.T) {
	aggID := uuid.New()
	a := aggregate.NewClassAggregateEmpty()

	a.Apply(context.Background(), classCreatedEvent(aggID, 1))

	assert.Equal(t, model.LifecycleActive, a.State)
	assert.Equal(t, "MATH-101", a.Class.Code)
	assert.Nil(t, a.Class.TeacherID)
	assert.Empty(t, a.Class.StudentIDs)
}

func TestClassAggregate_RosterAddIsIdempotent(t *testing.T) {
	aggID := uuid.New()
	studentID := uuid.New()
	a := aggregate.NewClassAggregateEmpty()
	a.Apply(context.Background(), classCreatedEvent(aggID, 1))

	a.Apply(context.Background(), &event.ClassStudentAdded{BaseEvent: classBaseEvent(aggID, 2), StudentID: studentID})
	a.Apply(context.Background(), &event.ClassStudentAdded{BaseEvent: classBaseEvent(aggID, 3), StudentID: studentID})

	assert.Len(t, a.Class.StudentIDs, 1, "adding the same student twice keeps one roster entry")
	assert.True(t, a.Class.HasStudent(studentID))
}

func TestClassAggregate_RosterRemove(t *testing.T) {
	aggID := uuid.New()
	studentA := uuid.New()
	studentB := uuid.New()
	a := aggregate.NewClassAggregateEmpty()
	a.Apply(context.Background(), classCreatedEvent(aggID, 1))
	a.Apply(context.Background(), &event.ClassStudentAdded{BaseEvent: classBaseEvent(aggID, 2), StudentID: studentA})
	a.Apply(context.Background(), &event.ClassStudentAdded{BaseEvent: classBaseEvent(aggID, 3), StudentID: studentB})

	// Removing an absent student is a no-op.
	a.Apply(context.Background(), &event.ClassStudentRemoved{BaseEvent: classBaseEvent(aggID, 4), StudentID: uuid.New()})
	assert.Len(t, a.Class.StudentIDs, 2)

	a.Apply(context.Background(), &event.ClassStudentRemoved{BaseEvent: classBaseEvent(aggID, 5), StudentID: studentA})
	assert.False(t, a.Class.HasStudent(studentA))
	assert.True(t, a.Class.HasStudent(studentB))
}

func TestClassAggregate_TeacherAssignmentOverwrites(t *testing.T) {
	aggID := uuid.New()
	teacherA := uuid.New()
	teacherB := uuid.New()
	a := aggregate.NewClassAggregateEmpty()
	a.Apply(context.Background(), classCreatedEvent(aggID, 1))

	a.Apply(context.Background(), &event.ClassTeacherAssigned{BaseEvent: classBaseEvent(aggID, 2), TeacherID: teacherA})
	require.NotNil(t, a.Class.TeacherID)
	assert.Equal(t, teacherA, *a.Class.TeacherID)

	// Assigning over an existing teacher overwrites: last writer wins.
	a.Apply(context.Background(), &event.ClassTeacherAssigned{BaseEvent: classBaseEvent(aggID, 3), TeacherID: teacherB})
	require.NotNil(t, a.Class.TeacherID)
	assert.Equal(t, teacherB, *a.Class.TeacherID)

	a.Apply(context.Background(), &event.ClassTeacherRemoved{BaseEvent: classBaseEvent(aggID, 4), TeacherID: teacherB})
	assert.Nil(t, a.Class.TeacherID)
}

func TestClassAggregate_PartialUpdate(t *testing.T) {
	aggID := uuid.New()
	a := aggregate.NewClassAggregateEmpty()
	a.Apply(context.Background(), classCreatedEvent(aggID, 1))

	desc := "Covers linear equations"
	a.Apply(context.Background(), &event.ClassUpdated{
		BaseEvent:   classBaseEvent(aggID, 2),
		Description: &desc,
	})

	assert.Equal(t, "Covers linear equations", a.Class.Description)
	assert.Equal(t, "Algebra I", a.Class.Name)
	assert.Equal(t, "MATH-101", a.Class.Code, "the business key never changes after creation")
}

func TestClassAggregate_DeleteKeepsRosterSnapshot(t *testing.T) {
	aggID := uuid.New()
	studentID := uuid.New()
	a := aggregate.NewClassAggregateEmpty()
	a.Apply(context.Background(), classCreatedEvent(aggID, 1))
	a.Apply(context.Background(), &event.ClassStudentAdded{BaseEvent: classBaseEvent(aggID, 2), StudentID: studentID})
	a.Apply(context.Background(), &event.ClassDeleted{BaseEvent: classBaseEvent(aggID, 3)})

	assert.Equal(t, model.LifecycleDeleted, a.State)
	assert.True(t, a.Class.HasStudent(studentID), "deleted state keeps the roster verbatim")

	// Roster changes after deletion are swallowed.
	a.Apply(context.Background(), &event.ClassStudentRemoved{BaseEvent: classBaseEvent(aggID, 4), StudentID: studentID})
	assert.True(t, a.Class.HasStudent(studentID))
}
