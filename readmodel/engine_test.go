package readmodel_test

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
	"github.com/0m3kk/registrar/readmodel"
)

// stubSource serves a canned event log per aggregate type.
type stubSource struct {
	events map[eventsrc.AggregateType][]eventsrc.Event
}

func (s *stubSource) ReadAllByType(
	ctx context.Context,
	aggType eventsrc.AggregateType,
) ([]eventsrc.Event, error) {
	return s.events[aggType], nil
}

func (s *stubSource) append(aggType eventsrc.AggregateType, evts ...eventsrc.Event) {
	if s.events == nil {
		s.events = make(map[eventsrc.AggregateType][]eventsrc.Event)
	}
	s.events[aggType] = append(s.events[aggType], evts...)
}

func be(aggType eventsrc.AggregateType, aggID uuid.UUID, version int) eventsrc.BaseEvent {
	return eventsrc.BaseEvent{
		ID:      uuid.New(),
		AggID:   aggID,
		AggType: aggType,
		Ver:     version,
		Ts:      time.Now().UTC(),
	}
}

func addStudent(src *stubSource, name, number string) uuid.UUID {
	id := uuid.New()
	src.append(aggregate.StudentAggregateType, &event.StudentRegistered{
		BaseEvent:     be(aggregate.StudentAggregateType, id, 1),
		Name:          name,
		StudentNumber: number,
		Email:         name + "@example.edu",
	})
	return id
}

func addTeacher(src *stubSource, name, number, subject string) uuid.UUID {
	id := uuid.New()
	src.append(aggregate.TeacherAggregateType, &event.TeacherRegistered{
		BaseEvent:     be(aggregate.TeacherAggregateType, id, 1),
		Name:          name,
		TeacherNumber: number,
		Subject:       subject,
	})
	return id
}

func addClass(src *stubSource, name, code string) uuid.UUID {
	id := uuid.New()
	src.append(aggregate.ClassAggregateType, &event.ClassCreated{
		BaseEvent: be(aggregate.ClassAggregateType, id, 1),
		Name:      name,
		Code:      code,
	})
	return id
}

func TestEngine_StudentNumberExistsIsCaseSensitive(t *testing.T) {
	src := &stubSource{}
	addStudent(src, "Ada", "S-1001")
	engine := readmodel.NewEngine(src)

	exists, err := engine.StudentNumberExists(context.Background(), "S-1001")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = engine.StudentNumberExists(context.Background(), "s-1001")
	require.NoError(t, err)
	assert.False(t, exists, "business key comparison is exact, not case-folded")
}

func TestEngine_DeletedStudentFreesBusinessKey(t *testing.T) {
	src := &stubSource{}
	id := addStudent(src, "Ada", "S-1001")
	src.append(aggregate.StudentAggregateType, &event.StudentDeleted{
		BaseEvent: be(aggregate.StudentAggregateType, id, 2),
	})
	engine := readmodel.NewEngine(src)

	exists, err := engine.StudentNumberExists(context.Background(), "S-1001")
	require.NoError(t, err)
	assert.False(t, exists, "only active students count for existence")
}

func TestEngine_ListStudentsSortedAndFiltered(t *testing.T) {
	src := &stubSource{}
	addStudent(src, "Charlie", "S-3")
	addStudent(src, "Ada", "S-1")
	addStudent(src, "Bella", "S-2")
	engine := readmodel.NewEngine(src)

	students, err := engine.ListStudents(context.Background(), readmodel.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, "Ada", students[0].Name)
	assert.Equal(t, "Bella", students[1].Name)
	assert.Equal(t, "Charlie", students[2].Name)

	// Filters are case-insensitive substring matches.
	students, err = engine.ListStudents(context.Background(), readmodel.StudentFilter{Name: "bell"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Bella", students[0].Name)
}

func TestEngine_EmptyListIsNotAnError(t *testing.T) {
	engine := readmodel.NewEngine(&stubSource{})

	students, err := engine.ListStudents(context.Background(), readmodel.StudentFilter{})
	require.NoError(t, err)
	assert.Empty(t, students)

	classes, err := engine.ListClasses(context.Background(), readmodel.ClassFilter{Name: "nope"})
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestEngine_StudentByIDIncludesDeleted(t *testing.T) {
	src := &stubSource{}
	id := addStudent(src, "Ada", "S-1001")
	src.append(aggregate.StudentAggregateType, &event.StudentDeleted{
		BaseEvent: be(aggregate.StudentAggregateType, id, 2),
	})
	engine := readmodel.NewEngine(src)

	record, err := engine.StudentByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleDeleted, record.State)
	assert.Equal(t, "Ada", record.Name, "deleted record keeps its snapshot fields")
	assert.Equal(t, 2, record.Version)
}

func TestEngine_PointLookupReturnsTypedNotFound(t *testing.T) {
	engine := readmodel.NewEngine(&stubSource{})

	missing := uuid.New()
	_, err := engine.StudentByID(context.Background(), missing)
	require.Error(t, err)

	var notFound readmodel.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "student", notFound.Entity)
	assert.Equal(t, missing, notFound.ID)
}

func TestEngine_RelationshipQueries(t *testing.T) {
	src := &stubSource{}
	classID := addClass(src, "Algebra I", "MATH-101")
	otherClass := addClass(src, "Biology", "BIO-101")

	ada := addStudent(src, "Ada", "S-1")
	addStudent(src, "Bella", "S-2") // never assigned
	src.append(aggregate.StudentAggregateType, &event.StudentAssignedToClass{
		BaseEvent: be(aggregate.StudentAggregateType, ada, 2),
		ClassID:   classID,
	})

	grace := addTeacher(src, "Grace", "T-1", "Mathematics")
	src.append(aggregate.TeacherAggregateType, &event.TeacherClassAssigned{
		BaseEvent: be(aggregate.TeacherAggregateType, grace, 2),
		ClassID:   classID,
	})
	src.append(aggregate.ClassAggregateType, &event.ClassTeacherAssigned{
		BaseEvent: be(aggregate.ClassAggregateType, classID, 2),
		TeacherID: grace,
	})

	engine := readmodel.NewEngine(src)

	students, err := engine.StudentsByClass(context.Background(), classID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ada", students[0].Name)

	teachers, err := engine.TeachersByClass(context.Background(), classID)
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Grace", teachers[0].Name)

	classes, err := engine.ClassesByTeacher(context.Background(), grace)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Algebra I", classes[0].Name)

	none, err := engine.StudentsByClass(context.Background(), otherClass)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEngine_ReadsAreFreshAfterAppend(t *testing.T) {
	src := &stubSource{}
	engine := readmodel.NewEngine(src)

	exists, err := engine.ClassCodeExists(context.Background(), "MATH-101")
	require.NoError(t, err)
	require.False(t, exists)

	addClass(src, "Algebra I", "MATH-101")

	exists, err = engine.ClassCodeExists(context.Background(), "MATH-101")
	require.NoError(t, err)
	assert.True(t, exists, "the engine folds the log on every call, so new events are visible immediately")
}
