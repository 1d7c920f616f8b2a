package aggregate

import (
	"context"
	"encoding/json"

	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/domain/model"
	"github.com/0m3kk/registrar/eventsrc"
)

const StudentAggregateType eventsrc.AggregateType = "students"

// StudentAggregate is the event-sourced root for a single student. It embeds
// the base eventsrc.AggregateRoot for event tracking and holds its own state
// directly.
type StudentAggregate struct {
	*eventsrc.AggregateRoot
	State   model.Lifecycle
	Student model.Student
}

// NewStudentAggregateEmpty is a factory for creating a new, empty
// StudentAggregate. It's used by the repository to create the aggregate
// before loading its history.
func NewStudentAggregateEmpty() *StudentAggregate {
	a := &StudentAggregate{}
	a.AggregateRoot = eventsrc.NewAggregateRoot(StudentAggregateType, a.Apply, a.Validate)
	return a
}

type studentSnapshot struct {
	ID      string          `json:"id"`
	State   model.Lifecycle `json:"state"`
	Student model.Student   `json:"student"`
}

// MarshalJSON implements the json.Marshaler interface for creating snapshots.
func (a *StudentAggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(studentSnapshot{
		ID:      a.ID().String(),
		State:   a.State,
		Student: a.Student,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface for restoring from snapshots.
func (a *StudentAggregate) UnmarshalJSON(data []byte) error {
	// Re-initialize the AggregateRoot with its methods before unmarshaling.
	a.AggregateRoot = eventsrc.NewAggregateRoot(StudentAggregateType, a.Apply, a.Validate)

	var snap studentSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	a.State = snap.State
	a.Student = snap.Student
	a.SetID(a.Student.ID)
	return nil
}

// Validate checks if the aggregate's current state is consistent. Empty and
// deleted aggregates are always valid: historical permissiveness means
// events may target them and must not be rejected.
func (a *StudentAggregate) Validate() error {
	if a.State != model.LifecycleActive {
		return nil
	}
	return a.Student.Validate()
}

// Apply changes the state of the aggregate based on an event. It is total:
// an event that does not match the current lifecycle leaves the state
// untouched. That default keeps replays deterministic under duplicate or
// out-of-place events, at the cost of silently swallowing invalid
// transitions.
func (a *StudentAggregate) Apply(ctx context.Context, evt eventsrc.Event) {
	switch e := evt.(type) {
	case *event.StudentRegistered:
		a.onRegistered(e)
	case *event.StudentUpdated:
		a.onUpdated(e)
	case *event.StudentDeleted:
		a.onDeleted(e)
	case *event.StudentAssignedToClass:
		a.onAssignedToClass(e)
	case *event.StudentRemovedFromClass:
		a.onRemovedFromClass(e)
	default:
		// Unknown event for this aggregate: state unchanged.
	}
	a.SetVersion(evt.Version())
}

func (a *StudentAggregate) onRegistered(evt *event.StudentRegistered) {
	if a.State != model.LifecycleEmpty {
		return
	}
	a.SetID(evt.AggregateID())
	a.State = model.LifecycleActive
	a.Student = model.Student{
		ID:            evt.AggregateID(),
		Name:          evt.Name,
		StudentNumber: evt.StudentNumber,
		DateOfBirth:   evt.DateOfBirth,
		Email:         evt.Email,
		Phone:         evt.Phone,
		Address:       evt.Address,
	}
}

func (a *StudentAggregate) onUpdated(evt *event.StudentUpdated) {
	if a.State != model.LifecycleActive {
		return
	}
	if evt.Name != nil {
		a.Student.Name = *evt.Name
	}
	if evt.DateOfBirth != nil {
		a.Student.DateOfBirth = *evt.DateOfBirth
	}
	if evt.Email != nil {
		a.Student.Email = *evt.Email
	}
	if evt.Phone != nil {
		a.Student.Phone = *evt.Phone
	}
	if evt.Address != nil {
		a.Student.Address = *evt.Address
	}
}

func (a *StudentAggregate) onDeleted(evt *event.StudentDeleted) {
	if a.State != model.LifecycleActive {
		return
	}
	// Keep all fields verbatim: the deleted state is a snapshot, not a
	// tombstone.
	a.State = model.LifecycleDeleted
}

func (a *StudentAggregate) onAssignedToClass(evt *event.StudentAssignedToClass) {
	if a.State != model.LifecycleActive {
		return
	}
	classID := evt.ClassID
	a.Student.ClassID = &classID
}

func (a *StudentAggregate) onRemovedFromClass(evt *event.StudentRemovedFromClass) {
	if a.State != model.LifecycleActive {
		return
	}
	if a.Student.ClassID != nil && *a.Student.ClassID == evt.ClassID {
		a.Student.ClassID = nil
	}
}
