package aggregate

import (
	"context"
	"encoding/json"

	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/domain/model"
	"github.com/0m3kk/registrar/eventsrc"
)

const ClassAggregateType eventsrc.AggregateType = "classes"

// ClassAggregate is the event-sourced root for a single class.
type ClassAggregate struct {
	*eventsrc.AggregateRoot
	State model.Lifecycle
	Class model.Class
}

// NewClassAggregateEmpty is a factory for creating a new, empty
// ClassAggregate.
func NewClassAggregateEmpty() *ClassAggregate {
	a := &ClassAggregate{}
	a.AggregateRoot = eventsrc.NewAggregateRoot(ClassAggregateType, a.Apply, a.Validate)
	return a
}

type classSnapshot struct {
	ID    string          `json:"id"`
	State model.Lifecycle `json:"state"`
	Class model.Class     `json:"class"`
}

// MarshalJSON implements the json.Marshaler interface for creating snapshots.
func (a *ClassAggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(classSnapshot{
		ID:    a.ID().String(),
		State: a.State,
		Class: a.Class,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface for restoring from snapshots.
func (a *ClassAggregate) UnmarshalJSON(data []byte) error {
	a.AggregateRoot = eventsrc.NewAggregateRoot(ClassAggregateType, a.Apply, a.Validate)

	var snap classSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	a.State = snap.State
	a.Class = snap.Class
	a.SetID(a.Class.ID)
	return nil
}

// Validate checks if the aggregate's current state is consistent.
func (a *ClassAggregate) Validate() error {
	if a.State != model.LifecycleActive {
		return nil
	}
	return a.Class.Validate()
}

// Apply changes the state of the aggregate based on an event. Unmatched
// (state, event) pairs leave the state untouched.
func (a *ClassAggregate) Apply(ctx context.Context, evt eventsrc.Event) {
	switch e := evt.(type) {
	case *event.ClassCreated:
		a.onCreated(e)
	case *event.ClassUpdated:
		a.onUpdated(e)
	case *event.ClassDeleted:
		a.onDeleted(e)
	case *event.ClassStudentAdded:
		a.onStudentAdded(e)
	case *event.ClassStudentRemoved:
		a.onStudentRemoved(e)
	case *event.ClassTeacherAssigned:
		a.onTeacherAssigned(e)
	case *event.ClassTeacherRemoved:
		a.onTeacherRemoved(e)
	default:
		// Unknown event for this aggregate: state unchanged.
	}
	a.SetVersion(evt.Version())
}

func (a *ClassAggregate) onCreated(evt *event.ClassCreated) {
	if a.State != model.LifecycleEmpty {
		return
	}
	a.SetID(evt.AggregateID())
	a.State = model.LifecycleActive
	a.Class = model.Class{
		ID:          evt.AggregateID(),
		Name:        evt.Name,
		Code:        evt.Code,
		Description: evt.Description,
	}
}

func (a *ClassAggregate) onUpdated(evt *event.ClassUpdated) {
	if a.State != model.LifecycleActive {
		return
	}
	if evt.Name != nil {
		a.Class.Name = *evt.Name
	}
	if evt.Description != nil {
		a.Class.Description = *evt.Description
	}
}

func (a *ClassAggregate) onDeleted(evt *event.ClassDeleted) {
	if a.State != model.LifecycleActive {
		return
	}
	a.State = model.LifecycleDeleted
}

func (a *ClassAggregate) onStudentAdded(evt *event.ClassStudentAdded) {
	if a.State != model.LifecycleActive {
		return
	}
	// Idempotent add: applying the same event twice keeps one roster entry.
	if a.Class.HasStudent(evt.StudentID) {
		return
	}
	a.Class.StudentIDs = append(a.Class.StudentIDs, evt.StudentID)
}

func (a *ClassAggregate) onStudentRemoved(evt *event.ClassStudentRemoved) {
	if a.State != model.LifecycleActive {
		return
	}
	kept := a.Class.StudentIDs[:0]
	for _, id := range a.Class.StudentIDs {
		if id != evt.StudentID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		a.Class.StudentIDs = nil
		return
	}
	a.Class.StudentIDs = kept
}

func (a *ClassAggregate) onTeacherAssigned(evt *event.ClassTeacherAssigned) {
	if a.State != model.LifecycleActive {
		return
	}
	teacherID := evt.TeacherID
	a.Class.TeacherID = &teacherID
}

func (a *ClassAggregate) onTeacherRemoved(evt *event.ClassTeacherRemoved) {
	if a.State != model.LifecycleActive {
		return
	}
	a.Class.TeacherID = nil
}
