package aggregate

import (
	"context"
	"encoding/json"

	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/domain/model"
	"github.com/0m3kk/registrar/eventsrc"
)

const TeacherAggregateType eventsrc.AggregateType = "teachers"

// TeacherAggregate is the event-sourced root for a single teacher.
type TeacherAggregate struct {
	*eventsrc.AggregateRoot
	State   model.Lifecycle
	Teacher model.Teacher
}

// NewTeacherAggregateEmpty is a factory for creating a new, empty
// TeacherAggregate.
func NewTeacherAggregateEmpty() *TeacherAggregate {
	a := &TeacherAggregate{}
	a.AggregateRoot = eventsrc.NewAggregateRoot(TeacherAggregateType, a.Apply, a.Validate)
	return a
}

type teacherSnapshot struct {
	ID      string          `json:"id"`
	State   model.Lifecycle `json:"state"`
	Teacher model.Teacher   `json:"teacher"`
}

// MarshalJSON implements the json.Marshaler interface for creating snapshots.
func (a *TeacherAggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(teacherSnapshot{
		ID:      a.ID().String(),
		State:   a.State,
		Teacher: a.Teacher,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface for restoring from snapshots.
func (a *TeacherAggregate) UnmarshalJSON(data []byte) error {
	a.AggregateRoot = eventsrc.NewAggregateRoot(TeacherAggregateType, a.Apply, a.Validate)

	var snap teacherSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	a.State = snap.State
	a.Teacher = snap.Teacher
	a.SetID(a.Teacher.ID)
	return nil
}

// Validate checks if the aggregate's current state is consistent.
func (a *TeacherAggregate) Validate() error {
	if a.State != model.LifecycleActive {
		return nil
	}
	return a.Teacher.Validate()
}

// Apply changes the state of the aggregate based on an event. Unmatched
// (state, event) pairs leave the state untouched.
func (a *TeacherAggregate) Apply(ctx context.Context, evt eventsrc.Event) {
	switch e := evt.(type) {
	case *event.TeacherRegistered:
		a.onRegistered(e)
	case *event.TeacherUpdated:
		a.onUpdated(e)
	case *event.TeacherDeleted:
		a.onDeleted(e)
	case *event.TeacherClassAssigned:
		a.onClassAssigned(e)
	case *event.TeacherClassRemoved:
		a.onClassRemoved(e)
	default:
		// Unknown event for this aggregate: state unchanged.
	}
	a.SetVersion(evt.Version())
}

func (a *TeacherAggregate) onRegistered(evt *event.TeacherRegistered) {
	if a.State != model.LifecycleEmpty {
		return
	}
	a.SetID(evt.AggregateID())
	a.State = model.LifecycleActive
	a.Teacher = model.Teacher{
		ID:            evt.AggregateID(),
		Name:          evt.Name,
		TeacherNumber: evt.TeacherNumber,
		Email:         evt.Email,
		Phone:         evt.Phone,
		Address:       evt.Address,
		Subject:       evt.Subject,
	}
}

func (a *TeacherAggregate) onUpdated(evt *event.TeacherUpdated) {
	if a.State != model.LifecycleActive {
		return
	}
	if evt.Name != nil {
		a.Teacher.Name = *evt.Name
	}
	if evt.Email != nil {
		a.Teacher.Email = *evt.Email
	}
	if evt.Phone != nil {
		a.Teacher.Phone = *evt.Phone
	}
	if evt.Address != nil {
		a.Teacher.Address = *evt.Address
	}
	if evt.Subject != nil {
		a.Teacher.Subject = *evt.Subject
	}
}

func (a *TeacherAggregate) onDeleted(evt *event.TeacherDeleted) {
	if a.State != model.LifecycleActive {
		return
	}
	a.State = model.LifecycleDeleted
}

func (a *TeacherAggregate) onClassAssigned(evt *event.TeacherClassAssigned) {
	if a.State != model.LifecycleActive {
		return
	}
	// Idempotent add: applying the same assignment twice keeps one entry.
	if a.Teacher.HasClass(evt.ClassID) {
		return
	}
	a.Teacher.ClassIDs = append(a.Teacher.ClassIDs, evt.ClassID)
}

func (a *TeacherAggregate) onClassRemoved(evt *event.TeacherClassRemoved) {
	if a.State != model.LifecycleActive {
		return
	}
	kept := a.Teacher.ClassIDs[:0]
	for _, id := range a.Teacher.ClassIDs {
		if id != evt.ClassID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		a.Teacher.ClassIDs = nil
		return
	}
	a.Teacher.ClassIDs = kept
}
