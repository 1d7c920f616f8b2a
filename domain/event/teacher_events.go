package event

import (
	"github.com/google/uuid"

	"github.com/0m3kk/registrar/eventsrc"
)

const (
	TeacherRegisteredEventType    = "TeacherRegistered"
	TeacherUpdatedEventType       = "TeacherUpdated"
	TeacherDeletedEventType       = "TeacherDeleted"
	TeacherClassAssignedEventType = "TeacherClassAssigned"
	TeacherClassRemovedEventType  = "TeacherClassRemoved"
)

// TeacherRegistered is emitted once per teacher. TeacherNumber is the
// immutable business key.
type TeacherRegistered struct {
	eventsrc.BaseEvent
	Name          string `json:"name"`
	TeacherNumber string `json:"teacher_number"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Subject       string `json:"subject"`
}

func (e TeacherRegistered) EventType() string { return TeacherRegisteredEventType }

// TeacherUpdated carries only the fields that changed; nil means unchanged.
type TeacherUpdated struct {
	eventsrc.BaseEvent
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Subject *string `json:"subject,omitempty"`
}

func (e TeacherUpdated) EventType() string { return TeacherUpdatedEventType }

// TeacherDeleted moves the aggregate to its deleted state, keeping all
// fields as a snapshot.
type TeacherDeleted struct {
	eventsrc.BaseEvent
}

func (e TeacherDeleted) EventType() string { return TeacherDeletedEventType }

// TeacherClassAssigned adds a class to the teacher's class set. Applying the
// same assignment twice leaves a single entry.
type TeacherClassAssigned struct {
	eventsrc.BaseEvent
	ClassID uuid.UUID `json:"class_id"`
}

func (e TeacherClassAssigned) EventType() string { return TeacherClassAssignedEventType }

// TeacherClassRemoved filters a class out of the teacher's class set.
// Removing an absent class is a no-op.
type TeacherClassRemoved struct {
	eventsrc.BaseEvent
	ClassID uuid.UUID `json:"class_id"`
}

func (e TeacherClassRemoved) EventType() string { return TeacherClassRemovedEventType }

func init() {
	eventsrc.RegisterEvent(TeacherRegisteredEventType, func() eventsrc.Event { return &TeacherRegistered{} })
	eventsrc.RegisterEvent(TeacherUpdatedEventType, func() eventsrc.Event { return &TeacherUpdated{} })
	eventsrc.RegisterEvent(TeacherDeletedEventType, func() eventsrc.Event { return &TeacherDeleted{} })
	eventsrc.RegisterEvent(TeacherClassAssignedEventType, func() eventsrc.Event { return &TeacherClassAssigned{} })
	eventsrc.RegisterEvent(TeacherClassRemovedEventType, func() eventsrc.Event { return &TeacherClassRemoved{} })
}
