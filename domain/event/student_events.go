package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/0m3kk/registrar/eventsrc"
)

const (
	StudentRegisteredEventType       = "StudentRegistered"
	StudentUpdatedEventType          = "StudentUpdated"
	StudentDeletedEventType          = "StudentDeleted"
	StudentAssignedToClassEventType  = "StudentAssignedToClass"
	StudentRemovedFromClassEventType = "StudentRemovedFromClass"
)

// StudentRegistered is emitted once per student, when the aggregate leaves
// its empty state. StudentNumber is the business key and appears in no other
// student event: it cannot change after registration.
type StudentRegistered struct {
	eventsrc.BaseEvent
	Name          string    `json:"name"`
	StudentNumber string    `json:"student_number"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
}

func (e StudentRegistered) EventType() string { return StudentRegisteredEventType }

// StudentUpdated carries only the fields that changed. A nil field means
// "leave unchanged"; a pointer to the empty string clears the field.
type StudentUpdated struct {
	eventsrc.BaseEvent
	Name        *string    `json:"name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
}

func (e StudentUpdated) EventType() string { return StudentUpdatedEventType }

// StudentDeleted moves the aggregate to its deleted state. The projector
// keeps every field as a snapshot for audit reads.
type StudentDeleted struct {
	eventsrc.BaseEvent
}

func (e StudentDeleted) EventType() string { return StudentDeletedEventType }

// StudentAssignedToClass sets the student's side of the student<->class
// relationship. The class roster is updated by a separate ClassStudentAdded
// event against the class aggregate.
type StudentAssignedToClass struct {
	eventsrc.BaseEvent
	ClassID uuid.UUID `json:"class_id"`
}

func (e StudentAssignedToClass) EventType() string { return StudentAssignedToClassEventType }

// StudentRemovedFromClass clears the student's class pointer when it matches
// the given class. Removing a class the student is not in is a no-op.
type StudentRemovedFromClass struct {
	eventsrc.BaseEvent
	ClassID uuid.UUID `json:"class_id"`
}

func (e StudentRemovedFromClass) EventType() string { return StudentRemovedFromClassEventType }

func init() {
	eventsrc.RegisterEvent(StudentRegisteredEventType, func() eventsrc.Event { return &StudentRegistered{} })
	eventsrc.RegisterEvent(StudentUpdatedEventType, func() eventsrc.Event { return &StudentUpdated{} })
	eventsrc.RegisterEvent(StudentDeletedEventType, func() eventsrc.Event { return &StudentDeleted{} })
	eventsrc.RegisterEvent(StudentAssignedToClassEventType, func() eventsrc.Event { return &StudentAssignedToClass{} })
	eventsrc.RegisterEvent(StudentRemovedFromClassEventType, func() eventsrc.Event { return &StudentRemovedFromClass{} })
}
