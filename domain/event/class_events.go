package event

import (
	"github.com/google/uuid"

	"github.com/0m3kk/registrar/eventsrc"
)

const (
	ClassCreatedEventType         = "ClassCreated"
	ClassUpdatedEventType         = "ClassUpdated"
	ClassDeletedEventType         = "ClassDeleted"
	ClassStudentAddedEventType    = "ClassStudentAdded"
	ClassStudentRemovedEventType  = "ClassStudentRemoved"
	ClassTeacherAssignedEventType = "ClassTeacherAssigned"
	ClassTeacherRemovedEventType  = "ClassTeacherRemoved"
)

// ClassCreated is emitted once per class. Code is the immutable business key.
type ClassCreated struct {
	eventsrc.BaseEvent
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e ClassCreated) EventType() string { return ClassCreatedEventType }

// ClassUpdated carries only the fields that changed; nil means unchanged.
type ClassUpdated struct {
	eventsrc.BaseEvent
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (e ClassUpdated) EventType() string { return ClassUpdatedEventType }

// ClassDeleted moves the aggregate to its deleted state, keeping all fields
// as a snapshot.
type ClassDeleted struct {
	eventsrc.BaseEvent
}

func (e ClassDeleted) EventType() string { return ClassDeletedEventType }

// ClassStudentAdded appends a student to the roster if not already present.
type ClassStudentAdded struct {
	eventsrc.BaseEvent
	StudentID uuid.UUID `json:"student_id"`
}

func (e ClassStudentAdded) EventType() string { return ClassStudentAddedEventType }

// ClassStudentRemoved filters a student out of the roster; removing an
// absent student is a no-op.
type ClassStudentRemoved struct {
	eventsrc.BaseEvent
	StudentID uuid.UUID `json:"student_id"`
}

func (e ClassStudentRemoved) EventType() string { return ClassStudentRemovedEventType }

// ClassTeacherAssigned sets the class's teacher pointer. Assigning over an
// existing teacher overwrites the pointer (last writer wins within the
// single-writer stream).
type ClassTeacherAssigned struct {
	eventsrc.BaseEvent
	TeacherID uuid.UUID `json:"teacher_id"`
}

func (e ClassTeacherAssigned) EventType() string { return ClassTeacherAssignedEventType }

// ClassTeacherRemoved clears the class's teacher pointer. TeacherID records
// which teacher was removed for audit purposes; the pointer is cleared
// regardless.
type ClassTeacherRemoved struct {
	eventsrc.BaseEvent
	TeacherID uuid.UUID `json:"teacher_id"`
}

func (e ClassTeacherRemoved) EventType() string { return ClassTeacherRemovedEventType }

func init() {
	eventsrc.RegisterEvent(ClassCreatedEventType, func() eventsrc.Event { return &ClassCreated{} })
	eventsrc.RegisterEvent(ClassUpdatedEventType, func() eventsrc.Event { return &ClassUpdated{} })
	eventsrc.RegisterEvent(ClassDeletedEventType, func() eventsrc.Event { return &ClassDeleted{} })
	eventsrc.RegisterEvent(ClassStudentAddedEventType, func() eventsrc.Event { return &ClassStudentAdded{} })
	eventsrc.RegisterEvent(ClassStudentRemovedEventType, func() eventsrc.Event { return &ClassStudentRemoved{} })
	eventsrc.RegisterEvent(ClassTeacherAssignedEventType, func() eventsrc.Event { return &ClassTeacherAssigned{} })
	eventsrc.RegisterEvent(ClassTeacherRemovedEventType, func() eventsrc.Event { return &ClassTeacherRemoved{} })
}
