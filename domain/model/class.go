package model

import (
	"errors"

	"github.com/google/uuid"
)

// Class is the state of a class aggregate. Code is the immutable business
// key. TeacherID and StudentIDs are this aggregate's side of the
// teacher<->class and student<->class relationships; the counterpart
// aggregates hold their own pointers.
type Class struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Code        string      `json:"code"`
	Description string      `json:"description"`
	TeacherID   *uuid.UUID  `json:"teacher_id,omitempty"`
	StudentIDs  []uuid.UUID `json:"student_ids,omitempty"`
}

func (c Class) Validate() error {
	if c.Name == "" {
		return errors.New("class name cannot be empty")
	}
	if c.Code == "" {
		return errors.New("class code cannot be empty")
	}
	return nil
}

// HasStudent reports whether the student is already on the roster.
func (c Class) HasStudent(studentID uuid.UUID) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
