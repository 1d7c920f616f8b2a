package model

import (
	"errors"

	"github.com/google/uuid"
)

// Teacher is the state of a teacher aggregate. TeacherNumber is the
// immutable business key. ClassIDs is de-duplicated and kept in insertion
// order so replays are byte-for-byte deterministic.
type Teacher struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	TeacherNumber string      `json:"teacher_number"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	Subject       string      `json:"subject"`
	ClassIDs      []uuid.UUID `json:"class_ids,omitempty"`
}

func (t Teacher) Validate() error {
	if t.Name == "" {
		return errors.New("teacher name cannot be empty")
	}
	if t.TeacherNumber == "" {
		return errors.New("teacher number cannot be empty")
	}
	return nil
}

// HasClass reports whether the teacher already references the class.
func (t Teacher) HasClass(classID uuid.UUID) bool {
	for _, id := range t.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}
