package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Student is the state of a student aggregate. StudentNumber is the
// externally visible business key; it is set once at registration and never
// mutated by update events. ClassID is an independent pointer into the class
// aggregate: the class keeps its own roster and the two are only eventually
// consistent (see workflow.Enrollment).
type Student struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	StudentNumber string     `json:"student_number"`
	DateOfBirth   time.Time  `json:"date_of_birth"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Address       string     `json:"address"`
	ClassID       *uuid.UUID `json:"class_id,omitempty"`
}

func (s Student) Validate() error {
	if s.Name == "" {
		return errors.New("student name cannot be empty")
	}
	if s.StudentNumber == "" {
		return errors.New("student number cannot be empty")
	}
	return nil
}
