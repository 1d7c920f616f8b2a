// Package views holds the denormalized read models maintained by the
// event subscribers. They are a cache over the event store: queries that
// need strong consistency go through the readmodel replay engine instead.
package views

import (
	"time"

	"github.com/google/uuid"
)

type StudentView struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	StudentNumber string     `json:"student_number"`
	Email         string     `json:"email"`
	ClassID       *uuid.UUID `json:"class_id,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int        `json:"-"`
}

type TeacherView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	TeacherNumber string    `json:"teacher_number"`
	Subject       string    `json:"subject"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"-"`
}

type ClassView struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Code         string     `json:"code"`
	TeacherID    *uuid.UUID `json:"teacher_id,omitempty"`
	StudentCount int        `json:"student_count"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Version      int        `json:"-"`
}
