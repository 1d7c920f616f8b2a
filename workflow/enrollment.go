package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/0m3kk/registrar/domain/command"
)

// Enrollment maintains the student<->class and teacher<->class
// relationships by issuing one command against each side. The two appends
// go to different streams and there is no multi-stream atomic append: if
// the second command fails, the first one stands and the pointers disagree
// until a retry. Callers own that retry.
type Enrollment struct {
	assignStudent  *command.AssignStudentToClassHandler
	removeStudent  *command.RemoveStudentFromClassHandler
	addToRoster    *command.AddStudentToClassHandler
	dropFromRoster *command.RemoveStudentFromClassRosterHandler
	assignTeacher  *command.AssignClassToTeacherHandler
	removeTeacher  *command.RemoveClassFromTeacherHandler
	setTeacher     *command.AssignTeacherToClassHandler
	clearTeacher   *command.RemoveTeacherFromClassHandler
}

// NewEnrollment wires the relationship handlers for both sides.
func NewEnrollment(
	assignStudent *command.AssignStudentToClassHandler,
	removeStudent *command.RemoveStudentFromClassHandler,
	addToRoster *command.AddStudentToClassHandler,
	dropFromRoster *command.RemoveStudentFromClassRosterHandler,
	assignTeacher *command.AssignClassToTeacherHandler,
	removeTeacher *command.RemoveClassFromTeacherHandler,
	setTeacher *command.AssignTeacherToClassHandler,
	clearTeacher *command.RemoveTeacherFromClassHandler,
) *Enrollment {
	return &Enrollment{
		assignStudent:  assignStudent,
		removeStudent:  removeStudent,
		addToRoster:    addToRoster,
		dropFromRoster: dropFromRoster,
		assignTeacher:  assignTeacher,
		removeTeacher:  removeTeacher,
		setTeacher:     setTeacher,
		clearTeacher:   clearTeacher,
	}
}

// EnrollStudent points the student at the class and adds the student to the
// class roster, in that order.
func (w *Enrollment) EnrollStudent(ctx context.Context, studentID, classID uuid.UUID) error {
	if _, err := w.assignStudent.Handle(ctx, command.AssignStudentToClass{
		StudentID: studentID,
		ClassID:   classID,
	}); err != nil {
		return fmt.Errorf("assign student side failed: %w", err)
	}
	if _, err := w.addToRoster.Handle(ctx, command.AddStudentToClass{
		ClassID:   classID,
		StudentID: studentID,
	}); err != nil {
		slog.WarnContext(ctx, "Class roster update failed after student was assigned; pointers disagree until retried",
			"studentID", studentID, "classID", classID, "error", err)
		return fmt.Errorf("add to class roster failed: %w", err)
	}
	return nil
}

// WithdrawStudent clears the student's class pointer and drops the student
// from the roster.
func (w *Enrollment) WithdrawStudent(ctx context.Context, studentID, classID uuid.UUID) error {
	if _, err := w.removeStudent.Handle(ctx, command.RemoveStudentFromClass{
		StudentID: studentID,
		ClassID:   classID,
	}); err != nil {
		return fmt.Errorf("remove student side failed: %w", err)
	}
	if _, err := w.dropFromRoster.Handle(ctx, command.RemoveStudentFromClassRoster{
		ClassID:   classID,
		StudentID: studentID,
	}); err != nil {
		slog.WarnContext(ctx, "Class roster update failed after student was removed; pointers disagree until retried",
			"studentID", studentID, "classID", classID, "error", err)
		return fmt.Errorf("remove from class roster failed: %w", err)
	}
	return nil
}

// AssignTeacher adds the class to the teacher's set and points the class at
// the teacher.
func (w *Enrollment) AssignTeacher(ctx context.Context, teacherID, classID uuid.UUID) error {
	if _, err := w.assignTeacher.Handle(ctx, command.AssignClassToTeacher{
		TeacherID: teacherID,
		ClassID:   classID,
	}); err != nil {
		return fmt.Errorf("assign teacher side failed: %w", err)
	}
	if _, err := w.setTeacher.Handle(ctx, command.AssignTeacherToClass{
		ClassID:   classID,
		TeacherID: teacherID,
	}); err != nil {
		slog.WarnContext(ctx, "Class teacher update failed after teacher was assigned; pointers disagree until retried",
			"teacherID", teacherID, "classID", classID, "error", err)
		return fmt.Errorf("set class teacher failed: %w", err)
	}
	return nil
}

// RemoveTeacher drops the class from the teacher's set and clears the
// class's teacher pointer.
func (w *Enrollment) RemoveTeacher(ctx context.Context, teacherID, classID uuid.UUID) error {
	if _, err := w.removeTeacher.Handle(ctx, command.RemoveClassFromTeacher{
		TeacherID: teacherID,
		ClassID:   classID,
	}); err != nil {
		return fmt.Errorf("remove teacher side failed: %w", err)
	}
	if _, err := w.clearTeacher.Handle(ctx, command.RemoveTeacherFromClass{
		ClassID: classID,
	}); err != nil {
		slog.WarnContext(ctx, "Class teacher update failed after teacher was removed; pointers disagree until retried",
			"teacherID", teacherID, "classID", classID, "error", err)
		return fmt.Errorf("clear class teacher failed: %w", err)
	}
	return nil
}
