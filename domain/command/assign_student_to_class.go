package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/0m3kk/registrar/cqrs"
	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/domain/repository"
	"github.com/0m3kk/registrar/eventsrc"
)

// AssignStudentToClass sets the student's class pointer. This is the
// student-side half of the relationship; AddStudentToClass updates the
// class roster separately.
type AssignStudentToClass struct {
	StudentID uuid.UUID
	ClassID   uuid.UUID
}

// AssignStudentToClassHandler handles the AssignStudentToClass command.
type AssignStudentToClassHandler struct {
	repo       *repository.StudentRepository
	transactor cqrs.Transactor
}

func NewAssignStudentToClassHandler(
	repo *repository.StudentRepository,
	transactor cqrs.Transactor,
) *AssignStudentToClassHandler {
	return &AssignStudentToClassHandler{repo: repo, transactor: transactor}
}

// Handle emits a StudentAssignedToClass event.
func (h *AssignStudentToClassHandler) Handle(ctx context.Context, cmd AssignStudentToClass) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		s, err := h.repo.Load(txCtx, cmd.StudentID)
		if err != nil {
			return err
		}

		evt := &event.StudentAssignedToClass{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.StudentID,
				AggType: aggregate.StudentAggregateType,
				Ver:     s.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			ClassID: cmd.ClassID,
		}
		if err := s.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track assign student to class failed: %w", err)
		}

		if err := h.repo.Save(txCtx, s); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
