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

// RemoveStudentFromClass clears the student's class pointer when it matches
// the given class.
type RemoveStudentFromClass struct {
	StudentID uuid.UUID
	ClassID   uuid.UUID
}

// RemoveStudentFromClassHandler handles the RemoveStudentFromClass command.
type RemoveStudentFromClassHandler struct {
	repo       *repository.StudentRepository
	transactor cqrs.Transactor
}

func NewRemoveStudentFromClassHandler(
	repo *repository.StudentRepository,
	transactor cqrs.Transactor,
) *RemoveStudentFromClassHandler {
	return &RemoveStudentFromClassHandler{repo: repo, transactor: transactor}
}

// Handle emits a StudentRemovedFromClass event. Removing a class the
// student is not assigned to still appends the event; the projector treats
// it as a no-op.
func (h *RemoveStudentFromClassHandler) Handle(
	ctx context.Context,
	cmd RemoveStudentFromClass,
) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		s, err := h.repo.Load(txCtx, cmd.StudentID)
		if err != nil {
			return err
		}

		evt := &event.StudentRemovedFromClass{
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
			return fmt.Errorf("track remove student from class failed: %w", err)
		}

		if err := h.repo.Save(txCtx, s); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
