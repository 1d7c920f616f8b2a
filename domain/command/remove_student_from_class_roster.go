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

// RemoveStudentFromClassRoster filters a student out of the class roster.
type RemoveStudentFromClassRoster struct {
	ClassID   uuid.UUID
	StudentID uuid.UUID
}

// RemoveStudentFromClassRosterHandler handles the RemoveStudentFromClassRoster command.
type RemoveStudentFromClassRosterHandler struct {
	repo       *repository.ClassRepository
	transactor cqrs.Transactor
}

func NewRemoveStudentFromClassRosterHandler(
	repo *repository.ClassRepository,
	transactor cqrs.Transactor,
) *RemoveStudentFromClassRosterHandler {
	return &RemoveStudentFromClassRosterHandler{repo: repo, transactor: transactor}
}

// Handle emits a ClassStudentRemoved event; removing an absent student is a
// projector no-op.
func (h *RemoveStudentFromClassRosterHandler) Handle(
	ctx context.Context,
	cmd RemoveStudentFromClassRoster,
) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := h.repo.Load(txCtx, cmd.ClassID)
		if err != nil {
			return err
		}

		evt := &event.ClassStudentRemoved{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ClassID,
				AggType: aggregate.ClassAggregateType,
				Ver:     c.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			StudentID: cmd.StudentID,
		}
		if err := c.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track remove student from class roster failed: %w", err)
		}

		if err := h.repo.Save(txCtx, c); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
