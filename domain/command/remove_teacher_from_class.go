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

// RemoveTeacherFromClass clears the class's teacher pointer.
type RemoveTeacherFromClass struct {
	ClassID uuid.UUID
}

// RemoveTeacherFromClassHandler handles the RemoveTeacherFromClass command.
type RemoveTeacherFromClassHandler struct {
	repo       *repository.ClassRepository
	transactor cqrs.Transactor
}

func NewRemoveTeacherFromClassHandler(
	repo *repository.ClassRepository,
	transactor cqrs.Transactor,
) *RemoveTeacherFromClassHandler {
	return &RemoveTeacherFromClassHandler{repo: repo, transactor: transactor}
}

// Handle emits a ClassTeacherRemoved event recording the teacher that was
// assigned at the time, if any.
func (h *RemoveTeacherFromClassHandler) Handle(
	ctx context.Context,
	cmd RemoveTeacherFromClass,
) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := h.repo.Load(txCtx, cmd.ClassID)
		if err != nil {
			return err
		}

		var removed uuid.UUID
		if c.Class.TeacherID != nil {
			removed = *c.Class.TeacherID
		}

		evt := &event.ClassTeacherRemoved{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ClassID,
				AggType: aggregate.ClassAggregateType,
				Ver:     c.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			TeacherID: removed,
		}
		if err := c.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track remove teacher from class failed: %w", err)
		}

		if err := h.repo.Save(txCtx, c); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
