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

// RemoveClassFromTeacher filters a class out of the teacher's class set.
type RemoveClassFromTeacher struct {
	TeacherID uuid.UUID
	ClassID   uuid.UUID
}

// RemoveClassFromTeacherHandler handles the RemoveClassFromTeacher command.
type RemoveClassFromTeacherHandler struct {
	repo       *repository.TeacherRepository
	transactor cqrs.Transactor
}

func NewRemoveClassFromTeacherHandler(
	repo *repository.TeacherRepository,
	transactor cqrs.Transactor,
) *RemoveClassFromTeacherHandler {
	return &RemoveClassFromTeacherHandler{repo: repo, transactor: transactor}
}

// Handle emits a TeacherClassRemoved event; removing an absent class is a
// projector no-op.
func (h *RemoveClassFromTeacherHandler) Handle(
	ctx context.Context,
	cmd RemoveClassFromTeacher,
) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		t, err := h.repo.Load(txCtx, cmd.TeacherID)
		if err != nil {
			return err
		}

		evt := &event.TeacherClassRemoved{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.TeacherID,
				AggType: aggregate.TeacherAggregateType,
				Ver:     t.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			ClassID: cmd.ClassID,
		}
		if err := t.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track remove class from teacher failed: %w", err)
		}

		if err := h.repo.Save(txCtx, t); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
