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

// AssignTeacherToClass sets the class's teacher pointer. This is the
// class-side half of the relationship; AssignClassToTeacher updates the
// teacher aggregate separately.
type AssignTeacherToClass struct {
	ClassID   uuid.UUID
	TeacherID uuid.UUID
}

// AssignTeacherToClassHandler handles the AssignTeacherToClass command.
type AssignTeacherToClassHandler struct {
	repo       *repository.ClassRepository
	transactor cqrs.Transactor
}

func NewAssignTeacherToClassHandler(
	repo *repository.ClassRepository,
	transactor cqrs.Transactor,
) *AssignTeacherToClassHandler {
	return &AssignTeacherToClassHandler{repo: repo, transactor: transactor}
}

// Handle emits a ClassTeacherAssigned event.
func (h *AssignTeacherToClassHandler) Handle(ctx context.Context, cmd AssignTeacherToClass) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := h.repo.Load(txCtx, cmd.ClassID)
		if err != nil {
			return err
		}

		evt := &event.ClassTeacherAssigned{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ClassID,
				AggType: aggregate.ClassAggregateType,
				Ver:     c.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			TeacherID: cmd.TeacherID,
		}
		if err := c.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track assign teacher to class failed: %w", err)
		}

		if err := h.repo.Save(txCtx, c); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
