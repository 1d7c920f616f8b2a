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

// AssignClassToTeacher adds a class to the teacher's class set. This is the
// teacher-side half of the relationship; AssignTeacherToClass updates the
// class aggregate separately.
type AssignClassToTeacher struct {
	TeacherID uuid.UUID
	ClassID   uuid.UUID
}

// AssignClassToTeacherHandler handles the AssignClassToTeacher command.
type AssignClassToTeacherHandler struct {
	repo       *repository.TeacherRepository
	transactor cqrs.Transactor
}

func NewAssignClassToTeacherHandler(
	repo *repository.TeacherRepository,
	transactor cqrs.Transactor,
) *AssignClassToTeacherHandler {
	return &AssignClassToTeacherHandler{repo: repo, transactor: transactor}
}

// Handle emits a TeacherClassAssigned event. Assigning the same class twice
// appends two events; the projector keeps a single set entry.
func (h *AssignClassToTeacherHandler) Handle(ctx context.Context, cmd AssignClassToTeacher) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		t, err := h.repo.Load(txCtx, cmd.TeacherID)
		if err != nil {
			return err
		}

		evt := &event.TeacherClassAssigned{
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
			return fmt.Errorf("track assign class to teacher failed: %w", err)
		}

		if err := h.repo.Save(txCtx, t); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
