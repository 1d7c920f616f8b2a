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

// DeleteTeacher marks a teacher as deleted, keeping a field snapshot.
type DeleteTeacher struct {
	ID uuid.UUID
}

// DeleteTeacherHandler handles the DeleteTeacher command.
type DeleteTeacherHandler struct {
	repo       *repository.TeacherRepository
	transactor cqrs.Transactor
	keys       KeyReleaser
}

// DeleteTeacherOption configures a DeleteTeacherHandler.
type DeleteTeacherOption func(*DeleteTeacherHandler)

// WithTeacherKeyRelease releases the teacher number from the key index when
// the delete commits.
func WithTeacherKeyRelease(keys KeyReleaser) DeleteTeacherOption {
	return func(h *DeleteTeacherHandler) {
		h.keys = keys
	}
}

func NewDeleteTeacherHandler(
	repo *repository.TeacherRepository,
	transactor cqrs.Transactor,
	opts ...DeleteTeacherOption,
) *DeleteTeacherHandler {
	h := &DeleteTeacherHandler{repo: repo, transactor: transactor}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle emits a TeacherDeleted event.
func (h *DeleteTeacherHandler) Handle(ctx context.Context, cmd DeleteTeacher) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		t, err := h.repo.Load(txCtx, cmd.ID)
		if err != nil {
			return err
		}

		evt := &event.TeacherDeleted{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ID,
				AggType: aggregate.TeacherAggregateType,
				Ver:     t.Version() + 1,
				Ts:      time.Now().UTC(),
			},
		}
		if err := t.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track delete teacher failed: %w", err)
		}

		if err := h.repo.Save(txCtx, t); err != nil {
			return err
		}

		if h.keys != nil && t.Teacher.TeacherNumber != "" {
			if err := h.keys.Release(txCtx, "teacher", t.Teacher.TeacherNumber); err != nil {
				return fmt.Errorf("release teacher key failed: %w", err)
			}
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
