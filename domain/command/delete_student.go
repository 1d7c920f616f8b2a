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

// DeleteStudent marks a student as deleted. The projector keeps a snapshot
// of the last active fields for audit reads.
type DeleteStudent struct {
	ID uuid.UUID
}

// KeyReleaser frees a reserved business key. Delete handlers call it so a
// deleted entity's key becomes available to new registrations again.
type KeyReleaser interface {
	Release(ctx context.Context, kind, key string) error
}

// DeleteStudentHandler handles the DeleteStudent command.
type DeleteStudentHandler struct {
	repo       *repository.StudentRepository
	transactor cqrs.Transactor
	keys       KeyReleaser
}

// DeleteStudentOption configures a DeleteStudentHandler.
type DeleteStudentOption func(*DeleteStudentHandler)

// WithStudentKeyRelease releases the student number from the key index when
// the delete commits.
func WithStudentKeyRelease(keys KeyReleaser) DeleteStudentOption {
	return func(h *DeleteStudentHandler) {
		h.keys = keys
	}
}

func NewDeleteStudentHandler(
	repo *repository.StudentRepository,
	transactor cqrs.Transactor,
	opts ...DeleteStudentOption,
) *DeleteStudentHandler {
	h := &DeleteStudentHandler{repo: repo, transactor: transactor}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle emits a StudentDeleted event. Deleting an already-deleted student
// appends another event that the projector ignores.
func (h *DeleteStudentHandler) Handle(ctx context.Context, cmd DeleteStudent) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		s, err := h.repo.Load(txCtx, cmd.ID)
		if err != nil {
			return err
		}

		evt := &event.StudentDeleted{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ID,
				AggType: aggregate.StudentAggregateType,
				Ver:     s.Version() + 1,
				Ts:      time.Now().UTC(),
			},
		}
		if err := s.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track delete student failed: %w", err)
		}

		if err := h.repo.Save(txCtx, s); err != nil {
			return err
		}

		// Release inside the same transaction so the key stays reserved
		// if the delete rolls back.
		if h.keys != nil && s.Student.StudentNumber != "" {
			if err := h.keys.Release(txCtx, "student", s.Student.StudentNumber); err != nil {
				return fmt.Errorf("release student key failed: %w", err)
			}
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
