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

// AddStudentToClass appends a student to the class roster. This is the
// class-side half of the relationship; AssignStudentToClass updates the
// student aggregate separately.
type AddStudentToClass struct {
	ClassID   uuid.UUID
	StudentID uuid.UUID
}

// AddStudentToClassHandler handles the AddStudentToClass command.
type AddStudentToClassHandler struct {
	repo       *repository.ClassRepository
	transactor cqrs.Transactor
}

func NewAddStudentToClassHandler(
	repo *repository.ClassRepository,
	transactor cqrs.Transactor,
) *AddStudentToClassHandler {
	return &AddStudentToClassHandler{repo: repo, transactor: transactor}
}

// Handle emits a ClassStudentAdded event. Adding the same student twice
// appends two events; the projector keeps a single roster entry.
func (h *AddStudentToClassHandler) Handle(ctx context.Context, cmd AddStudentToClass) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := h.repo.Load(txCtx, cmd.ClassID)
		if err != nil {
			return err
		}

		evt := &event.ClassStudentAdded{
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
			return fmt.Errorf("track add student to class failed: %w", err)
		}

		if err := h.repo.Save(txCtx, c); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
