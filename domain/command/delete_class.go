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

// DeleteClass marks a class as deleted, keeping a field snapshot including
// its roster and teacher pointer.
type DeleteClass struct {
	ID uuid.UUID
}

// DeleteClassHandler handles the DeleteClass command.
type DeleteClassHandler struct {
	repo       *repository.ClassRepository
	transactor cqrs.Transactor
}

func NewDeleteClassHandler(repo *repository.ClassRepository, transactor cqrs.Transactor) *DeleteClassHandler {
	return &DeleteClassHandler{repo: repo, transactor: transactor}
}

// Handle emits a ClassDeleted event.
func (h *DeleteClassHandler) Handle(ctx context.Context, cmd DeleteClass) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := h.repo.Load(txCtx, cmd.ID)
		if err != nil {
			return err
		}

		evt := &event.ClassDeleted{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ID,
				AggType: aggregate.ClassAggregateType,
				Ver:     c.Version() + 1,
				Ts:      time.Now().UTC(),
			},
		}
		if err := c.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track delete class failed: %w", err)
		}

		if err := h.repo.Save(txCtx, c); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
