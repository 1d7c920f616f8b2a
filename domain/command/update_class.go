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

// UpdateClass is a partial update: nil fields are left unchanged. The class
// code is not updatable.
type UpdateClass struct {
	ID          uuid.UUID
	Name        *string
	Description *string
}

// UpdateClassHandler handles the UpdateClass command.
type UpdateClassHandler struct {
	repo       *repository.ClassRepository
	transactor cqrs.Transactor
}

func NewUpdateClassHandler(repo *repository.ClassRepository, transactor cqrs.Transactor) *UpdateClassHandler {
	return &UpdateClassHandler{repo: repo, transactor: transactor}
}

// Handle emits a ClassUpdated event carrying only the changed fields.
func (h *UpdateClassHandler) Handle(ctx context.Context, cmd UpdateClass) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := h.repo.Load(txCtx, cmd.ID)
		if err != nil {
			return err
		}

		evt := &event.ClassUpdated{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ID,
				AggType: aggregate.ClassAggregateType,
				Ver:     c.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			Name:        cmd.Name,
			Description: cmd.Description,
		}
		if err := c.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track update class failed: %w", err)
		}

		if err := h.repo.Save(txCtx, c); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
