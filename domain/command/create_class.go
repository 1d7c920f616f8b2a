package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/0m3kk/registrar/cqrs"
	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/domain/repository"
	"github.com/0m3kk/registrar/eventsrc"
)

// CreateClass is the command for creating a new class. Code is the business
// key; no uniqueness check happens here.
type CreateClass struct {
	ID          uuid.UUID
	Name        string
	Code        string
	Description string
}

// CreateClassHandler handles the CreateClass command.
type CreateClassHandler struct {
	repo       *repository.ClassRepository
	transactor cqrs.Transactor
}

func NewCreateClassHandler(repo *repository.ClassRepository, transactor cqrs.Transactor) *CreateClassHandler {
	return &CreateClassHandler{repo: repo, transactor: transactor}
}

// Handle emits a ClassCreated event and returns it.
func (h *CreateClassHandler) Handle(ctx context.Context, cmd CreateClass) (eventsrc.Event, error) {
	slog.InfoContext(ctx, "Handling CreateClass", "code", cmd.Code)

	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		c := aggregate.NewClassAggregateEmpty()

		evt := &event.ClassCreated{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ID,
				AggType: aggregate.ClassAggregateType,
				Ver:     c.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			Name:        cmd.Name,
			Code:        cmd.Code,
			Description: cmd.Description,
		}
		if err := c.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track create class failed: %w", err)
		}

		if err := h.repo.Save(txCtx, c); err != nil {
			return fmt.Errorf("failed to save new class: %w", err)
		}

		emitted = evt
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to handle CreateClass", "error", err)
		return nil, err
	}

	return emitted, nil
}
