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

// UpdateTeacher is a partial update: nil fields are left unchanged. The
// teacher number is not updatable.
type UpdateTeacher struct {
	ID      uuid.UUID
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Subject *string
}

// UpdateTeacherHandler handles the UpdateTeacher command.
type UpdateTeacherHandler struct {
	repo       *repository.TeacherRepository
	transactor cqrs.Transactor
}

func NewUpdateTeacherHandler(repo *repository.TeacherRepository, transactor cqrs.Transactor) *UpdateTeacherHandler {
	return &UpdateTeacherHandler{repo: repo, transactor: transactor}
}

// Handle emits a TeacherUpdated event carrying only the changed fields.
func (h *UpdateTeacherHandler) Handle(ctx context.Context, cmd UpdateTeacher) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		t, err := h.repo.Load(txCtx, cmd.ID)
		if err != nil {
			return err
		}

		evt := &event.TeacherUpdated{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ID,
				AggType: aggregate.TeacherAggregateType,
				Ver:     t.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			Name:    cmd.Name,
			Email:   cmd.Email,
			Phone:   cmd.Phone,
			Address: cmd.Address,
			Subject: cmd.Subject,
		}
		if err := t.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track update teacher failed: %w", err)
		}

		if err := h.repo.Save(txCtx, t); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
