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

// UpdateStudent is a partial update: nil fields are left unchanged, a
// pointer to the empty string clears a field. The student number is not
// updatable at all.
type UpdateStudent struct {
	ID          uuid.UUID
	Name        *string
	DateOfBirth *time.Time
	Email       *string
	Phone       *string
	Address     *string
}

// UpdateStudentHandler handles the UpdateStudent command.
type UpdateStudentHandler struct {
	repo       *repository.StudentRepository
	transactor cqrs.Transactor
}

func NewUpdateStudentHandler(repo *repository.StudentRepository, transactor cqrs.Transactor) *UpdateStudentHandler {
	return &UpdateStudentHandler{repo: repo, transactor: transactor}
}

// Handle emits a StudentUpdated event carrying only the changed fields.
// The handler does not check that the aggregate is active: updates against
// empty or deleted streams are appended and swallowed by the projector.
func (h *UpdateStudentHandler) Handle(ctx context.Context, cmd UpdateStudent) (eventsrc.Event, error) {
	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		s, err := h.repo.Load(txCtx, cmd.ID)
		if err != nil {
			return err
		}

		evt := &event.StudentUpdated{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ID,
				AggType: aggregate.StudentAggregateType,
				Ver:     s.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			Name:        cmd.Name,
			DateOfBirth: cmd.DateOfBirth,
			Email:       cmd.Email,
			Phone:       cmd.Phone,
			Address:     cmd.Address,
		}
		if err := s.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track update student failed: %w", err)
		}

		if err := h.repo.Save(txCtx, s); err != nil {
			return err
		}

		emitted = evt
		return nil
	})
	return emitted, err
}
