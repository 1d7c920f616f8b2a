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

// RegisterTeacher is the command for registering a new teacher. As with
// students, business-key uniqueness is the duplicate-check workflow's job,
// not the handler's.
type RegisterTeacher struct {
	ID            uuid.UUID
	Name          string
	TeacherNumber string
	Email         string
	Phone         string
	Address       string
	Subject       string
}

// RegisterTeacherHandler handles the RegisterTeacher command.
type RegisterTeacherHandler struct {
	repo       *repository.TeacherRepository
	transactor cqrs.Transactor
}

func NewRegisterTeacherHandler(repo *repository.TeacherRepository, transactor cqrs.Transactor) *RegisterTeacherHandler {
	return &RegisterTeacherHandler{repo: repo, transactor: transactor}
}

// Handle emits a TeacherRegistered event and returns it.
func (h *RegisterTeacherHandler) Handle(ctx context.Context, cmd RegisterTeacher) (eventsrc.Event, error) {
	slog.InfoContext(ctx, "Handling RegisterTeacher", "teacherNumber", cmd.TeacherNumber)

	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		t := aggregate.NewTeacherAggregateEmpty()

		evt := &event.TeacherRegistered{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ID,
				AggType: aggregate.TeacherAggregateType,
				Ver:     t.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			Name:          cmd.Name,
			TeacherNumber: cmd.TeacherNumber,
			Email:         cmd.Email,
			Phone:         cmd.Phone,
			Address:       cmd.Address,
			Subject:       cmd.Subject,
		}
		if err := t.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track register teacher failed: %w", err)
		}

		if err := h.repo.Save(txCtx, t); err != nil {
			return fmt.Errorf("failed to save new teacher: %w", err)
		}

		emitted = evt
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to handle RegisterTeacher", "error", err)
		return nil, err
	}

	return emitted, nil
}
