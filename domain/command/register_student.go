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

// RegisterStudent is the command for registering a new student. ID is the
// freshly generated stream identifier; StudentNumber is the business key.
// The handler performs no uniqueness check on the business key: that belongs
// to the duplicate-check workflow in front of it.
type RegisterStudent struct {
	ID            uuid.UUID
	Name          string
	StudentNumber string
	DateOfBirth   time.Time
	Email         string
	Phone         string
	Address       string
}

// RegisterStudentHandler handles the RegisterStudent command.
type RegisterStudentHandler struct {
	repo       *repository.StudentRepository
	transactor cqrs.Transactor
}

func NewRegisterStudentHandler(repo *repository.StudentRepository, transactor cqrs.Transactor) *RegisterStudentHandler {
	return &RegisterStudentHandler{repo: repo, transactor: transactor}
}

// Handle emits a StudentRegistered event and returns it.
func (h *RegisterStudentHandler) Handle(ctx context.Context, cmd RegisterStudent) (eventsrc.Event, error) {
	slog.InfoContext(ctx, "Handling RegisterStudent", "studentNumber", cmd.StudentNumber)

	var emitted eventsrc.Event
	err := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		s := aggregate.NewStudentAggregateEmpty()

		evt := &event.StudentRegistered{
			BaseEvent: eventsrc.BaseEvent{
				ID:      uuid.New(),
				AggID:   cmd.ID,
				AggType: aggregate.StudentAggregateType,
				Ver:     s.Version() + 1,
				Ts:      time.Now().UTC(),
			},
			Name:          cmd.Name,
			StudentNumber: cmd.StudentNumber,
			DateOfBirth:   cmd.DateOfBirth,
			Email:         cmd.Email,
			Phone:         cmd.Phone,
			Address:       cmd.Address,
		}
		if err := s.TrackChange(txCtx, evt); err != nil {
			return fmt.Errorf("track register student failed: %w", err)
		}

		if err := h.repo.Save(txCtx, s); err != nil {
			return fmt.Errorf("failed to save new student: %w", err)
		}

		emitted = evt
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to handle RegisterStudent", "error", err)
		return nil, err
	}

	return emitted, nil
}
