package views

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/eventsrc"
)

// StudentProjectionHandler is a subscriber that maintains the denormalized
// student view from the student event stream.
type StudentProjectionHandler struct {
	repo *StudentViewRepository
}

func NewStudentProjectionHandler(repo *StudentViewRepository) *StudentProjectionHandler {
	return &StudentProjectionHandler{repo: repo}
}

func (p *StudentProjectionHandler) Handle(ctx context.Context, evt eventsrc.OutboxEvent) error {
	switch evt.EventType {
	case event.StudentRegisteredEventType:
		return p.handleRegistered(ctx, evt)
	case event.StudentUpdatedEventType:
		return p.handleUpdated(ctx, evt)
	case event.StudentDeletedEventType:
		return p.repo.Delete(ctx, evt.AggregateID)
	case event.StudentAssignedToClassEventType:
		return p.handleAssignedToClass(ctx, evt)
	case event.StudentRemovedFromClassEventType:
		return p.handleRemovedFromClass(ctx, evt)
	}
	return nil
}

func (p *StudentProjectionHandler) handleRegistered(ctx context.Context, evt eventsrc.OutboxEvent) error {
	var registered event.StudentRegistered
	if err := json.Unmarshal(evt.Payload, &registered); err != nil {
		return fmt.Errorf("failed to unmarshal StudentRegistered event: %w", err)
	}

	slog.InfoContext(ctx, "Projecting StudentView",
		"studentID", evt.AggregateID,
		"studentNumber", registered.StudentNumber)

	return p.repo.Save(ctx, StudentView{
		ID:            evt.AggregateID,
		Name:          registered.Name,
		StudentNumber: registered.StudentNumber,
		Email:         registered.Email,
		Version:       evt.Version,
		UpdatedAt:     evt.Ts,
	})
}

func (p *StudentProjectionHandler) handleUpdated(ctx context.Context, evt eventsrc.OutboxEvent) error {
	var updated event.StudentUpdated
	if err := json.Unmarshal(evt.Payload, &updated); err != nil {
		return fmt.Errorf("failed to unmarshal StudentUpdated event: %w", err)
	}

	view, err := p.repo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("student view %s not found for update", evt.AggregateID)
	}

	if updated.Name != nil {
		view.Name = *updated.Name
	}
	if updated.Email != nil {
		view.Email = *updated.Email
	}
	view.Version = evt.Version
	view.UpdatedAt = evt.Ts

	return p.repo.Save(ctx, *view)
}

func (p *StudentProjectionHandler) handleAssignedToClass(ctx context.Context, evt eventsrc.OutboxEvent) error {
	var assigned event.StudentAssignedToClass
	if err := json.Unmarshal(evt.Payload, &assigned); err != nil {
		return fmt.Errorf("failed to unmarshal StudentAssignedToClass event: %w", err)
	}

	view, err := p.repo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("student view %s not found for class assignment", evt.AggregateID)
	}

	view.ClassID = &assigned.ClassID
	view.Version = evt.Version
	view.UpdatedAt = evt.Ts

	return p.repo.Save(ctx, *view)
}

func (p *StudentProjectionHandler) handleRemovedFromClass(ctx context.Context, evt eventsrc.OutboxEvent) error {
	var removed event.StudentRemovedFromClass
	if err := json.Unmarshal(evt.Payload, &removed); err != nil {
		return fmt.Errorf("failed to unmarshal StudentRemovedFromClass event: %w", err)
	}

	view, err := p.repo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("student view %s not found for class removal", evt.AggregateID)
	}

	// Same no-op rule as the aggregate: only clear a matching assignment.
	if view.ClassID != nil && *view.ClassID == removed.ClassID {
		view.ClassID = nil
	}
	view.Version = evt.Version
	view.UpdatedAt = evt.Ts

	return p.repo.Save(ctx, *view)
}
