package views

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/eventsrc"
)

// ClassProjectionHandler is a subscriber that maintains the denormalized
// class view, including the roster size, from the class event stream.
type ClassProjectionHandler struct {
	repo *ClassViewRepository
}

func NewClassProjectionHandler(repo *ClassViewRepository) *ClassProjectionHandler {
	return &ClassProjectionHandler{repo: repo}
}

func (p *ClassProjectionHandler) Handle(ctx context.Context, evt eventsrc.OutboxEvent) error {
	switch evt.EventType {
	case event.ClassCreatedEventType:
		return p.handleCreated(ctx, evt)
	case event.ClassUpdatedEventType:
		return p.handleUpdated(ctx, evt)
	case event.ClassDeletedEventType:
		return p.repo.Delete(ctx, evt.AggregateID)
	case event.ClassStudentAddedEventType:
		return p.adjustRoster(ctx, evt, 1)
	case event.ClassStudentRemovedEventType:
		return p.adjustRoster(ctx, evt, -1)
	case event.ClassTeacherAssignedEventType:
		return p.handleTeacherAssigned(ctx, evt)
	case event.ClassTeacherRemovedEventType:
		return p.handleTeacherRemoved(ctx, evt)
	}
	return nil
}

func (p *ClassProjectionHandler) handleCreated(ctx context.Context, evt eventsrc.OutboxEvent) error {
	var created event.ClassCreated
	if err := json.Unmarshal(evt.Payload, &created); err != nil {
		return fmt.Errorf("failed to unmarshal ClassCreated event: %w", err)
	}

	slog.InfoContext(ctx, "Projecting ClassView",
		"classID", evt.AggregateID,
		"code", created.Code)

	return p.repo.Save(ctx, ClassView{
		ID:        evt.AggregateID,
		Name:      created.Name,
		Code:      created.Code,
		Version:   evt.Version,
		UpdatedAt: evt.Ts,
	})
}

func (p *ClassProjectionHandler) handleUpdated(ctx context.Context, evt eventsrc.OutboxEvent) error {
	var updated event.ClassUpdated
	if err := json.Unmarshal(evt.Payload, &updated); err != nil {
		return fmt.Errorf("failed to unmarshal ClassUpdated event: %w", err)
	}

	view, err := p.repo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("class view %s not found for update", evt.AggregateID)
	}

	if updated.Name != nil {
		view.Name = *updated.Name
	}
	view.Version = evt.Version
	view.UpdatedAt = evt.Ts

	return p.repo.Save(ctx, *view)
}

func (p *ClassProjectionHandler) adjustRoster(ctx context.Context, evt eventsrc.OutboxEvent, delta int) error {
	view, err := p.repo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("class view %s not found for roster change", evt.AggregateID)
	}

	view.StudentCount += delta
	if view.StudentCount < 0 {
		view.StudentCount = 0
	}
	view.Version = evt.Version
	view.UpdatedAt = evt.Ts

	return p.repo.Save(ctx, *view)
}

func (p *ClassProjectionHandler) handleTeacherAssigned(ctx context.Context, evt eventsrc.OutboxEvent) error {
	var assigned event.ClassTeacherAssigned
	if err := json.Unmarshal(evt.Payload, &assigned); err != nil {
		return fmt.Errorf("failed to unmarshal ClassTeacherAssigned event: %w", err)
	}

	view, err := p.repo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("class view %s not found for teacher assignment", evt.AggregateID)
	}

	view.TeacherID = &assigned.TeacherID
	view.Version = evt.Version
	view.UpdatedAt = evt.Ts

	return p.repo.Save(ctx, *view)
}

func (p *ClassProjectionHandler) handleTeacherRemoved(ctx context.Context, evt eventsrc.OutboxEvent) error {
	view, err := p.repo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("class view %s not found for teacher removal", evt.AggregateID)
	}

	view.TeacherID = nil
	view.Version = evt.Version
	view.UpdatedAt = evt.Ts

	return p.repo.Save(ctx, *view)
}
