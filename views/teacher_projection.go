package views

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/eventsrc"
)

// TeacherProjectionHandler is a subscriber that maintains the denormalized
// teacher view from the teacher event stream.
type TeacherProjectionHandler struct {
	repo *TeacherViewRepository
}

func NewTeacherProjectionHandler(repo *TeacherViewRepository) *TeacherProjectionHandler {
	return &TeacherProjectionHandler{repo: repo}
}

func (p *TeacherProjectionHandler) Handle(ctx context.Context, evt eventsrc.OutboxEvent) error {
	switch evt.EventType {
	case event.TeacherRegisteredEventType:
		return p.handleRegistered(ctx, evt)
	case event.TeacherUpdatedEventType:
		return p.handleUpdated(ctx, evt)
	case event.TeacherDeletedEventType:
		return p.repo.Delete(ctx, evt.AggregateID)
	case event.TeacherClassAssignedEventType, event.TeacherClassRemovedEventType:
		// Class membership lives on the class view; only bump the version so
		// later teacher events still apply in order.
		return p.bumpVersion(ctx, evt)
	}
	return nil
}

func (p *TeacherProjectionHandler) handleRegistered(ctx context.Context, evt eventsrc.OutboxEvent) error {
	var registered event.TeacherRegistered
	if err := json.Unmarshal(evt.Payload, &registered); err != nil {
		return fmt.Errorf("failed to unmarshal TeacherRegistered event: %w", err)
	}

	slog.InfoContext(ctx, "Projecting TeacherView",
		"teacherID", evt.AggregateID,
		"teacherNumber", registered.TeacherNumber)

	return p.repo.Save(ctx, TeacherView{
		ID:            evt.AggregateID,
		Name:          registered.Name,
		TeacherNumber: registered.TeacherNumber,
		Subject:       registered.Subject,
		Version:       evt.Version,
		UpdatedAt:     evt.Ts,
	})
}

func (p *TeacherProjectionHandler) handleUpdated(ctx context.Context, evt eventsrc.OutboxEvent) error {
	var updated event.TeacherUpdated
	if err := json.Unmarshal(evt.Payload, &updated); err != nil {
		return fmt.Errorf("failed to unmarshal TeacherUpdated event: %w", err)
	}

	view, err := p.repo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("teacher view %s not found for update", evt.AggregateID)
	}

	if updated.Name != nil {
		view.Name = *updated.Name
	}
	if updated.Subject != nil {
		view.Subject = *updated.Subject
	}
	view.Version = evt.Version
	view.UpdatedAt = evt.Ts

	return p.repo.Save(ctx, *view)
}

func (p *TeacherProjectionHandler) bumpVersion(ctx context.Context, evt eventsrc.OutboxEvent) error {
	view, err := p.repo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("teacher view %s not found", evt.AggregateID)
	}

	view.Version = evt.Version
	view.UpdatedAt = evt.Ts
	return p.repo.Save(ctx, *view)
}
