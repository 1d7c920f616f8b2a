package readmodel

import (
	"context"

	"github.com/google/uuid"

	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/domain/model"
	"github.com/0m3kk/registrar/eventsrc"
)

// EventSource supplies the full event history for an aggregate type, ordered
// per stream by version. The postgres and memory stores both implement it.
type EventSource interface {
	ReadAllByType(ctx context.Context, aggType eventsrc.AggregateType) ([]eventsrc.Event, error)
}

// groupByStream splits a per-type event scan into one ordered slice per
// aggregate stream, preserving the order streams were first seen so that
// rebuilds are deterministic.
func groupByStream(events []eventsrc.Event) [][]eventsrc.Event {
	byID := make(map[uuid.UUID]int)
	var streams [][]eventsrc.Event
	for _, evt := range events {
		idx, ok := byID[evt.AggregateID()]
		if !ok {
			idx = len(streams)
			byID[evt.AggregateID()] = idx
			streams = append(streams, nil)
		}
		streams[idx] = append(streams[idx], evt)
	}
	return streams
}

// rebuildStudents folds the whole student event log into the current set of
// student aggregates. This is the intentionally simple full-replay path; the
// view projections in the views package are the cached alternative.
func (e *Engine) rebuildStudents(ctx context.Context) ([]*aggregate.StudentAggregate, error) {
	events, err := e.source.ReadAllByType(ctx, aggregate.StudentAggregateType)
	if err != nil {
		return nil, err
	}
	var out []*aggregate.StudentAggregate
	for _, stream := range groupByStream(events) {
		a := aggregate.NewStudentAggregateEmpty()
		a.LoadFromHistory(ctx, stream)
		out = append(out, a)
	}
	return out, nil
}

func (e *Engine) rebuildTeachers(ctx context.Context) ([]*aggregate.TeacherAggregate, error) {
	events, err := e.source.ReadAllByType(ctx, aggregate.TeacherAggregateType)
	if err != nil {
		return nil, err
	}
	var out []*aggregate.TeacherAggregate
	for _, stream := range groupByStream(events) {
		a := aggregate.NewTeacherAggregateEmpty()
		a.LoadFromHistory(ctx, stream)
		out = append(out, a)
	}
	return out, nil
}

func (e *Engine) rebuildClasses(ctx context.Context) ([]*aggregate.ClassAggregate, error) {
	events, err := e.source.ReadAllByType(ctx, aggregate.ClassAggregateType)
	if err != nil {
		return nil, err
	}
	var out []*aggregate.ClassAggregate
	for _, stream := range groupByStream(events) {
		a := aggregate.NewClassAggregateEmpty()
		a.LoadFromHistory(ctx, stream)
		out = append(out, a)
	}
	return out, nil
}

func activeStudents(aggs []*aggregate.StudentAggregate) []model.Student {
	var out []model.Student
	for _, a := range aggs {
		if a.State == model.LifecycleActive {
			out = append(out, a.Student)
		}
	}
	return out
}

func activeTeachers(aggs []*aggregate.TeacherAggregate) []model.Teacher {
	var out []model.Teacher
	for _, a := range aggs {
		if a.State == model.LifecycleActive {
			out = append(out, a.Teacher)
		}
	}
	return out
}

func activeClasses(aggs []*aggregate.ClassAggregate) []model.Class {
	var out []model.Class
	for _, a := range aggs {
		if a.State == model.LifecycleActive {
			out = append(out, a.Class)
		}
	}
	return out
}
