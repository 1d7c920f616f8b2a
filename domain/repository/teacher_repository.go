package repository

import (
	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/eventsrc"
)

// TeacherRepository loads and saves teacher aggregates through the event store.
type TeacherRepository struct {
	*eventsrc.Repository[*aggregate.TeacherAggregate]
}

// NewTeacherRepository creates a new teacher repository.
func NewTeacherRepository(store eventsrc.Store) *TeacherRepository {
	return &TeacherRepository{
		Repository: eventsrc.NewRepository(store, aggregate.TeacherAggregateType, aggregate.NewTeacherAggregateEmpty),
	}
}
