package repository

import (
	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/eventsrc"
)

// StudentRepository loads and saves student aggregates through the event store.
type StudentRepository struct {
	*eventsrc.Repository[*aggregate.StudentAggregate]
}

// NewStudentRepository creates a new student repository. It internally
// creates a generic eventsrc.Repository configured for the student aggregate.
func NewStudentRepository(store eventsrc.Store) *StudentRepository {
	return &StudentRepository{
		Repository: eventsrc.NewRepository(store, aggregate.StudentAggregateType, aggregate.NewStudentAggregateEmpty),
	}
}
