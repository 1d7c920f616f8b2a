package repository

import (
	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/eventsrc"
)

// ClassRepository loads and saves class aggregates through the event store.
type ClassRepository struct {
	*eventsrc.Repository[*aggregate.ClassAggregate]
}

// NewClassRepository creates a new class repository.
func NewClassRepository(store eventsrc.Store) *ClassRepository {
	return &ClassRepository{
		Repository: eventsrc.NewRepository(store, aggregate.ClassAggregateType, aggregate.NewClassAggregateEmpty),
	}
}
