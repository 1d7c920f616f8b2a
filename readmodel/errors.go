package readmodel

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError is returned by point lookups when no active or deleted
// aggregate exists for the given ID. List queries never return it: an empty
// list is a valid result.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
