package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/0m3kk/registrar/workflow"
)

// KeyIndex implements the workflow.KeyIndex uniqueness extension on top of
// a unique (kind, key) constraint. Reserving a key either claims it
// atomically or fails with ErrDuplicateKey, which closes the
// query-then-dispatch race the base workflow leaves open.
type KeyIndex struct {
	db *DB
}

func NewKeyIndex(db *DB) *KeyIndex {
	return &KeyIndex{db: db}
}

// Reserve claims a business key for the given entity kind.
func (s *KeyIndex) Reserve(ctx context.Context, kind, key string) error {
	query := `INSERT INTO business_keys (kind, key) VALUES ($1, $2)`
	_, err := s.db.Pool.Exec(ctx, query, kind, key)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return workflow.ErrDuplicateKey
		}
		return fmt.Errorf("failed to reserve business key: %w", err)
	}
	return nil
}

// Release frees a reserved key. It joins the caller's transaction when one
// is in the context, so a delete and its key release commit together.
func (s *KeyIndex) Release(ctx context.Context, kind, key string) error {
	query := `DELETE FROM business_keys WHERE kind = $1 AND key = $2`

	var err error
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		_, err = tx.Exec(ctx, query, kind, key)
	} else {
		_, err = s.db.Pool.Exec(ctx, query, kind, key)
	}
	if err != nil {
		return fmt.Errorf("failed to release business key: %w", err)
	}
	return nil
}
