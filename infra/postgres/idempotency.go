package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IdempotencyStore tracks applied events per subscriber in the
// processed_events table.
type IdempotencyStore struct {
	db *DB
}

func NewIdempotencyStore(db *DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// IsProcessed reports whether a subscriber has already applied an event.
// It reads through the pool, outside any transaction.
func (s *IdempotencyStore) IsProcessed(ctx context.Context, eventID uuid.UUID, subscriberID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1 AND subscriber_id = $2)`
	var exists bool
	if err := s.db.Pool.QueryRow(ctx, query, eventID, subscriberID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return exists, nil
}

// MarkAsProcessed records an event as applied. It must run inside a
// transaction so the marker commits together with the view update.
func (s *IdempotencyStore) MarkAsProcessed(ctx context.Context, eventID uuid.UUID, subscriberID string) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return fmt.Errorf("MarkAsProcessed requires a transaction in context")
	}

	const query = `INSERT INTO processed_events (event_id, subscriber_id) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, query, eventID, subscriberID); err != nil {
		var pgErr *pgconn.PgError
		// unique_violation: a concurrent worker applied the same event.
		// That outcome is the one we wanted, so swallow it.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}
