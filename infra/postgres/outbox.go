package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/0m3kk/registrar/eventsrc"
)

// OutboxStore persists events for the relay in the outbox table.
type OutboxStore struct {
	db *DB
}

func NewOutboxStore(db *DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// ProcessOutboxBatch claims a batch of unpublished events, runs processFunc
// over them and flips their published flag, all in one transaction. A
// processFunc error rolls everything back, so the events stay claimable.
// SKIP LOCKED on the claim lets multiple relay workers drain the table
// without stepping on each other.
func (s *OutboxStore) ProcessOutboxBatch(
	ctx context.Context,
	batchSize int,
	processFunc func(ctx context.Context, events []eventsrc.OutboxEvent) error,
) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin outbox transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	events, err := claimBatch(ctx, tx, batchSize)
	if err != nil {
		return fmt.Errorf("claim outbox batch: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	if err := processFunc(ctx, events); err != nil {
		return fmt.Errorf("process outbox batch: %w", err)
	}

	if err := markPublished(ctx, tx, events); err != nil {
		return fmt.Errorf("mark outbox batch published: %w", err)
	}
	return tx.Commit(ctx)
}

func claimBatch(ctx context.Context, tx pgx.Tx, batchSize int) ([]eventsrc.OutboxEvent, error) {
	const query = `
        SELECT event_id, aggregate_id, aggregate_type, event_type, payload, version, ts
        FROM outbox
        WHERE published = FALSE
        ORDER BY ts
        LIMIT $1
        FOR UPDATE SKIP LOCKED
    `
	rows, err := tx.Query(ctx, query, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, pgx.RowToStructByPos[eventsrc.OutboxEvent])
}

func markPublished(ctx context.Context, tx pgx.Tx, events []eventsrc.OutboxEvent) error {
	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.EventID
	}

	tag, err := tx.Exec(ctx, `UPDATE outbox SET published = TRUE WHERE event_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("update published flags: %w", err)
	}
	// The rows are locked by this transaction, so anything other than a
	// full match means the table changed underneath us.
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("marked %d of %d claimed events", tag.RowsAffected(), len(ids))
	}
	return nil
}

// SaveEvents appends events to the outbox inside the caller's transaction,
// so the outbox rows commit atomically with the event_store rows.
func (s *OutboxStore) SaveEvents(ctx context.Context, events []eventsrc.Event) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return fmt.Errorf("SaveEvents requires a transaction in context")
	}

	const stmt = `
        INSERT INTO outbox (event_id, aggregate_id, aggregate_type, event_type, payload, version, ts)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	b := &pgx.Batch{}
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.EventID(), err)
		}
		b.Queue(stmt,
			evt.EventID(),
			evt.AggregateID(),
			evt.AggregateType(),
			evt.EventType(),
			payload,
			evt.Version(),
			evt.Timestamp(),
		)
	}

	br := tx.SendBatch(ctx, b)
	defer br.Close()

	for i := range len(events) {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert outbox event %d of %d: %w", i+1, len(events), err)
		}
	}
	return br.Close()
}
