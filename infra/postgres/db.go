// Package postgres backs the event store, outbox, idempotency tracking and
// business-key index with pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0m3kk/registrar/cqrs"
)

// txKey carries the open transaction through the context, so stores called
// inside WithTransaction join it without a tx parameter in every signature.
type txKey struct{}

// DB wraps the pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB opens a pool and verifies connectivity.
func NewDB(dsn string) (*DB, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// WithTransaction satisfies cqrs.Transactor. The handler runs with the
// transaction in its context; an error rolls back, otherwise commit.
func (db *DB) WithTransaction(ctx context.Context, fn cqrs.TransactionalHandler) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
