package testutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VersionedRepository is the smallest possible cqrs.VersionedStore, backed
// by a two-column table. Framework tests use it instead of a full view
// projection.
type VersionedRepository struct {
	pool *pgxpool.Pool
}

func NewVersionedRepository(pool *pgxpool.Pool) *VersionedRepository {
	return &VersionedRepository{pool: pool}
}

// CreateTable provisions the backing table; idempotent.
func (r *VersionedRepository) CreateTable() error {
	_, err := r.pool.Exec(context.Background(), `
CREATE TABLE IF NOT EXISTS versioned_views (
    id UUID PRIMARY KEY,
    version INT NOT NULL
);`)
	return err
}

// GetVersion returns the stored version, or 0 when no row exists yet.
func (r *VersionedRepository) GetVersion(ctx context.Context, aggregateID uuid.UUID) (int, error) {
	var version int
	err := r.pool.QueryRow(ctx, `SELECT version FROM versioned_views WHERE id = $1`, aggregateID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read view version: %w", err)
	}
	return version, nil
}
