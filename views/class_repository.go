package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClassViewRepository is a concrete implementation that also satisfies the
// cqrs.VersionedStore interface.
type ClassViewRepository struct {
	pool *pgxpool.Pool
}

func NewClassViewRepository(pool *pgxpool.Pool) *ClassViewRepository {
	return &ClassViewRepository{pool: pool}
}

// GetVersion retrieves the current version of the class view.
func (r *ClassViewRepository) GetVersion(ctx context.Context, aggregateID uuid.UUID) (int, error) {
	var version int
	query := `SELECT version FROM class_views WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, aggregateID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get class view version: %w", err)
	}
	return version, nil
}

// Save inserts or updates the class read model.
func (r *ClassViewRepository) Save(ctx context.Context, view ClassView) error {
	query := `
        INSERT INTO class_views (id, name, code, teacher_id, student_count, version, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            teacher_id = EXCLUDED.teacher_id,
            student_count = EXCLUDED.student_count,
            version = EXCLUDED.version,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.pool.Exec(ctx, query,
		view.ID, view.Name, view.Code, view.TeacherID, view.StudentCount, view.Version, view.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save class view: %w", err)
	}
	return nil
}

// GetByID retrieves the class view by its ID.
func (r *ClassViewRepository) GetByID(ctx context.Context, aggregateID uuid.UUID) (*ClassView, error) {
	var v ClassView
	query := `
        SELECT id, name, code, teacher_id, student_count, version, updated_at
        FROM class_views
        WHERE id = $1
    `
	err := r.pool.QueryRow(ctx, query, aggregateID).Scan(
		&v.ID, &v.Name, &v.Code, &v.TeacherID, &v.StudentCount, &v.Version, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get class view by ID: %w", err)
	}
	return &v, nil
}

// Delete removes the class read model.
func (r *ClassViewRepository) Delete(ctx context.Context, aggregateID uuid.UUID) error {
	query := `DELETE FROM class_views WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, aggregateID); err != nil {
		return fmt.Errorf("failed to delete class view: %w", err)
	}
	return nil
}
