package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentViewRepository is a concrete implementation that also satisfies the
// cqrs.VersionedStore interface.
type StudentViewRepository struct {
	pool *pgxpool.Pool
}

func NewStudentViewRepository(pool *pgxpool.Pool) *StudentViewRepository {
	return &StudentViewRepository{pool: pool}
}

// GetVersion retrieves the current version of the student view.
func (r *StudentViewRepository) GetVersion(ctx context.Context, aggregateID uuid.UUID) (int, error) {
	var version int
	query := `SELECT version FROM student_views WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, aggregateID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil // Return 0 if the view doesn't exist yet.
		}
		return 0, fmt.Errorf("failed to get student view version: %w", err)
	}
	return version, nil
}

// Save inserts or updates the student read model.
func (r *StudentViewRepository) Save(ctx context.Context, view StudentView) error {
	query := `
        INSERT INTO student_views (id, name, student_number, email, class_id, version, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            class_id = EXCLUDED.class_id,
            version = EXCLUDED.version,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.pool.Exec(ctx, query,
		view.ID, view.Name, view.StudentNumber, view.Email, view.ClassID, view.Version, view.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save student view: %w", err)
	}
	return nil
}

// GetByID retrieves the student view by its ID.
func (r *StudentViewRepository) GetByID(ctx context.Context, aggregateID uuid.UUID) (*StudentView, error) {
	var v StudentView
	query := `
        SELECT id, name, student_number, email, class_id, version, updated_at
        FROM student_views
        WHERE id = $1
    `
	err := r.pool.QueryRow(ctx, query, aggregateID).Scan(
		&v.ID, &v.Name, &v.StudentNumber, &v.Email, &v.ClassID, &v.Version, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Return nil if the view doesn't exist yet.
		}
		return nil, fmt.Errorf("failed to get student view by ID: %w", err)
	}
	return &v, nil
}

// Delete removes the student read model.
func (r *StudentViewRepository) Delete(ctx context.Context, aggregateID uuid.UUID) error {
	query := `DELETE FROM student_views WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, aggregateID); err != nil {
		return fmt.Errorf("failed to delete student view: %w", err)
	}
	return nil
}
