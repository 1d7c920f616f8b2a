package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TeacherViewRepository is a concrete implementation that also satisfies the
// cqrs.VersionedStore interface.
type TeacherViewRepository struct {
	pool *pgxpool.Pool
}

func NewTeacherViewRepository(pool *pgxpool.Pool) *TeacherViewRepository {
	return &TeacherViewRepository{pool: pool}
}

// GetVersion retrieves the current version of the teacher view.
func (r *TeacherViewRepository) GetVersion(ctx context.Context, aggregateID uuid.UUID) (int, error) {
	var version int
	query := `SELECT version FROM teacher_views WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, aggregateID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get teacher view version: %w", err)
	}
	return version, nil
}

// Save inserts or updates the teacher read model.
func (r *TeacherViewRepository) Save(ctx context.Context, view TeacherView) error {
	query := `
        INSERT INTO teacher_views (id, name, teacher_number, subject, version, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            subject = EXCLUDED.subject,
            version = EXCLUDED.version,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.pool.Exec(ctx, query,
		view.ID, view.Name, view.TeacherNumber, view.Subject, view.Version, view.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save teacher view: %w", err)
	}
	return nil
}

// GetByID retrieves the teacher view by its ID.
func (r *TeacherViewRepository) GetByID(ctx context.Context, aggregateID uuid.UUID) (*TeacherView, error) {
	var v TeacherView
	query := `
        SELECT id, name, teacher_number, subject, version, updated_at
        FROM teacher_views
        WHERE id = $1
    `
	err := r.pool.QueryRow(ctx, query, aggregateID).Scan(
		&v.ID, &v.Name, &v.TeacherNumber, &v.Subject, &v.Version, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get teacher view by ID: %w", err)
	}
	return &v, nil
}

// Delete removes the teacher read model.
func (r *TeacherViewRepository) Delete(ctx context.Context, aggregateID uuid.UUID) error {
	query := `DELETE FROM teacher_views WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, aggregateID); err != nil {
		return fmt.Errorf("failed to delete teacher view: %w", err)
	}
	return nil
}
