package repository

import (
	"context"
	"database/sql"
	"errors"

	"walking-bus/backend/internal/child/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a child repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the child for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Child, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, parent_id, display_name, created_at FROM children WHERE id = $1`, id)
	var c domain.Child
	if err := row.Scan(&c.ID, &c.ParentID, &c.DisplayName, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListByParent returns the parent's children ordered by display name.
func (r *PostgresRepository) ListByParent(ctx context.Context, parentID string) ([]*domain.Child, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, display_name, created_at
		FROM children WHERE parent_id = $1 ORDER BY display_name`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Child
	for rows.Next() {
		var c domain.Child
		if err := rows.Scan(&c.ID, &c.ParentID, &c.DisplayName, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Create persists the child. The child must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Child) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO children (id, parent_id, display_name, created_at)
		VALUES ($1, $2, $3, $4)`,
		c.ID, c.ParentID, c.DisplayName, c.CreatedAt)
	return err
}

// Delete removes the child.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM children WHERE id = $1`, id)
	return err
}
