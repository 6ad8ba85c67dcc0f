package repository

import (
	"context"
	"database/sql"
	"errors"

	"walking-bus/backend/internal/route/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a route repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Route returns the route for id, or nil if not found.
func (r *PostgresRepository) Route(ctx context.Context, id string) (*domain.Route, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, city, created_at FROM routes WHERE id = $1`, id)
	var rt domain.Route
	if err := row.Scan(&rt.ID, &rt.Name, &rt.City, &rt.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

// List returns all routes ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Route, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, city, created_at FROM routes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Route
	for rows.Next() {
		var rt domain.Route
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.City, &rt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rt)
	}
	return out, rows.Err()
}

// StationsFor returns the route's stations in boarding order.
func (r *PostgresRepository) StationsFor(ctx context.Context, routeID string) ([]*domain.Station, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, route_id, name, position, offset_minutes
		FROM stations WHERE route_id = $1 ORDER BY position`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Station
	for rows.Next() {
		var s domain.Station
		if err := rows.Scan(&s.ID, &s.RouteID, &s.Name, &s.Position, &s.OffsetMinutes); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Create inserts a route together with its stations in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, rt *domain.Route, stations []*domain.Station) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO routes (id, name, city, created_at)
		VALUES ($1, $2, $3, $4)`,
		rt.ID, rt.Name, rt.City, rt.CreatedAt); err != nil {
		return err
	}
	for _, s := range stations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stations (id, route_id, name, position, offset_minutes)
			VALUES ($1, $2, $3, $4, $5)`,
			s.ID, s.RouteID, s.Name, s.Position, s.OffsetMinutes); err != nil {
			return err
		}
	}
	return tx.Commit()
}
