package repository

import (
	"context"
	"database/sql"

	"walking-bus/backend/internal/roster/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a roster repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Assign adds the instructor to the session. Re-assigning is a no-op.
func (r *PostgresRepository) Assign(ctx context.Context, a *domain.Assignment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_instructors (session_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, user_id) DO NOTHING`,
		a.SessionID, a.UserID)
	return err
}

// Remove deletes the assignment.
func (r *PostgresRepository) Remove(ctx context.Context, sessionID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM session_instructors WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID)
	return err
}

// ListBySession returns the instructors assigned to the session.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, user_id FROM session_instructors WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.SessionID, &a.UserID); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// ListSessionsByUser returns session ids the instructor is assigned to,
// newest scheduled first.
func (r *PostgresRepository) ListSessionsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT si.session_id
		FROM session_instructors si
		JOIN activity_sessions s ON s.id = si.session_id
		WHERE si.user_id = $1
		ORDER BY s.scheduled_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
