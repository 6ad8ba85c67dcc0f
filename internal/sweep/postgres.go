package sweep

import (
	"context"
	"database/sql"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a sweep repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListUpcomingWithoutLateFlag returns ids of sessions scheduled within
// [now, now+horizon) that are not yet flagged.
func (r *PostgresRepository) ListUpcomingWithoutLateFlag(ctx context.Context, now time.Time, horizon time.Duration) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM activity_sessions
		WHERE late_registration = FALSE
		  AND scheduled_at >= $1 AND scheduled_at < $2`,
		now, now.Add(horizon))
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

// SetLateRegistration flips the flag on one session.
func (r *PostgresRepository) SetLateRegistration(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE activity_sessions SET late_registration = TRUE WHERE id = $1`, sessionID)
	return err
}
