package repository

import (
	"context"
	"database/sql"

	"walking-bus/backend/internal/chat/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a chat repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends a message to the session's board.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, user_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.SessionID, m.UserID, m.Body, m.CreatedAt)
	return err
}

// ListBySession returns the session's messages, oldest first.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string, limit int32) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, body, created_at
		FROM chat_messages WHERE session_id = $1
		ORDER BY created_at LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// IsParticipant reports whether the user is assigned to the session or has a
// registration in it.
func (r *PostgresRepository) IsParticipant(ctx context.Context, sessionID, userID string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM session_instructors WHERE session_id = $1 AND user_id = $2
			UNION
			SELECT 1 FROM registrations WHERE session_id = $1 AND parent_id = $2
		)`, sessionID, userID)
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
