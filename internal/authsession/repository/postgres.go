package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"walking-bus/backend/internal/authsession/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an auth session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the auth session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.AuthSession, error) {
	var s domain.AuthSession
	var revokedAt, lastSeenAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, refresh_jti, refresh_token_hash, expires_at, revoked_at, last_seen_at, created_at
		FROM auth_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.RefreshJti, &s.RefreshTokenHash, &s.ExpiresAt, &revokedAt, &lastSeenAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	if lastSeenAt.Valid {
		s.LastSeenAt = &lastSeenAt.Time
	}
	return &s, nil
}

// Create persists the auth session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.AuthSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (id, user_id, refresh_jti, refresh_token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.UserID, s.RefreshJti, s.RefreshTokenHash, s.ExpiresAt, s.CreatedAt)
	return err
}

// Revoke marks the session revoked. Idempotent.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

// RevokeAllByUser revokes every live session of the user. Used on refresh
// token reuse detection.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	return err
}

// UpdateLastSeen records session activity.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_sessions SET last_seen_at = $2 WHERE id = $1`, id, at)
	return err
}

// UpdateRefreshToken rotates the stored jti and token hash.
func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_sessions SET refresh_jti = $2, refresh_token_hash = $3 WHERE id = $1`,
		sessionID, jti, refreshTokenHash)
	return err
}
