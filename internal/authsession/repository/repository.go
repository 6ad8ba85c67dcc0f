package repository

import (
	"context"
	"time"

	"walking-bus/backend/internal/authsession/domain"
)

// Repository defines persistence for auth sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.AuthSession, error)
	Create(ctx context.Context, s *domain.AuthSession) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
	UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error
}
