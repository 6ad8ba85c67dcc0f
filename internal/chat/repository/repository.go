package repository

import (
	"context"

	"walking-bus/backend/internal/chat/domain"
)

// Repository persists session chat messages.
type Repository interface {
	// Create appends a message to the session's board.
	Create(ctx context.Context, m *domain.Message) error
	// ListBySession returns the session's messages, oldest first.
	ListBySession(ctx context.Context, sessionID string, limit int32) ([]*domain.Message, error)
	// IsParticipant reports whether the user is an assigned instructor of the
	// session or a parent with a registration in it.
	IsParticipant(ctx context.Context, sessionID, userID string) (bool, error)
}
