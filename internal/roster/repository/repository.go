package repository

import (
	"context"

	"walking-bus/backend/internal/roster/domain"
)

// Repository manages the session-instructor roster.
type Repository interface {
	// Assign adds the instructor to the session. Idempotent.
	Assign(ctx context.Context, a *domain.Assignment) error
	// Remove deletes the assignment. Removing a missing assignment is a no-op.
	Remove(ctx context.Context, sessionID, userID string) error
	// ListBySession returns the instructors assigned to the session.
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Assignment, error)
	// ListSessionsByUser returns the session ids the instructor is assigned to.
	ListSessionsByUser(ctx context.Context, userID string) ([]string, error)
}
