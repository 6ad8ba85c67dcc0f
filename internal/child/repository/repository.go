package repository

import (
	"context"

	"walking-bus/backend/internal/child/domain"
)

// Repository persists children and their parent ownership.
type Repository interface {
	// GetByID returns the child or nil when absent.
	GetByID(ctx context.Context, id string) (*domain.Child, error)
	// ListByParent returns the parent's children ordered by display name.
	ListByParent(ctx context.Context, parentID string) ([]*domain.Child, error)
	// Create persists the child.
	Create(ctx context.Context, c *domain.Child) error
	// Delete removes the child.
	Delete(ctx context.Context, id string) error
}
