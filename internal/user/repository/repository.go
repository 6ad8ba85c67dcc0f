package repository

import (
	"context"

	"walking-bus/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
	List(ctx context.Context, limit, offset int32) ([]*domain.User, error)
}
