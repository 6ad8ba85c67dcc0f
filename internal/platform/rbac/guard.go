// Package rbac gates handlers on the caller's role via the policy engine.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"walking-bus/backend/internal/server/middleware"
)

var (
	// ErrUnauthenticated means no verified identity is present in the context.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller's role may not perform the action.
	ErrForbidden = errors.New("permission denied")
)

// PolicyEvaluator answers role -> action-class authorization questions.
type PolicyEvaluator interface {
	Allow(ctx context.Context, role, action string) (bool, error)
}

// Guard resolves the caller from the request context and checks the policy
// matrix. Handlers call Require at the top and map the sentinel errors to
// 401/403.
type Guard struct {
	policy PolicyEvaluator
}

// NewGuard returns a Guard backed by the given policy evaluator.
func NewGuard(policy PolicyEvaluator) *Guard {
	return &Guard{policy: policy}
}

// Require ensures the caller is authenticated and allowed to perform the
// action class. Returns the caller's user id and role on success.
func (g *Guard) Require(ctx context.Context, action string) (userID, role string, err error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok || userID == "" {
		return "", "", ErrUnauthenticated
	}
	role, ok = middleware.GetRole(ctx)
	if !ok || role == "" {
		return "", "", ErrUnauthenticated
	}
	allowed, err := g.policy.Allow(ctx, role, action)
	if err != nil {
		return "", "", fmt.Errorf("evaluate access policy: %w", err)
	}
	if !allowed {
		return "", "", ErrForbidden
	}
	return userID, role, nil
}
