package engine

import "context"

// Evaluator answers whether a role may perform an action class. Backed by OPA
// Rego so the matrix can be inspected and extended without touching handlers.
type Evaluator interface {
	// Allow reports whether the given role may perform the given action class.
	Allow(ctx context.Context, role, action string) (bool, error)
}
