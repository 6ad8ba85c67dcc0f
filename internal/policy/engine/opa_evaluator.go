package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const accessPolicyQuery = "data.walkingbus.access.allow"

// accessRegoPolicy is the role -> action-class authorization matrix. Action
// classes group endpoints by the capability they exercise, not by the URL:
// running a session, scheduling one, managing the roster, and so on.
const accessRegoPolicy = `package walkingbus.access

default allow = false

role_actions := {
	"admin": {
		"session.run",
		"session.read",
		"session.schedule",
		"roster.manage",
		"registration.manage",
		"child.manage",
		"catalog.read",
		"chat.post",
		"user.manage",
	},
	"instructor": {
		"session.run",
		"session.read",
		"catalog.read",
		"chat.post",
	},
	"parent": {
		"session.read",
		"registration.manage",
		"child.manage",
		"catalog.read",
		"chat.post",
	},
}

allow if {
	role_actions[input.role][input.action]
}
`

// OPAEvaluator evaluates the access matrix with the in-process OPA Rego
// engine. The policy is compiled once at construction.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator compiles the embedded access policy and returns an
// evaluator over it.
func NewOPAEvaluator() (*OPAEvaluator, error) {
	compiler, err := ast.CompileModules(map[string]string{"access.rego": accessRegoPolicy})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// Allow reports whether role may perform the action class.
func (e *OPAEvaluator) Allow(ctx context.Context, role, action string) (bool, error) {
	input := map[string]interface{}{
		"role":   role,
		"action": action,
	}
	q := rego.New(
		rego.Query(accessPolicyQuery),
		rego.Compiler(e.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("access policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("access policy returned non-boolean result")
	}
	return allowed, nil
}

// HealthCheck verifies the in-process Rego engine can evaluate the compiled
// policy. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	if _, err := e.Allow(ctx, "admin", "session.read"); err != nil {
		return err
	}
	return nil
}
