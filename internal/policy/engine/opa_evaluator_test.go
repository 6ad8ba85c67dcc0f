package engine

import (
	"context"
	"testing"
)

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAEvaluator_Allow_Matrix(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		name   string
		role   string
		action string
		want   bool
	}{
		{"instructor runs sessions", "instructor", "session.run", true},
		{"parent cannot run sessions", "parent", "session.run", false},
		{"parent manages registrations", "parent", "registration.manage", true},
		{"instructor cannot manage registrations", "instructor", "registration.manage", false},
		{"admin schedules sessions", "admin", "session.schedule", true},
		{"instructor cannot schedule", "instructor", "session.schedule", false},
		{"admin manages roster", "admin", "roster.manage", true},
		{"parent reads catalog", "parent", "catalog.read", true},
		{"everyone reads sessions", "parent", "session.read", true},
		{"unknown role denied", "visitor", "session.read", false},
		{"unknown action denied", "admin", "no.such.action", false},
		{"empty role denied", "", "session.read", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Allow(ctx, tc.role, tc.action)
			if err != nil {
				t.Fatalf("Allow(%q, %q): %v", tc.role, tc.action, err)
			}
			if got != tc.want {
				t.Errorf("Allow(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.want)
			}
		})
	}
}
