package server

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
)

// The handlers are never invoked; Walk only inspects route templates.
func TestNewRouter_MountsExpectedRoutes(t *testing.T) {
	r := NewRouter(Deps{
		Auth:     nil,
		Activity: nil,
		Routes:   nil,
		Children: nil,
		Roster:   nil,
		Chat:     nil,
		Health:   http.NotFoundHandler(),
		SSE:      http.NotFoundHandler(),
	})

	got := map[string]bool{}
	err := r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		tmpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			got[normalizePath(tmpl)] = true
			return nil
		}
		for _, m := range methods {
			got[m+" "+normalizePath(tmpl)] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{
		"GET /healthz",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/refresh",
		"POST /api/v1/sessions",
		"GET /api/v1/sessions/{id}/status",
		"POST /api/v1/sessions/{id}/start",
		"POST /api/v1/sessions/{id}/end",
		"POST /api/v1/sessions/{id}/arrive",
		"POST /api/v1/sessions/{id}/leave",
		"GET /api/v1/sessions/{id}/overview",
		"POST /api/v1/sessions/{id}/children/{childId}/checkin",
		"DELETE /api/v1/sessions/{id}/children/{childId}/checkout",
		"POST /api/v1/sessions/{id}/registrations",
		"DELETE /api/v1/sessions/{id}/registrations/{childId}",
		"POST /api/v1/sessions/{id}/instructors",
		"POST /api/v1/sessions/{id}/messages",
		"GET /api/v1/routes",
		"GET /api/v1/children",
		"GET /api/v1/users",
		"PATCH /api/v1/users/{id}/role",
		"GET /api/v1/events",
	}
	for _, w := range want {
		if !got[w] {
			t.Errorf("route %q not mounted", w)
		}
	}
}

func TestPublicPaths(t *testing.T) {
	if !publicPaths["/api/v1/auth/login"] {
		t.Error("login must be public")
	}
	if publicPaths["/api/v1/sessions"] {
		t.Error("sessions must not be public")
	}
}
