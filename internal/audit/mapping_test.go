package audit

import "testing"

func TestParseRoute(t *testing.T) {
	testCases := []struct {
		method, path string
		action       string
		resource     string
	}{
		{"POST", "/api/v1/sessions", "create", "session"},
		{"GET", "/api/v1/sessions", "list", "session"},
		{"GET", "/api/v1/sessions/{id}", "get", "session"},
		{"GET", "/api/v1/sessions/6f1c8a2e-aaaa-bbbb-cccc-0123456789ab", "get", "session"},
		{"POST", "/api/v1/sessions/{id}/arrive", "arrive", "session"},
		{"POST", "/api/v1/sessions/{id}/leave", "leave", "session"},
		{"DELETE", "/api/v1/sessions/{id}/registrations/{childId}", "delete", "session"},
		{"POST", "/api/v1/auth/login", "login", "auth"},
		{"PUT", "/api/v1/routes/{id}", "update", "route"},
		{"GET", "/healthz", "get", "healthz"},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			got := ParseRoute(tc.method, tc.path)
			if got.Action != tc.action || got.Resource != tc.resource {
				t.Errorf("ParseRoute(%s, %s) = %+v, want {%s %s}", tc.method, tc.path, got, tc.action, tc.resource)
			}
		})
	}
}
