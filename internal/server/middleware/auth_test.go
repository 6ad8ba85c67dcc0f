package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"walking-bus/backend/internal/security"
)

func newTokens(t *testing.T) *security.TokenProvider {
	t.Helper()
	p, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return p
}

func TestAuth_ValidToken(t *testing.T) {
	tokens := newTokens(t)
	access, _, _, err := tokens.IssueAccess("authsess-1", "user-1", "instructor")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	var gotUser, gotRole, gotSession string
	handler := Auth(tokens, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserID(r.Context())
		gotRole, _ = GetRole(r.Context())
		gotSession, _ = GetSessionID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser != "user-1" || gotRole != "instructor" || gotSession != "authsess-1" {
		t.Errorf("identity = (%s, %s, %s), want (user-1, instructor, authsess-1)", gotUser, gotRole, gotSession)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	handler := Auth(newTokens(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a token")
	}))

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_GarbageToken(t *testing.T) {
	handler := Auth(newTokens(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with an invalid token")
	}))

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_PublicPath(t *testing.T) {
	isPublic := func(r *http.Request) bool { return r.URL.Path == "/api/v1/auth/login" }
	called := false
	handler := Auth(newTokens(t), isPublic)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := GetUserID(r.Context()); ok {
			t.Error("anonymous public request should carry no identity")
		}
	}))

	req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Errorf("public path: called = %t, status = %d, want handler run with 200", called, rec.Code)
	}
}

func TestAuth_QueryTokenForSSE(t *testing.T) {
	tokens := newTokens(t)
	access, _, _, err := tokens.IssueAccess("authsess-1", "user-1", "parent")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	var gotUser string
	handler := Auth(tokens, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/v1/events?access_token="+access, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || gotUser != "user-1" {
		t.Errorf("query token: status = %d, user = %s, want 200 and user-1", rec.Code, gotUser)
	}
}
