package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"walking-bus/backend/internal/audit/domain"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *memAuditRepo) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	return nil, nil
}

func (r *memAuditRepo) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (r *memAuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, a)
	return nil
}

func TestAudit_RecordsAuthenticatedRequest(t *testing.T) {
	repo := &memAuditRepo{}
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/sessions/{id}/arrive", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("POST")
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), "user-1", "instructor", "authsess-1")))
		})
	})
	router.Use(Audit(repo, nil))

	req := httptest.NewRequest("POST", "/api/v1/sessions/sess-1/arrive", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.UserID != "user-1" || e.Action != "arrive" || e.Resource != "session" {
		t.Errorf("entry = %+v, want arrive/session by user-1", e)
	}
	if e.IP != "203.0.113.9" {
		t.Errorf("IP = %s, want first X-Forwarded-For hop", e.IP)
	}
}

func TestAudit_SkipsAnonymousRequest(t *testing.T) {
	repo := &memAuditRepo{}
	handler := Audit(repo, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if len(repo.entries) != 0 {
		t.Errorf("entries = %d, want 0 for anonymous request", len(repo.entries))
	}
}

func TestAudit_SkipPaths(t *testing.T) {
	repo := &memAuditRepo{}
	skip := map[string]bool{"/healthz": true}
	handler := Audit(repo, skip)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("POST", "/healthz", nil)
	req = req.WithContext(WithIdentity(req.Context(), "user-1", "admin", "authsess-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(repo.entries) != 0 {
		t.Errorf("entries = %d, want 0 for skipped path", len(repo.entries))
	}
}

func TestAudit_SkipsReadRequests(t *testing.T) {
	repo := &memAuditRepo{}
	handler := Audit(repo, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/api/v1/sessions/sess-1/overview", nil)
	req = req.WithContext(WithIdentity(req.Context(), "user-1", "instructor", "authsess-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(repo.entries) != 0 {
		t.Errorf("entries = %d, want 0 for read request", len(repo.entries))
	}
}

func TestClientIP_Fallbacks(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	if got := ClientIP(req); got != "192.0.2.7" {
		t.Errorf("ClientIP = %s, want 192.0.2.7", got)
	}

	req.Header.Set("X-Real-IP", "198.51.100.4")
	if got := ClientIP(req); got != "198.51.100.4" {
		t.Errorf("ClientIP = %s, want X-Real-IP value", got)
	}
}
