package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error { return m.pingErr }

type mockPolicyChecker struct {
	healthErr error
}

func (m *mockPolicyChecker) HealthCheck(context.Context) error { return m.healthErr }

func TestHealthHandler_AllHealthy(t *testing.T) {
	h := NewHealthHandler(&mockPinger{}, &mockPolicyChecker{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"serving"`) {
		t.Errorf("body = %q, want serving", rec.Body.String())
	}
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	h := NewHealthHandler(&mockPinger{pingErr: errors.New("connection refused")}, &mockPolicyChecker{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 503 {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("body = %q, want failing check detail", rec.Body.String())
	}
}

func TestHealthHandler_NilDependenciesServe(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
