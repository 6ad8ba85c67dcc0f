package notifier

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"walking-bus/backend/internal/server/middleware"
)

func TestSSEHandler_StreamsEvents(t *testing.T) {
	reg := NewRegistry()
	h := NewSSEHandler(reg)

	ctx, cancel := context.WithCancel(context.Background())
	ctx = middleware.WithIdentity(ctx, "parent-1", "parent", "sess-1")

	req := httptest.NewRequest("GET", "/api/v1/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the connection to register before pushing.
	deadline := time.Now().Add(2 * time.Second)
	for reg.Connected("parent-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	reg.Push("parent-1", Event{Type: ChildCheckedIn, SessionID: "s1", ChildID: "c1", At: time.Now()})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: child_checked_in") {
		t.Errorf("body missing event line: %q", body)
	}
	if !strings.Contains(body, `"childId":"c1"`) {
		t.Errorf("body missing event payload: %q", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	if reg.Connected("parent-1") != 0 {
		t.Error("connection not released after handler returned")
	}
}

func TestSSEHandler_RequiresIdentity(t *testing.T) {
	h := NewSSEHandler(NewRegistry())
	req := httptest.NewRequest("GET", "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 401 {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
