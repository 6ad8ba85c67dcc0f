// Package notifier delivers real-time events to connected users. It is a
// process-wide registry keyed by user id with an explicit connect/disconnect
// lifecycle; delivery is fire-and-forget and failures are logged, never
// propagated to the action that produced the event.
package notifier

import (
	"log"
	"sync"
	"time"
)

// Event types pushed to clients.
const (
	SessionStarted  = "session_started"
	SessionFinished = "session_finished"
	ChildCheckedIn  = "child_checked_in"
	ChildCheckedOut = "child_checked_out"
)

// Event is a single push notification.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	ChildID   string    `json:"childId,omitempty"`
	StationID string    `json:"stationId,omitempty"`
	At        time.Time `json:"at"`
}

// Registry tracks connected users. A user may hold several connections
// (e.g. two devices); Push fans out to all of them.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[int]chan Event
	next  int
}

// NewRegistry returns an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[int]chan Event)}
}

// Connect registers a new connection for the user and returns the event
// channel plus a disconnect function. The caller must invoke disconnect when
// the connection closes, or the channel leaks.
func (r *Registry) Connect(userID string) (<-chan Event, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := r.next
	ch := make(chan Event, 16)
	if r.conns[userID] == nil {
		r.conns[userID] = make(map[int]chan Event)
	}
	r.conns[userID][id] = ch
	return ch, func() { r.disconnect(userID, id) }
}

func (r *Registry) disconnect(userID string, id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.conns[userID]; ok {
		if ch, ok := m[id]; ok {
			delete(m, id)
			close(ch)
		}
		if len(m) == 0 {
			delete(r.conns, userID)
		}
	}
}

// Push delivers the event to every connection of the user. A connection whose
// buffer is full is skipped: a stalled client must not block the action that
// produced the event.
func (r *Registry) Push(userID string, event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.conns[userID] {
		select {
		case ch <- event:
		default:
			log.Printf("notifier: dropping %s event for slow connection of user %s", event.Type, userID)
		}
	}
}

// Connected reports how many connections the user currently holds.
func (r *Registry) Connected(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}
