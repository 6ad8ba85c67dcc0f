package domain

import "time"

// Message is one entry on a session's message board. Messages are visible to
// everyone participating in the session.
type Message struct {
	ID        string
	SessionID string
	UserID    string
	Body      string
	CreatedAt time.Time
}
