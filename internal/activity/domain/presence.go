package domain

import "time"

// EventKind distinguishes boarding from leaving events.
type EventKind string

const (
	EventIn  EventKind = "IN"
	EventOut EventKind = "OUT"
)

// PresenceEvent is an append-only ledger fact: a child was checked in or out at
// a station within a session. Events are never updated; undo deletes the row.
type PresenceEvent struct {
	ID         string
	SessionID  string
	ChildID    string
	StationID  string
	Kind       EventKind
	RecordedBy string
	CreatedAt  time.Time
}
