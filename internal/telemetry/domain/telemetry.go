package domain

import "time"

// Event is an activity telemetry event (session-scoped, optional user/child/station).
type Event struct {
	EventType string    `json:"eventType"`
	SessionID string    `json:"sessionId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	ChildID   string    `json:"childId,omitempty"`
	StationID string    `json:"stationId,omitempty"`
	Source    string    `json:"source,omitempty"`
	Metadata  []byte    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
