package domain

import "time"

// StopVisit is a session's occurrence of visiting one station. One row per stop
// per session, ordered by a dense StopNumber starting at 1.
type StopVisit struct {
	ID          string
	SessionID   string
	StationID   string
	StopNumber  int
	ScheduledAt time.Time
	ArrivedAt   *time.Time // nil until the bus arrives
	DepartedAt  *time.Time // nil until the bus leaves
}

// Open reports whether the visit has an arrival but no departure yet.
func (v *StopVisit) Open() bool { return v.ArrivedAt != nil && v.DepartedAt == nil }

// Departed reports whether the visit is closed.
func (v *StopVisit) Departed() bool { return v.DepartedAt != nil }
