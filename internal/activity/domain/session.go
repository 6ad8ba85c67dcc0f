package domain

import "time"

// ActivitySession is one execution of a route on one day.
type ActivitySession struct {
	ID               string
	RouteID          string
	ScheduledAt      time.Time
	StartedAt        *time.Time // nil until started
	FinishedAt       *time.Time // nil until finished; implies StartedAt is set
	StartedBy        string
	FinishedBy       string
	LateRegistration bool
	NextLegID        string // optional chained transfer leg; empty if none
	Weather          *WeatherSnapshot
	CreatedAt        time.Time
}

// WeatherSnapshot is the weather recorded at session start. Best-effort; may be absent.
type WeatherSnapshot struct {
	TemperatureC float64
	Condition    string
}

// Started reports whether the session has been started.
func (s *ActivitySession) Started() bool { return s.StartedAt != nil }

// Finished reports whether the session has been finished.
func (s *ActivitySession) Finished() bool { return s.FinishedAt != nil }
