package domain

import "time"

// Child belongs to a parent user. Only ID and DisplayName ever cross the
// engine boundary; everything else stays here.
type Child struct {
	ID          string
	ParentID    string
	DisplayName string
	CreatedAt   time.Time
}
