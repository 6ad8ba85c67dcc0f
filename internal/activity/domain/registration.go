package domain

import "time"

// Registration is a child's participation in a session: where the child boards
// and where it leaves. Created once per child per session; immutable after
// creation (removal is a hard delete).
type Registration struct {
	ID               string
	SessionID        string
	ChildID          string
	PickupStationID  string
	DropoffStationID string
	ParentID         string
	Late             bool
	CreatedAt        time.Time
}
