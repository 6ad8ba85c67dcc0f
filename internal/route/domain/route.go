package domain

import "time"

// Route is a fixed walking-bus line. Its stations are immutable for a run;
// authoring tooling lives outside this service.
type Route struct {
	ID        string
	Name      string
	City      string
	CreatedAt time.Time
}

// Station is a fixed point on a route. Position is the dense boarding order
// starting at 1; OffsetMinutes is the scheduled offset from the session start.
type Station struct {
	ID            string
	RouteID       string
	Name          string
	Position      int
	OffsetMinutes int
}
