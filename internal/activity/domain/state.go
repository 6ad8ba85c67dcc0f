package domain

// ChildRef is the shape child data takes when it leaves the core boundary:
// identity and display name only, no ledger internals.
type ChildRef struct {
	ID   string
	Name string
}

// StationRef identifies a station of the session's route.
type StationRef struct {
	ID   string
	Name string
}

// SessionState is a consistent snapshot of everything the progression engine
// needs about one session: the session row, its stop visits in stop order, the
// registrations, the presence ledger, and lookup tables for display data.
//
// Mutating operations obtain it under a row lock on the session's stop visits
// so that invariant checks and writes happen atomically; reads get a plain
// snapshot and recompute derived views on every call.
type SessionState struct {
	Session       ActivitySession
	Stops         []StopVisit // ascending StopNumber
	Registrations []Registration
	Events        []PresenceEvent
	Instructors   []string // user ids assigned to this session
	Children      map[string]ChildRef
	Stations      map[string]StationRef
}

// OpenStop returns the stop visit with arrival set and departure unset, or nil.
// The engine keeps at most one of these; OpenCount exists for the defensive
// check at session end.
func (st *SessionState) OpenStop() *StopVisit {
	for i := range st.Stops {
		if st.Stops[i].Open() {
			return &st.Stops[i]
		}
	}
	return nil
}

// OpenCount returns how many stop visits are currently open.
func (st *SessionState) OpenCount() int {
	n := 0
	for i := range st.Stops {
		if st.Stops[i].Open() {
			n++
		}
	}
	return n
}

// RemainingStops returns all stop visits with no departure, in stop order.
// The first element is the current stop; "current" is always derived from the
// rows, never stored, so concurrent writers cannot desynchronize it.
func (st *SessionState) RemainingStops() []StopVisit {
	var out []StopVisit
	for i := range st.Stops {
		if !st.Stops[i].Departed() {
			out = append(out, st.Stops[i])
		}
	}
	return out
}

// CurrentStop returns the lowest-numbered stop visit with no departure, or nil
// when the route has been fully traversed.
func (st *SessionState) CurrentStop() *StopVisit {
	for i := range st.Stops {
		if !st.Stops[i].Departed() {
			return &st.Stops[i]
		}
	}
	return nil
}

// StopByStation returns the stop visit for the given station, or nil.
func (st *SessionState) StopByStation(stationID string) *StopVisit {
	for i := range st.Stops {
		if st.Stops[i].StationID == stationID {
			return &st.Stops[i]
		}
	}
	return nil
}

// RegistrationFor returns the child's registration in this session, or nil.
func (st *SessionState) RegistrationFor(childID string) *Registration {
	for i := range st.Registrations {
		if st.Registrations[i].ChildID == childID {
			return &st.Registrations[i]
		}
	}
	return nil
}

// HasEvent reports whether the child already has a presence event of the given kind.
func (st *SessionState) HasEvent(childID string, kind EventKind) bool {
	for i := range st.Events {
		if st.Events[i].ChildID == childID && st.Events[i].Kind == kind {
			return true
		}
	}
	return false
}

// EventCount returns the number of presence events for the child. A child's
// session is complete exactly when this is 2 (one IN and one OUT).
func (st *SessionState) EventCount(childID string) int {
	n := 0
	for i := range st.Events {
		if st.Events[i].ChildID == childID {
			n++
		}
	}
	return n
}

// IsAssigned reports whether the user is among the session's assigned instructors.
func (st *SessionState) IsAssigned(userID string) bool {
	for _, id := range st.Instructors {
		if id == userID {
			return true
		}
	}
	return false
}

// ChildRefFor returns the boundary-safe child data for the id. Falls back to a
// ref carrying only the id when the lookup table has no entry.
func (st *SessionState) ChildRefFor(childID string) ChildRef {
	if c, ok := st.Children[childID]; ok {
		return c
	}
	return ChildRef{ID: childID}
}
