package service

import (
	"context"
	"sort"

	"walking-bus/backend/internal/activity/domain"
)

// StopChildren pairs a stop with the children expected to board there.
type StopChildren struct {
	Stop     StopInfo          `json:"stop"`
	Children []domain.ChildRef `json:"children"`
}

// Overview is the full derived picture at the current stop. It is recomputed
// from the registrations and the presence ledger on every call; nothing here is
// cached, so concurrent writers can never leave a stale counter behind.
type Overview struct {
	CurrentStop           *StopInfo         `json:"currentStop"`
	ToPickUpHere          []domain.ChildRef `json:"toPickUpHere"`
	AlreadyPickedUp       []domain.ChildRef `json:"alreadyPickedUp"`
	ToPickUpUpcoming      []StopChildren    `json:"toPickUpUpcoming"`
	ToDropOffHere         []domain.ChildRef `json:"toDropOffHere"`
	AlreadyDroppedOffHere []domain.ChildRef `json:"alreadyDroppedOffHere"`
	YetToDropOff          []domain.ChildRef `json:"yetToDropOff"`
	DroppedOffElsewhere   []domain.ChildRef `json:"droppedOffElsewhere"`
}

// Overview computes all derived views for the session's current stop.
func (s *Service) Overview(ctx context.Context, sessionID string) (*Overview, error) {
	st, err := s.repo.LoadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	o := &Overview{}
	current := st.CurrentStop()
	if current == nil {
		return o, nil
	}
	o.CurrentStop = stopInfo(st, current)
	o.ToPickUpHere = ChildrenToPickUpHere(st)
	o.AlreadyPickedUp = ChildrenAlreadyPickedUp(st)
	o.ToPickUpUpcoming = s.childrenToPickUpUpcoming(st)
	o.ToDropOffHere, o.AlreadyDroppedOffHere = ChildrenToDropOffHere(st)
	o.YetToDropOff = ChildrenYetToDropOff(st)
	o.DroppedOffElsewhere = ChildrenDroppedOffElsewhere(st)
	return o, nil
}

// ChildrenToPickUpHere returns children registered to board at the current stop
// that have no IN event yet.
func ChildrenToPickUpHere(st *domain.SessionState) []domain.ChildRef {
	current := st.CurrentStop()
	if current == nil {
		return nil
	}
	var out []domain.ChildRef
	for i := range st.Registrations {
		reg := &st.Registrations[i]
		if reg.PickupStationID == current.StationID && !st.HasEvent(reg.ChildID, domain.EventIn) {
			out = append(out, st.ChildRefFor(reg.ChildID))
		}
	}
	return out
}

// ChildrenAlreadyPickedUp returns children registered to board at the current
// stop that already have an IN event. Together with ChildrenToPickUpHere it
// partitions the current stop's pickup registrations.
func ChildrenAlreadyPickedUp(st *domain.SessionState) []domain.ChildRef {
	current := st.CurrentStop()
	if current == nil {
		return nil
	}
	var out []domain.ChildRef
	for i := range st.Registrations {
		reg := &st.Registrations[i]
		if reg.PickupStationID == current.StationID && st.HasEvent(reg.ChildID, domain.EventIn) {
			out = append(out, st.ChildRefFor(reg.ChildID))
		}
	}
	return out
}

// childrenToPickUpUpcoming lists pickups per remaining stop after the current
// one, in stop order. Stops without pending pickups still get a group so the
// caller sees the full remaining route.
func (s *Service) childrenToPickUpUpcoming(st *domain.SessionState) []StopChildren {
	remaining := st.RemainingStops()
	if len(remaining) < 2 {
		return nil
	}
	var out []StopChildren
	for i := 1; i < len(remaining); i++ {
		stop := remaining[i]
		var kids []domain.ChildRef
		for j := range st.Registrations {
			reg := &st.Registrations[j]
			if reg.PickupStationID == stop.StationID && !st.HasEvent(reg.ChildID, domain.EventIn) {
				kids = append(kids, st.ChildRefFor(reg.ChildID))
			}
		}
		info := stopInfo(st, &stop)
		info.IsLastStation = i == len(remaining)-1
		out = append(out, StopChildren{Stop: *info, Children: kids})
	}
	return out
}

// ChildrenToDropOffHere partitions children whose dropoff is the current stop
// by presence-event count: one event means still aboard (pending), two means done.
func ChildrenToDropOffHere(st *domain.SessionState) (pending, done []domain.ChildRef) {
	current := st.CurrentStop()
	if current == nil {
		return nil, nil
	}
	for i := range st.Registrations {
		reg := &st.Registrations[i]
		if reg.DropoffStationID != current.StationID {
			continue
		}
		switch st.EventCount(reg.ChildID) {
		case 1:
			pending = append(pending, st.ChildRefFor(reg.ChildID))
		case 2:
			done = append(done, st.ChildRefFor(reg.ChildID))
		}
	}
	return pending, done
}

// ChildrenYetToDropOff returns children still aboard whose dropoff lies ahead
// of the current stop, ordered by how soon their dropoff comes up.
func ChildrenYetToDropOff(st *domain.SessionState) []domain.ChildRef {
	current := st.CurrentStop()
	if current == nil {
		return nil
	}
	remainingIndex := map[string]int{}
	for i, stop := range st.RemainingStops() {
		remainingIndex[stop.StationID] = i
	}
	type entry struct {
		ref   domain.ChildRef
		order int
	}
	var entries []entry
	for i := range st.Registrations {
		reg := &st.Registrations[i]
		if reg.DropoffStationID == current.StationID || st.EventCount(reg.ChildID) != 1 {
			continue
		}
		order, ok := remainingIndex[reg.DropoffStationID]
		if !ok {
			order = len(st.Stops)
		}
		entries = append(entries, entry{ref: st.ChildRefFor(reg.ChildID), order: order})
	}
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].order < entries[b].order })
	out := make([]domain.ChildRef, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ref)
	}
	return out
}

// ChildrenDroppedOffElsewhere returns children whose session is complete (one
// IN and one OUT) and whose dropoff is not the current stop.
func ChildrenDroppedOffElsewhere(st *domain.SessionState) []domain.ChildRef {
	current := st.CurrentStop()
	if current == nil {
		return nil
	}
	var out []domain.ChildRef
	for i := range st.Registrations {
		reg := &st.Registrations[i]
		if reg.DropoffStationID != current.StationID && st.EventCount(reg.ChildID) == 2 {
			out = append(out, st.ChildRefFor(reg.ChildID))
		}
	}
	return out
}
