package service

import (
	"context"

	"walking-bus/backend/internal/activity/domain"
	"walking-bus/backend/internal/activity/repository"
)

// Arrive marks the bus as arrived at the given station. The station must be the
// lowest-numbered stop without a departure; stops are visited strictly in order
// and a closed stop never reopens. ErrAlreadyInAStop is the mutual-exclusion
// gate for two instructor devices racing to mark arrival.
func (s *Service) Arrive(ctx context.Context, sessionID, stationID, actorID string) (*StopInfo, error) {
	var info *StopInfo
	err := s.repo.InSessionTx(ctx, sessionID, func(ctx context.Context, tx repository.Tx) error {
		st := tx.State()
		if err := requireAssigned(st, actorID); err != nil {
			return err
		}
		if !st.Session.Started() {
			return domain.ErrNotStarted
		}
		if st.Session.Finished() {
			return domain.ErrAlreadyFinished
		}
		current := st.CurrentStop()
		if current == nil {
			return domain.ErrNoStopsLeft
		}
		if st.OpenStop() != nil {
			return domain.ErrAlreadyInAStop
		}
		if current.StationID != stationID {
			return domain.ErrNotAtCorrectStation
		}
		now := s.now().UTC()
		if err := tx.MarkArrived(ctx, current.ID, now); err != nil {
			return err
		}
		current.ArrivedAt = &now
		info = stopInfo(st, current)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, "stop_arrived", sessionID, actorID, "", stationID)
	return info, nil
}

// Leave closes the currently open stop and returns the next one. Children whose
// dropoff is the open stop must all have an OUT event first; the next stop is
// determined before the departure is written. The last stop cannot be left:
// ending the session closes it.
func (s *Service) Leave(ctx context.Context, sessionID, actorID string) (*StopInfo, error) {
	var next *StopInfo
	err := s.repo.InSessionTx(ctx, sessionID, func(ctx context.Context, tx repository.Tx) error {
		st := tx.State()
		if err := requireAssigned(st, actorID); err != nil {
			return err
		}
		if !st.Session.Started() {
			return domain.ErrNotStarted
		}
		if st.Session.Finished() {
			return domain.ErrAlreadyFinished
		}
		open := st.OpenStop()
		if open == nil {
			if st.CurrentStop() == nil {
				return domain.ErrNoStopsLeft
			}
			return domain.ErrNotInAStop
		}
		for i := range st.Registrations {
			reg := &st.Registrations[i]
			if reg.DropoffStationID == open.StationID && !st.HasEvent(reg.ChildID, domain.EventOut) {
				return domain.ErrChildrenPendingDropoff
			}
		}
		remaining := st.RemainingStops()
		if len(remaining) <= 1 {
			return domain.ErrNoNextStation
		}
		nextVisit := remaining[1]
		if err := tx.MarkDeparted(ctx, open.ID, s.now().UTC()); err != nil {
			return err
		}
		next = stopInfo(st, &nextVisit)
		// The open stop is closed now, so the returned stop is the new head.
		next.IsLastStation = len(remaining) == 2
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, "stop_departed", sessionID, actorID, "", "")
	return next, nil
}

// RemainingStops returns all stops with no departure, in stop order. The first
// element is the current stop.
func (s *Service) RemainingStops(ctx context.Context, sessionID string) ([]StopInfo, error) {
	st, err := s.repo.LoadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	remaining := st.RemainingStops()
	out := make([]StopInfo, 0, len(remaining))
	for i := range remaining {
		info := stopInfo(st, &remaining[i])
		info.IsLastStation = i == len(remaining)-1
		out = append(out, *info)
	}
	return out, nil
}
