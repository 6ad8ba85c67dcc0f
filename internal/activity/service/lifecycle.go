package service

import (
	"context"
	"log"
	"time"

	"walking-bus/backend/internal/activity/domain"
	"walking-bus/backend/internal/activity/repository"
	"walking-bus/backend/internal/notifier"
)

// StatusKind is the lifecycle answer when no stop payload applies.
type StatusKind string

const (
	StatusNotStarted   StatusKind = "NOT_STARTED"
	StatusReadyToEnd   StatusKind = "READY_TO_END"
	StatusAlreadyEnded StatusKind = "ALREADY_ENDED"
	StatusInProgress   StatusKind = "IN_PROGRESS"
)

// Status describes where a session currently is. Stop is set only for
// StatusInProgress and carries the open or next stop visit.
type Status struct {
	Kind StatusKind `json:"kind"`
	Stop *StopInfo  `json:"stop,omitempty"`
}

// Start begins the session: records the starting actor and time, attaches a
// best-effort weather snapshot, and returns the first stop with no departure.
// Fails with ErrNotAssigned, ErrAlreadyStarted, or ErrTooEarly when now is more
// than 30 minutes before the scheduled time.
func (s *Service) Start(ctx context.Context, sessionID, actorID string) (*StopInfo, error) {
	// Weather is fetched outside the lock; a slow or failing lookup must not
	// extend the transaction or block starting.
	snapshot := s.lookupWeather(ctx, sessionID)

	var first *StopInfo
	var state *domain.SessionState
	err := s.repo.InSessionTx(ctx, sessionID, func(ctx context.Context, tx repository.Tx) error {
		st := tx.State()
		if err := requireAssigned(st, actorID); err != nil {
			return err
		}
		if st.Session.Started() {
			return domain.ErrAlreadyStarted
		}
		now := s.now().UTC()
		if now.Before(st.Session.ScheduledAt.Add(-startWindow)) {
			return domain.ErrTooEarly
		}
		if err := tx.MarkStarted(ctx, now, actorID, snapshot); err != nil {
			return err
		}
		first = stopInfo(st, st.CurrentStop())
		state = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, "session_started", sessionID, actorID, "", "")
	s.pushParents(state, notifier.Event{Type: notifier.SessionStarted, SessionID: sessionID, At: s.now().UTC()})
	return first, nil
}

// End finishes the session. Every registered child must have exactly one IN and
// one OUT event (ErrIncompleteCheckouts otherwise); more than one open stop is
// a corrupted run and fails with ErrStationsInProgress. The single remaining
// open stop, if any, is closed together with the finish timestamp.
func (s *Service) End(ctx context.Context, sessionID, actorID string) error {
	var state *domain.SessionState
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
		for i := range st.Registrations {
			if st.EventCount(st.Registrations[i].ChildID) != 2 {
				return domain.ErrIncompleteCheckouts
			}
		}
		if st.OpenCount() > 1 {
			return domain.ErrStationsInProgress
		}
		now := s.now().UTC()
		if open := st.OpenStop(); open != nil {
			if err := tx.MarkDeparted(ctx, open.ID, now); err != nil {
				return err
			}
		}
		if err := tx.MarkFinished(ctx, now, actorID); err != nil {
			return err
		}
		state = st
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, "session_finished", sessionID, actorID, "", "")
	s.pushParents(state, notifier.Event{Type: notifier.SessionFinished, SessionID: sessionID, At: s.now().UTC()})
	return nil
}

// Status answers, in order of precedence: not yet started; started with all
// stops closed (ready to end); already finished; otherwise the open or next
// stop enriched with in-station and last-station flags.
func (s *Service) Status(ctx context.Context, sessionID string) (*Status, error) {
	st, err := s.repo.LoadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !st.Session.Started() {
		return &Status{Kind: StatusNotStarted}, nil
	}
	if !st.Session.Finished() && st.OpenStop() == nil && st.CurrentStop() == nil {
		return &Status{Kind: StatusReadyToEnd}, nil
	}
	if st.Session.Finished() {
		return &Status{Kind: StatusAlreadyEnded}, nil
	}
	current := st.OpenStop()
	if current == nil {
		current = st.CurrentStop()
	}
	return &Status{Kind: StatusInProgress, Stop: stopInfo(st, current)}, nil
}

// lookupWeather resolves the session's route city and queries the provider.
// Any failure is logged and yields nil; starting never blocks on weather.
func (s *Service) lookupWeather(ctx context.Context, sessionID string) *domain.WeatherSnapshot {
	if s.weather == nil || s.catalog == nil {
		return nil
	}
	st, err := s.repo.LoadState(ctx, sessionID)
	if err != nil {
		return nil
	}
	route, err := s.catalog.Route(ctx, st.Session.RouteID)
	if err != nil || route == nil || route.City == "" {
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	snapshot, err := s.weather.For(wctx, route.City)
	if err != nil {
		log.Printf("activity: weather lookup failed for %s: %v", route.City, err)
		return nil
	}
	return snapshot
}
