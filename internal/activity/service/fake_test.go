package service

import (
	"context"
	"sync"
	"time"

	childdomain "walking-bus/backend/internal/child/domain"
	"walking-bus/backend/internal/notifier"
	routedomain "walking-bus/backend/internal/route/domain"

	"walking-bus/backend/internal/activity/domain"
	"walking-bus/backend/internal/activity/repository"
)

// memRepo implements repository.Repository in memory. InSessionTx holds the
// mutex for the whole callback, which models the row-lock serialization of the
// Postgres repository; mutations are staged and applied only when the callback
// succeeds, which models transaction rollback.
type memRepo struct {
	mu          sync.Mutex
	session     *domain.ActivitySession
	stops       []domain.StopVisit
	regs        []domain.Registration
	events      []domain.PresenceEvent
	instructors []string
	children    map[string]domain.ChildRef
	stations    map[string]domain.StationRef
}

func (r *memRepo) snapshot() *domain.SessionState {
	st := &domain.SessionState{
		Session:     *r.session,
		Instructors: append([]string(nil), r.instructors...),
		Children:    map[string]domain.ChildRef{},
		Stations:    map[string]domain.StationRef{},
	}
	st.Stops = append([]domain.StopVisit(nil), r.stops...)
	st.Registrations = append([]domain.Registration(nil), r.regs...)
	st.Events = append([]domain.PresenceEvent(nil), r.events...)
	for k, v := range r.children {
		st.Children[k] = v
	}
	for k, v := range r.stations {
		st.Stations[k] = v
	}
	return st
}

func (r *memRepo) CreateSession(ctx context.Context, s *domain.ActivitySession, stops []domain.StopVisit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.session = &s2
	r.stops = append([]domain.StopVisit(nil), stops...)
	return nil
}

func (r *memRepo) LoadState(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.ID != sessionID {
		return nil, domain.ErrSessionNotFound
	}
	return r.snapshot(), nil
}

func (r *memRepo) InSessionTx(ctx context.Context, sessionID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.ID != sessionID {
		return domain.ErrSessionNotFound
	}
	tx := &memTx{repo: r, state: r.snapshot()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, apply := range tx.pending {
		apply()
	}
	return nil
}

func (r *memRepo) ListRegistrationsByParent(ctx context.Context, parentID string) ([]*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Registration
	for i := range r.regs {
		if r.regs[i].ParentID == parentID {
			reg := r.regs[i]
			out = append(out, &reg)
		}
	}
	return out, nil
}

type memTx struct {
	repo    *memRepo
	state   *domain.SessionState
	pending []func()
}

func (t *memTx) State() *domain.SessionState { return t.state }

func (t *memTx) MarkStarted(ctx context.Context, at time.Time, actorID string, w *domain.WeatherSnapshot) error {
	// Mirrors the conditional UPDATE of the Postgres repository: if another
	// transaction already started the session, the write matches nothing.
	if t.repo.session.StartedAt != nil {
		return domain.ErrAlreadyStarted
	}
	t.pending = append(t.pending, func() {
		at := at
		t.repo.session.StartedAt = &at
		t.repo.session.StartedBy = actorID
		t.repo.session.Weather = w
	})
	return nil
}

func (t *memTx) MarkFinished(ctx context.Context, at time.Time, actorID string) error {
	if t.repo.session.FinishedAt != nil {
		return domain.ErrAlreadyFinished
	}
	t.pending = append(t.pending, func() {
		at := at
		t.repo.session.FinishedAt = &at
		t.repo.session.FinishedBy = actorID
	})
	return nil
}

func (t *memTx) MarkArrived(ctx context.Context, stopVisitID string, at time.Time) error {
	t.pending = append(t.pending, func() {
		for i := range t.repo.stops {
			if t.repo.stops[i].ID == stopVisitID && t.repo.stops[i].ArrivedAt == nil {
				at := at
				t.repo.stops[i].ArrivedAt = &at
			}
		}
	})
	return nil
}

func (t *memTx) MarkDeparted(ctx context.Context, stopVisitID string, at time.Time) error {
	t.pending = append(t.pending, func() {
		for i := range t.repo.stops {
			if t.repo.stops[i].ID == stopVisitID && t.repo.stops[i].DepartedAt == nil {
				at := at
				t.repo.stops[i].DepartedAt = &at
			}
		}
	})
	return nil
}

func (t *memTx) InsertPresence(ctx context.Context, e *domain.PresenceEvent) error {
	ev := *e
	t.pending = append(t.pending, func() {
		t.repo.events = append(t.repo.events, ev)
	})
	return nil
}

func (t *memTx) DeletePresence(ctx context.Context, childID string, kind domain.EventKind) error {
	t.pending = append(t.pending, func() {
		out := t.repo.events[:0]
		for _, ev := range t.repo.events {
			if ev.ChildID == childID && ev.Kind == kind {
				continue
			}
			out = append(out, ev)
		}
		t.repo.events = out
	})
	return nil
}

func (t *memTx) InsertRegistration(ctx context.Context, r *domain.Registration) error {
	reg := *r
	t.pending = append(t.pending, func() {
		t.repo.regs = append(t.repo.regs, reg)
	})
	return nil
}

func (t *memTx) DeleteRegistration(ctx context.Context, childID string) error {
	t.pending = append(t.pending, func() {
		out := t.repo.regs[:0]
		for _, reg := range t.repo.regs {
			if reg.ChildID == childID {
				continue
			}
			out = append(out, reg)
		}
		t.repo.regs = out
	})
	return nil
}

// memCatalog implements RouteCatalog.
type memCatalog struct {
	route    *routedomain.Route
	stations []*routedomain.Station
}

func (c *memCatalog) Route(ctx context.Context, id string) (*routedomain.Route, error) {
	if c.route != nil && c.route.ID == id {
		return c.route, nil
	}
	return nil, nil
}

func (c *memCatalog) StationsFor(ctx context.Context, routeID string) ([]*routedomain.Station, error) {
	if c.route == nil || c.route.ID != routeID {
		return nil, nil
	}
	return c.stations, nil
}

// memChildren implements ChildDirectory.
type memChildren struct {
	byID map[string]*childdomain.Child
}

func (d *memChildren) GetByID(ctx context.Context, id string) (*childdomain.Child, error) {
	return d.byID[id], nil
}

// recordingPusher captures pushed events.
type recordingPusher struct {
	mu     sync.Mutex
	events map[string][]notifier.Event
}

func (p *recordingPusher) Push(userID string, event notifier.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]notifier.Event{}
	}
	p.events[userID] = append(p.events[userID], event)
}

// staticWeather implements WeatherProvider with a fixed snapshot.
type staticWeather struct {
	snapshot *domain.WeatherSnapshot
	err      error
}

func (w *staticWeather) For(ctx context.Context, city string) (*domain.WeatherSnapshot, error) {
	return w.snapshot, w.err
}
