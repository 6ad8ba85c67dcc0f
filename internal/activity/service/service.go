// Package service implements the activity session progression engine: the
// session lifecycle, the stop progress tracker, the presence ledger, and the
// derived views computed from them.
package service

import (
	"context"
	"errors"
	"time"

	"walking-bus/backend/internal/activity/domain"
	"walking-bus/backend/internal/activity/repository"
	childdomain "walking-bus/backend/internal/child/domain"
	"walking-bus/backend/internal/notifier"
	routedomain "walking-bus/backend/internal/route/domain"
	"walking-bus/backend/internal/telemetry"
	tdomain "walking-bus/backend/internal/telemetry/domain"
)

// Sentinel errors for scheduling and registration; handlers map them to status codes.
var (
	ErrRouteNotFound     = errors.New("route not found")
	ErrChildNotFound     = errors.New("child not found")
	ErrChildNotOwned     = errors.New("child does not belong to this parent")
	ErrInvalidStops      = errors.New("pickup and dropoff stations must lie on the route in boarding order")
	ErrAlreadyRegistered = errors.New("child is already registered for this session")
	ErrChildHasPresence  = errors.New("child already has presence events in this session")
)

// startWindow is how long before the scheduled time a session may be started.
const startWindow = 30 * time.Minute

// RouteCatalog supplies the read-only route/station reference data.
type RouteCatalog interface {
	Route(ctx context.Context, id string) (*routedomain.Route, error)
	StationsFor(ctx context.Context, routeID string) ([]*routedomain.Station, error)
}

// WeatherProvider looks up current weather for a city. Best-effort: absence of
// weather data never blocks an action.
type WeatherProvider interface {
	For(ctx context.Context, city string) (*domain.WeatherSnapshot, error)
}

// ChildDirectory resolves children for registration ownership checks.
type ChildDirectory interface {
	GetByID(ctx context.Context, id string) (*childdomain.Child, error)
}

// Pusher delivers fire-and-forget notifications to connected users.
type Pusher interface {
	Push(userID string, event notifier.Event)
}

// Service orchestrates all session actions. Every mutating operation runs as a
// single locked transaction via the repository, so invariants hold under
// concurrent instructor devices.
type Service struct {
	repo     repository.Repository
	catalog  RouteCatalog
	weather  WeatherProvider
	children ChildDirectory
	pusher   Pusher
	emitter  telemetry.EventEmitter

	now func() time.Time
}

// NewService returns a Service. weather, pusher, and emitter may be nil; the
// corresponding side effects are skipped.
func NewService(repo repository.Repository, catalog RouteCatalog, weather WeatherProvider, children ChildDirectory, pusher Pusher, emitter telemetry.EventEmitter) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		weather:  weather,
		children: children,
		pusher:   pusher,
		emitter:  emitter,
		now:      time.Now,
	}
}

// StopInfo is the boundary shape of a stop visit.
type StopInfo struct {
	StopVisitID   string    `json:"stopVisitId"`
	StationID     string    `json:"stationId"`
	StationName   string    `json:"stationName"`
	StopNumber    int       `json:"stopNumber"`
	ScheduledAt   time.Time `json:"scheduledAt"`
	IsInStation   bool      `json:"isInStation"`
	IsLastStation bool      `json:"isLastStation"`
}

func stopInfo(st *domain.SessionState, v *domain.StopVisit) *StopInfo {
	if v == nil {
		return nil
	}
	name := ""
	if s, ok := st.Stations[v.StationID]; ok {
		name = s.Name
	}
	remaining := 0
	for i := range st.Stops {
		if !st.Stops[i].Departed() {
			remaining++
		}
	}
	return &StopInfo{
		StopVisitID:   v.ID,
		StationID:     v.StationID,
		StationName:   name,
		StopNumber:    v.StopNumber,
		ScheduledAt:   v.ScheduledAt,
		IsInStation:   v.Open(),
		IsLastStation: remaining == 1,
	}
}

// push notifies a user if a pusher is configured. Failures are the pusher's to
// log; delivery is fire-and-forget by contract.
func (s *Service) push(userID string, event notifier.Event) {
	if s.pusher == nil || userID == "" {
		return
	}
	s.pusher.Push(userID, event)
}

// pushParents notifies every registering parent of the session once.
func (s *Service) pushParents(st *domain.SessionState, event notifier.Event) {
	seen := map[string]bool{}
	for i := range st.Registrations {
		p := st.Registrations[i].ParentID
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		s.push(p, event)
	}
}

// emit records a best-effort telemetry event for the action.
func (s *Service) emit(ctx context.Context, eventType, sessionID, userID, childID, stationID string) {
	if s.emitter == nil {
		return
	}
	telemetry.EmitAsync(s.emitter, ctx, &tdomain.Event{
		EventType: eventType,
		SessionID: sessionID,
		UserID:    userID,
		ChildID:   childID,
		StationID: stationID,
		Source:    "activity",
		CreatedAt: s.now().UTC(),
	})
}

func requireAssigned(st *domain.SessionState, actorID string) error {
	if !st.IsAssigned(actorID) {
		return domain.ErrNotAssigned
	}
	return nil
}
