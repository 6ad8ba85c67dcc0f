package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"walking-bus/backend/internal/activity/domain"
)

// Schedule creates a session for the route at the given time, together with one
// stop visit per station in route order. Returns the created session.
func (s *Service) Schedule(ctx context.Context, routeID string, scheduledAt time.Time, nextLegID string) (*domain.ActivitySession, error) {
	route, err := s.catalog.Route(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, ErrRouteNotFound
	}
	stations, err := s.catalog.StationsFor(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		return nil, ErrRouteNotFound
	}

	now := s.now().UTC()
	session := &domain.ActivitySession{
		ID:          uuid.New().String(),
		RouteID:     routeID,
		ScheduledAt: scheduledAt.UTC(),
		NextLegID:   nextLegID,
		CreatedAt:   now,
	}
	stops := make([]domain.StopVisit, 0, len(stations))
	for i, station := range stations {
		stops = append(stops, domain.StopVisit{
			ID:          uuid.New().String(),
			SessionID:   session.ID,
			StationID:   station.ID,
			StopNumber:  i + 1,
			ScheduledAt: session.ScheduledAt.Add(time.Duration(station.OffsetMinutes) * time.Minute),
		})
	}
	if err := s.repo.CreateSession(ctx, session, stops); err != nil {
		return nil, err
	}
	s.emit(ctx, "session_scheduled", session.ID, "", "", "")
	return session, nil
}

// Describe returns the session snapshot for read-only display.
func (s *Service) Describe(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return s.repo.LoadState(ctx, sessionID)
}
