package service

import (
	"context"
	"testing"
	"time"

	childdomain "walking-bus/backend/internal/child/domain"
	routedomain "walking-bus/backend/internal/route/domain"

	"walking-bus/backend/internal/activity/domain"
)

const (
	testSessionID  = "sess-1"
	testRouteID    = "route-1"
	testInstructor = "inst-1"
	testParent     = "parent-1"
)

var baseTime = time.Date(2026, 3, 9, 7, 30, 0, 0, time.UTC)

// fixture wires a Service against the in-memory repository with a controllable
// clock. The default route has three stations a, b, c at five-minute offsets.
type fixture struct {
	repo    *memRepo
	svc     *Service
	pusher  *recordingPusher
	weather *staticWeather
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &memRepo{
		session: &domain.ActivitySession{
			ID:          testSessionID,
			RouteID:     testRouteID,
			ScheduledAt: baseTime,
			CreatedAt:   baseTime.Add(-24 * time.Hour),
		},
		stops: []domain.StopVisit{
			{ID: "visit-a", SessionID: testSessionID, StationID: "station-a", StopNumber: 1, ScheduledAt: baseTime},
			{ID: "visit-b", SessionID: testSessionID, StationID: "station-b", StopNumber: 2, ScheduledAt: baseTime.Add(5 * time.Minute)},
			{ID: "visit-c", SessionID: testSessionID, StationID: "station-c", StopNumber: 3, ScheduledAt: baseTime.Add(10 * time.Minute)},
		},
		instructors: []string{testInstructor},
		children: map[string]domain.ChildRef{
			"child-1": {ID: "child-1", Name: "Mara"},
			"child-2": {ID: "child-2", Name: "Jonas"},
			"child-3": {ID: "child-3", Name: "Ines"},
		},
		stations: map[string]domain.StationRef{
			"station-a": {ID: "station-a", Name: "Market Square"},
			"station-b": {ID: "station-b", Name: "Old Bridge"},
			"station-c": {ID: "station-c", Name: "School Gate"},
		},
	}
	catalog := &memCatalog{
		route: &routedomain.Route{ID: testRouteID, Name: "North Loop", City: "Freiburg"},
		stations: []*routedomain.Station{
			{ID: "station-a", RouteID: testRouteID, Name: "Market Square", Position: 1, OffsetMinutes: 0},
			{ID: "station-b", RouteID: testRouteID, Name: "Old Bridge", Position: 2, OffsetMinutes: 5},
			{ID: "station-c", RouteID: testRouteID, Name: "School Gate", Position: 3, OffsetMinutes: 10},
		},
	}
	children := &memChildren{byID: map[string]*childdomain.Child{
		"child-1": {ID: "child-1", ParentID: testParent, DisplayName: "Mara"},
		"child-2": {ID: "child-2", ParentID: testParent, DisplayName: "Jonas"},
		"child-3": {ID: "child-3", ParentID: "parent-2", DisplayName: "Ines"},
	}}
	pusher := &recordingPusher{}
	weather := &staticWeather{snapshot: &domain.WeatherSnapshot{TemperatureC: 11.5, Condition: "cloudy"}}

	f := &fixture{repo: repo, pusher: pusher, weather: weather, clock: baseTime}
	f.svc = NewService(repo, catalog, weather, children, pusher, nil)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

// register puts a registration straight into the repository.
func (f *fixture) register(childID, pickup, dropoff string) {
	f.repo.regs = append(f.repo.regs, domain.Registration{
		ID:               "reg-" + childID,
		SessionID:        testSessionID,
		ChildID:          childID,
		PickupStationID:  pickup,
		DropoffStationID: dropoff,
		ParentID:         testParent,
		CreatedAt:        baseTime.Add(-time.Hour),
	})
}

func (f *fixture) mustStart(t *testing.T) {
	t.Helper()
	if _, err := f.svc.Start(context.Background(), testSessionID, testInstructor); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func (f *fixture) mustArrive(t *testing.T, stationID string) *StopInfo {
	t.Helper()
	info, err := f.svc.Arrive(context.Background(), testSessionID, stationID, testInstructor)
	if err != nil {
		t.Fatalf("Arrive(%s): %v", stationID, err)
	}
	return info
}

func (f *fixture) mustLeave(t *testing.T) *StopInfo {
	t.Helper()
	info, err := f.svc.Leave(context.Background(), testSessionID, testInstructor)
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	return info
}

func (f *fixture) mustCheckIn(t *testing.T, childID string) {
	t.Helper()
	if err := f.svc.CheckIn(context.Background(), testSessionID, childID, testInstructor); err != nil {
		t.Fatalf("CheckIn(%s): %v", childID, err)
	}
}

func (f *fixture) mustCheckOut(t *testing.T, childID string) {
	t.Helper()
	if err := f.svc.CheckOut(context.Background(), testSessionID, childID, testInstructor); err != nil {
		t.Fatalf("CheckOut(%s): %v", childID, err)
	}
}
