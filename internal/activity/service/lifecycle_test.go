package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"walking-bus/backend/internal/activity/domain"
	"walking-bus/backend/internal/notifier"
)

func TestStart_TooEarly(t *testing.T) {
	f := newFixture(t)
	f.clock = baseTime.Add(-40 * time.Minute)

	if _, err := f.svc.Start(context.Background(), testSessionID, testInstructor); !errors.Is(err, domain.ErrTooEarly) {
		t.Fatalf("Start 40m early: err = %v, want ErrTooEarly", err)
	}

	f.clock = baseTime.Add(-10 * time.Minute)
	first, err := f.svc.Start(context.Background(), testSessionID, testInstructor)
	if err != nil {
		t.Fatalf("Start 10m early: %v", err)
	}
	if first.StationID != "station-a" {
		t.Errorf("first stop = %s, want station-a", first.StationID)
	}
	if first.IsInStation {
		t.Errorf("first stop reported as open before any arrival")
	}
}

func TestStart_RecordsActorAndWeather(t *testing.T) {
	f := newFixture(t)
	f.mustStart(t)

	if f.repo.session.StartedAt == nil || !f.repo.session.StartedAt.Equal(baseTime) {
		t.Errorf("StartedAt = %v, want %v", f.repo.session.StartedAt, baseTime)
	}
	if got, want := f.repo.session.StartedBy, testInstructor; got != want {
		t.Errorf("StartedBy = %s, want %s", got, want)
	}
	w := f.repo.session.Weather
	if w == nil || w.Condition != "cloudy" {
		t.Errorf("weather snapshot = %+v, want cloudy", w)
	}
}

func TestStart_WeatherFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.weather.snapshot = nil
	f.weather.err = errors.New("upstream down")

	if _, err := f.svc.Start(context.Background(), testSessionID, testInstructor); err != nil {
		t.Fatalf("Start with failing weather: %v", err)
	}
	if f.repo.session.Weather != nil {
		t.Errorf("weather = %+v, want nil", f.repo.session.Weather)
	}
}

func TestStart_AlreadyStarted(t *testing.T) {
	f := newFixture(t)
	f.mustStart(t)

	if _, err := f.svc.Start(context.Background(), testSessionID, testInstructor); !errors.Is(err, domain.ErrAlreadyStarted) {
		t.Fatalf("second Start: err = %v, want ErrAlreadyStarted", err)
	}
}

func TestStart_ConcurrentCallsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	f.register("child-1", "station-a", "station-c")

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Start(context.Background(), testSessionID, testInstructor)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, alreadyStarted int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrAlreadyStarted):
			alreadyStarted++
		default:
			t.Fatalf("Start: unexpected err %v", err)
		}
	}
	if ok != 1 || alreadyStarted != 1 {
		t.Errorf("concurrent Start: %d succeeded, %d rejected, want exactly one of each", ok, alreadyStarted)
	}
	// Only the winner notifies the registered parent.
	if got := len(f.pusher.events[testParent]); got != 1 {
		t.Errorf("parent notifications = %d, want 1", got)
	}
}

func TestStart_NotAssigned(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Start(context.Background(), testSessionID, "inst-other"); !errors.Is(err, domain.ErrNotAssigned) {
		t.Fatalf("Start by unassigned user: err = %v, want ErrNotAssigned", err)
	}
}

func TestStart_NotifiesRegisteredParents(t *testing.T) {
	f := newFixture(t)
	f.register("child-1", "station-a", "station-c")
	f.register("child-2", "station-a", "station-b")
	f.mustStart(t)

	got := f.pusher.events[testParent]
	if len(got) != 1 {
		t.Fatalf("parent notifications = %d, want 1", len(got))
	}
	if got[0].Type != notifier.SessionStarted {
		t.Errorf("event type = %s, want %s", got[0].Type, notifier.SessionStarted)
	}
}

func TestEnd_IncompleteCheckouts(t *testing.T) {
	f := newFixture(t)
	f.register("child-1", "station-a", "station-c")
	f.mustStart(t)
	f.mustArrive(t, "station-a")
	f.mustCheckIn(t, "child-1")

	err := f.svc.End(context.Background(), testSessionID, testInstructor)
	if !errors.Is(err, domain.ErrIncompleteCheckouts) {
		t.Fatalf("End with child aboard: err = %v, want ErrIncompleteCheckouts", err)
	}
	if f.repo.session.FinishedAt != nil {
		t.Errorf("session finished despite rejected End")
	}
}

func TestEnd_ClosesOpenStop(t *testing.T) {
	f := newFixture(t)
	f.mustStart(t)
	f.mustArrive(t, "station-a")
	f.mustLeave(t)
	f.mustArrive(t, "station-b")
	f.mustLeave(t)
	f.mustArrive(t, "station-c")

	if err := f.svc.End(context.Background(), testSessionID, testInstructor); err != nil {
		t.Fatalf("End: %v", err)
	}
	for _, v := range f.repo.stops {
		if v.DepartedAt == nil {
			t.Errorf("stop %s left open after End", v.ID)
		}
	}
	if f.repo.session.FinishedAt == nil || f.repo.session.FinishedBy != testInstructor {
		t.Errorf("finish marker = (%v, %s), want set by %s", f.repo.session.FinishedAt, f.repo.session.FinishedBy, testInstructor)
	}
}

func TestEnd_LifecycleGuards(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.End(context.Background(), testSessionID, testInstructor); !errors.Is(err, domain.ErrNotStarted) {
		t.Fatalf("End before Start: err = %v, want ErrNotStarted", err)
	}

	f.mustStart(t)
	if err := f.svc.End(context.Background(), testSessionID, testInstructor); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := f.svc.End(context.Background(), testSessionID, testInstructor); !errors.Is(err, domain.ErrAlreadyFinished) {
		t.Fatalf("second End: err = %v, want ErrAlreadyFinished", err)
	}
}

func TestStatus_Precedence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.svc.Status(ctx, testSessionID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Kind != StatusNotStarted {
		t.Errorf("before start: kind = %s, want %s", status.Kind, StatusNotStarted)
	}

	f.mustStart(t)
	status, _ = f.svc.Status(ctx, testSessionID)
	if status.Kind != StatusInProgress {
		t.Fatalf("after start: kind = %s, want %s", status.Kind, StatusInProgress)
	}
	if status.Stop == nil || status.Stop.StationID != "station-a" || status.Stop.IsInStation {
		t.Errorf("after start: stop = %+v, want station-a not in station", status.Stop)
	}

	f.mustArrive(t, "station-a")
	status, _ = f.svc.Status(ctx, testSessionID)
	if status.Stop == nil || !status.Stop.IsInStation {
		t.Errorf("after arrive: stop = %+v, want in station", status.Stop)
	}

	f.mustLeave(t)
	f.mustArrive(t, "station-b")
	f.mustLeave(t)
	status, _ = f.svc.Status(ctx, testSessionID)
	if status.Stop == nil || status.Stop.StationID != "station-c" || !status.Stop.IsLastStation {
		t.Errorf("at final stop: stop = %+v, want last station-c", status.Stop)
	}

	// Close the last stop directly: READY_TO_END wins over IN_PROGRESS.
	f.mustArrive(t, "station-c")
	now := f.clock
	f.repo.stops[2].DepartedAt = &now
	status, _ = f.svc.Status(ctx, testSessionID)
	if status.Kind != StatusReadyToEnd {
		t.Errorf("all stops closed: kind = %s, want %s", status.Kind, StatusReadyToEnd)
	}

	if err := f.svc.End(ctx, testSessionID, testInstructor); err != nil {
		t.Fatalf("End: %v", err)
	}
	status, _ = f.svc.Status(ctx, testSessionID)
	if status.Kind != StatusAlreadyEnded {
		t.Errorf("after End: kind = %s, want %s", status.Kind, StatusAlreadyEnded)
	}
}

func TestStatus_UnknownSession(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Status(context.Background(), "sess-missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Status unknown session: err = %v, want ErrSessionNotFound", err)
	}
}
