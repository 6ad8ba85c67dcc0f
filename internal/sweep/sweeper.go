// Package sweep flips the late-registration flag on sessions whose scheduled
// time is close enough that new registrations should be marked late.
package sweep

import (
	"context"
	"log"
	"time"
)

// Repository is the narrow persistence surface the sweeper needs.
type Repository interface {
	// ListUpcomingWithoutLateFlag returns ids of sessions scheduled between
	// now and now+horizon whose late-registration flag is still unset.
	ListUpcomingWithoutLateFlag(ctx context.Context, now time.Time, horizon time.Duration) ([]string, error)
	// SetLateRegistration sets the flag on one session. Idempotent.
	SetLateRegistration(ctx context.Context, sessionID string) error
}

// Sweeper runs the periodic pass. Per-session failures are logged and retried
// on the next tick; the flag update is a single-field write so a retry can
// never conflict with anything.
type Sweeper struct {
	repo    Repository
	horizon time.Duration

	now func() time.Time
}

// NewSweeper returns a Sweeper marking sessions within horizon of now.
func NewSweeper(repo Repository, horizon time.Duration) *Sweeper {
	return &Sweeper{repo: repo, horizon: horizon, now: time.Now}
}

// Run executes sweeps every interval until ctx is cancelled. One sweep runs
// immediately on start.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if n, err := s.Sweep(ctx); err != nil {
		log.Printf("sweep: %v", err)
	} else if n > 0 {
		log.Printf("sweep: marked %d sessions", n)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Printf("sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweep: marked %d sessions", n)
			}
		}
	}
}

// Sweep performs one pass and returns how many sessions were marked.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ids, err := s.repo.ListUpcomingWithoutLateFlag(ctx, s.now().UTC(), s.horizon)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, id := range ids {
		if err := s.repo.SetLateRegistration(ctx, id); err != nil {
			log.Printf("sweep: session %s: %v", id, err)
			continue
		}
		marked++
	}
	return marked, nil
}
