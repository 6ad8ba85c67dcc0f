package service

import (
	"context"
	"errors"
	"testing"
)

func TestRegister_HappyPath(t *testing.T) {
	f := newFixture(t)

	reg, err := f.svc.Register(context.Background(), testSessionID, "child-1", "station-a", "station-c", testParent, false)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.ParentID != testParent || reg.Late {
		t.Errorf("registration = %+v, want parent %s, not late", reg, testParent)
	}
	if len(f.repo.regs) != 1 {
		t.Errorf("stored registrations = %d, want 1", len(f.repo.regs))
	}
}

func TestRegister_StopOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name            string
		pickup, dropoff string
	}{
		{"reversed", "station-c", "station-a"},
		{"same stop", "station-b", "station-b"},
		{"pickup off route", "station-x", "station-c"},
		{"dropoff off route", "station-a", "station-x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, testSessionID, "child-1", tc.pickup, tc.dropoff, testParent, false)
			if !errors.Is(err, ErrInvalidStops) {
				t.Errorf("err = %v, want ErrInvalidStops", err)
			}
		})
	}
}

func TestRegister_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// child-3 belongs to parent-2.
	if _, err := f.svc.Register(ctx, testSessionID, "child-3", "station-a", "station-c", testParent, false); !errors.Is(err, ErrChildNotOwned) {
		t.Errorf("foreign child: err = %v, want ErrChildNotOwned", err)
	}
	if _, err := f.svc.Register(ctx, testSessionID, "child-3", "station-a", "station-c", testParent, true); err != nil {
		t.Errorf("admin override: %v", err)
	}
	if _, err := f.svc.Register(ctx, testSessionID, "child-missing", "station-a", "station-c", testParent, false); !errors.Is(err, ErrChildNotFound) {
		t.Errorf("unknown child: err = %v, want ErrChildNotFound", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, testSessionID, "child-1", "station-a", "station-c", testParent, false); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.svc.Register(ctx, testSessionID, "child-1", "station-b", "station-c", testParent, false); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("second Register: err = %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegister_InheritsLateFlag(t *testing.T) {
	f := newFixture(t)
	f.repo.session.LateRegistration = true

	reg, err := f.svc.Register(context.Background(), testSessionID, "child-1", "station-a", "station-c", testParent, false)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !reg.Late {
		t.Errorf("Late = false, want inherited true")
	}
}

func TestUnregister(t *testing.T) {
	f := newFixture(t)
	f.register("child-1", "station-a", "station-c")
	ctx := context.Background()

	if err := f.svc.Unregister(ctx, testSessionID, "child-1", "parent-2", false); !errors.Is(err, ErrChildNotOwned) {
		t.Errorf("foreign parent: err = %v, want ErrChildNotOwned", err)
	}
	if err := f.svc.Unregister(ctx, testSessionID, "child-1", testParent, false); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if len(f.repo.regs) != 0 {
		t.Errorf("registrations = %d, want 0", len(f.repo.regs))
	}
}

func TestUnregister_BlockedByPresence(t *testing.T) {
	f := newFixture(t)
	f.register("child-1", "station-a", "station-c")
	f.mustStart(t)
	f.mustArrive(t, "station-a")
	f.mustCheckIn(t, "child-1")

	if err := f.svc.Unregister(context.Background(), testSessionID, "child-1", testParent, false); !errors.Is(err, ErrChildHasPresence) {
		t.Fatalf("Unregister with ledger entries: err = %v, want ErrChildHasPresence", err)
	}
}

func TestRegistrationsForParent(t *testing.T) {
	f := newFixture(t)
	f.register("child-1", "station-a", "station-c")
	f.register("child-2", "station-b", "station-c")

	regs, err := f.svc.RegistrationsForParent(context.Background(), testParent)
	if err != nil {
		t.Fatalf("RegistrationsForParent: %v", err)
	}
	if len(regs) != 2 {
		t.Errorf("registrations = %d, want 2", len(regs))
	}
}
