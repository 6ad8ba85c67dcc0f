package domain

import "errors"

// Domain failures are named, stable error kinds. They are expected, recoverable
// outcomes surfaced to the caller; handlers map them to HTTP status codes and
// nothing retries them automatically.
var (
	ErrSessionNotFound = errors.New("session not found")

	// Lifecycle.
	ErrNotAssigned         = errors.New("actor is not assigned to this session")
	ErrAlreadyStarted      = errors.New("session already started")
	ErrTooEarly            = errors.New("too early to start the session")
	ErrNotStarted          = errors.New("session not started")
	ErrAlreadyFinished     = errors.New("session already finished")
	ErrIncompleteCheckouts = errors.New("not all children are checked out")
	ErrStationsInProgress  = errors.New("more than one station is still in progress")

	// Stop progression.
	ErrNoStopsLeft            = errors.New("no stops left in this session")
	ErrAlreadyInAStop         = errors.New("a stop is already in progress")
	ErrNotInAStop             = errors.New("no stop is currently in progress")
	ErrChildrenPendingDropoff = errors.New("children still pending dropoff at this stop")
	ErrNoNextStation          = errors.New("no next station on this route")

	// Presence ledger.
	ErrNotRegisteredHere   = errors.New("child is not registered at this station")
	ErrAlreadyCheckedIn    = errors.New("child is already checked in")
	ErrAlreadyCheckedOut   = errors.New("child is already checked out")
	ErrNotCheckedIn        = errors.New("child is not checked in")
	ErrNotCheckedOut       = errors.New("child is not checked out")
	ErrNotAtCorrectStation = errors.New("child does not leave at this station")
)
