// Package repository persists activity sessions, stop visits, registrations,
// and the presence ledger.
package repository

import (
	"context"
	"time"

	"walking-bus/backend/internal/activity/domain"
)

// Tx is the mutation surface available inside a locked session transaction.
// State returns the snapshot taken under the lock; all writes below apply to
// the same transaction and become visible atomically on commit.
type Tx interface {
	State() *domain.SessionState

	MarkStarted(ctx context.Context, at time.Time, actorID string, w *domain.WeatherSnapshot) error
	MarkFinished(ctx context.Context, at time.Time, actorID string) error
	MarkArrived(ctx context.Context, stopVisitID string, at time.Time) error
	MarkDeparted(ctx context.Context, stopVisitID string, at time.Time) error

	InsertPresence(ctx context.Context, e *domain.PresenceEvent) error
	DeletePresence(ctx context.Context, childID string, kind domain.EventKind) error

	InsertRegistration(ctx context.Context, r *domain.Registration) error
	DeleteRegistration(ctx context.Context, childID string) error
}

// Repository is the store for the progression engine. InSessionTx runs fn
// inside a transaction holding row locks on the session's stop visits, so the
// single-open-stop and one-IN-one-OUT invariants are checked and enforced
// without a race window between the existence check and the write.
type Repository interface {
	CreateSession(ctx context.Context, s *domain.ActivitySession, stops []domain.StopVisit) error
	LoadState(ctx context.Context, sessionID string) (*domain.SessionState, error)
	InSessionTx(ctx context.Context, sessionID string, fn func(ctx context.Context, tx Tx) error) error
	ListRegistrationsByParent(ctx context.Context, parentID string) ([]*domain.Registration, error)
}
