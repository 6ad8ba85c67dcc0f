package service

import (
	"context"

	"github.com/google/uuid"

	"walking-bus/backend/internal/activity/domain"
	"walking-bus/backend/internal/activity/repository"
	"walking-bus/backend/internal/notifier"
)

// CheckIn records the child boarding at the current stop. The child must be
// registered with this stop as pickup, and must not already have an IN event;
// duplicates are rejected, never deduplicated.
func (s *Service) CheckIn(ctx context.Context, sessionID, childID, actorID string) error {
	var parentID, stationID string
	err := s.repo.InSessionTx(ctx, sessionID, func(ctx context.Context, tx repository.Tx) error {
		st := tx.State()
		if err := requireAssigned(st, actorID); err != nil {
			return err
		}
		current := st.CurrentStop()
		if current == nil {
			return domain.ErrNoStopsLeft
		}
		reg := st.RegistrationFor(childID)
		if reg == nil || reg.PickupStationID != current.StationID {
			return domain.ErrNotRegisteredHere
		}
		if st.HasEvent(childID, domain.EventIn) {
			return domain.ErrAlreadyCheckedIn
		}
		parentID, stationID = reg.ParentID, current.StationID
		return tx.InsertPresence(ctx, &domain.PresenceEvent{
			ID:         uuid.New().String(),
			SessionID:  sessionID,
			ChildID:    childID,
			StationID:  current.StationID,
			Kind:       domain.EventIn,
			RecordedBy: actorID,
			CreatedAt:  s.now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	s.emit(ctx, "child_checked_in", sessionID, actorID, childID, stationID)
	s.push(parentID, notifier.Event{
		Type: notifier.ChildCheckedIn, SessionID: sessionID, ChildID: childID,
		StationID: stationID, At: s.now().UTC(),
	})
	return nil
}

// CheckOut records the child leaving at the current stop. The child's dropoff
// must be the current stop and an IN event must already exist.
func (s *Service) CheckOut(ctx context.Context, sessionID, childID, actorID string) error {
	var parentID, stationID string
	err := s.repo.InSessionTx(ctx, sessionID, func(ctx context.Context, tx repository.Tx) error {
		st := tx.State()
		if err := requireAssigned(st, actorID); err != nil {
			return err
		}
		current := st.CurrentStop()
		if current == nil {
			return domain.ErrNoStopsLeft
		}
		reg := st.RegistrationFor(childID)
		if reg == nil {
			return domain.ErrNotRegisteredHere
		}
		if reg.DropoffStationID != current.StationID {
			return domain.ErrNotAtCorrectStation
		}
		if st.HasEvent(childID, domain.EventOut) {
			return domain.ErrAlreadyCheckedOut
		}
		if !st.HasEvent(childID, domain.EventIn) {
			return domain.ErrNotCheckedIn
		}
		parentID, stationID = reg.ParentID, current.StationID
		return tx.InsertPresence(ctx, &domain.PresenceEvent{
			ID:         uuid.New().String(),
			SessionID:  sessionID,
			ChildID:    childID,
			StationID:  current.StationID,
			Kind:       domain.EventOut,
			RecordedBy: actorID,
			CreatedAt:  s.now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	s.emit(ctx, "child_checked_out", sessionID, actorID, childID, stationID)
	s.push(parentID, notifier.Event{
		Type: notifier.ChildCheckedOut, SessionID: sessionID, ChildID: childID,
		StationID: stationID, At: s.now().UTC(),
	})
	return nil
}

// UndoCheckIn deletes the child's IN event. Fails with ErrNotCheckedIn when no
// IN event exists, or ErrAlreadyCheckedOut when an OUT event depends on it.
func (s *Service) UndoCheckIn(ctx context.Context, sessionID, childID, actorID string) error {
	err := s.repo.InSessionTx(ctx, sessionID, func(ctx context.Context, tx repository.Tx) error {
		st := tx.State()
		if err := requireAssigned(st, actorID); err != nil {
			return err
		}
		if !st.HasEvent(childID, domain.EventIn) {
			return domain.ErrNotCheckedIn
		}
		if st.HasEvent(childID, domain.EventOut) {
			return domain.ErrAlreadyCheckedOut
		}
		return tx.DeletePresence(ctx, childID, domain.EventIn)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, "checkin_undone", sessionID, actorID, childID, "")
	return nil
}

// UndoCheckOut deletes the child's OUT event. Fails with ErrNotCheckedOut when
// no OUT event exists.
func (s *Service) UndoCheckOut(ctx context.Context, sessionID, childID, actorID string) error {
	err := s.repo.InSessionTx(ctx, sessionID, func(ctx context.Context, tx repository.Tx) error {
		st := tx.State()
		if err := requireAssigned(st, actorID); err != nil {
			return err
		}
		if !st.HasEvent(childID, domain.EventOut) {
			return domain.ErrNotCheckedOut
		}
		return tx.DeletePresence(ctx, childID, domain.EventOut)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, "checkout_undone", sessionID, actorID, childID, "")
	return nil
}
