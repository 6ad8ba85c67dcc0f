package service

import (
	"context"

	"github.com/google/uuid"

	"walking-bus/backend/internal/activity/domain"
	"walking-bus/backend/internal/activity/repository"
)

// Register enrolls a child for the session with the given pickup and dropoff
// stations. Both stations must lie on the session's route with the pickup
// strictly before the dropoff. parentID must own the child unless asAdmin is
// set. The registration inherits the session's late-registration flag.
func (s *Service) Register(ctx context.Context, sessionID, childID, pickupStationID, dropoffStationID, parentID string, asAdmin bool) (*domain.Registration, error) {
	child, err := s.children.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	if !asAdmin && child.ParentID != parentID {
		return nil, ErrChildNotOwned
	}

	var reg *domain.Registration
	err = s.repo.InSessionTx(ctx, sessionID, func(ctx context.Context, tx repository.Tx) error {
		st := tx.State()
		pickup := st.StopByStation(pickupStationID)
		dropoff := st.StopByStation(dropoffStationID)
		if pickup == nil || dropoff == nil || pickup.StopNumber >= dropoff.StopNumber {
			return ErrInvalidStops
		}
		if st.RegistrationFor(childID) != nil {
			return ErrAlreadyRegistered
		}
		reg = &domain.Registration{
			ID:               uuid.New().String(),
			SessionID:        sessionID,
			ChildID:          childID,
			PickupStationID:  pickupStationID,
			DropoffStationID: dropoffStationID,
			ParentID:         child.ParentID,
			Late:             st.Session.LateRegistration,
			CreatedAt:        s.now().UTC(),
		}
		return tx.InsertRegistration(ctx, reg)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, "child_registered", sessionID, parentID, childID, pickupStationID)
	return reg, nil
}

// Unregister hard-deletes the child's registration. Refused once the child has
// presence events; undo the events first.
func (s *Service) Unregister(ctx context.Context, sessionID, childID, parentID string, asAdmin bool) error {
	err := s.repo.InSessionTx(ctx, sessionID, func(ctx context.Context, tx repository.Tx) error {
		st := tx.State()
		reg := st.RegistrationFor(childID)
		if reg == nil {
			return domain.ErrNotRegisteredHere
		}
		if !asAdmin && reg.ParentID != parentID {
			return ErrChildNotOwned
		}
		if st.EventCount(childID) > 0 {
			return ErrChildHasPresence
		}
		return tx.DeleteRegistration(ctx, childID)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, "child_unregistered", sessionID, parentID, childID, "")
	return nil
}

// RegistrationsForParent lists a parent's registrations across sessions.
func (s *Service) RegistrationsForParent(ctx context.Context, parentID string) ([]*domain.Registration, error) {
	return s.repo.ListRegistrationsByParent(ctx, parentID)
}
