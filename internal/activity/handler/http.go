// Package handler exposes the activity session endpoints: scheduling, the
// lifecycle actions, stop progression, the presence ledger, registrations,
// and the derived overview.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"walking-bus/backend/internal/activity/domain"
	"walking-bus/backend/internal/activity/service"
	"walking-bus/backend/internal/platform/rbac"
	"walking-bus/backend/internal/server/respond"
	userdomain "walking-bus/backend/internal/user/domain"
)

type ActivityHandler struct {
	svc   *service.Service
	guard *rbac.Guard
}

// NewActivityHandler returns the activity HTTP handler.
func NewActivityHandler(svc *service.Service, guard *rbac.Guard) *ActivityHandler {
	return &ActivityHandler{svc: svc, guard: guard}
}

// --- scheduling ---

type scheduleRequest struct {
	RouteID     string    `json:"routeId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	NextLegID   string    `json:"nextLegId,omitempty"`
}

type sessionResponse struct {
	ID               string           `json:"id"`
	RouteID          string           `json:"routeId"`
	ScheduledAt      time.Time        `json:"scheduledAt"`
	StartedAt        *time.Time       `json:"startedAt,omitempty"`
	FinishedAt       *time.Time       `json:"finishedAt,omitempty"`
	LateRegistration bool             `json:"lateRegistration"`
	NextLegID        string           `json:"nextLegId,omitempty"`
	Weather          *weatherResponse `json:"weather,omitempty"`
}

type weatherResponse struct {
	TemperatureC float64 `json:"temperatureC"`
	Condition    string  `json:"condition"`
}

func sessionToResponse(s *domain.ActivitySession) sessionResponse {
	out := sessionResponse{
		ID:               s.ID,
		RouteID:          s.RouteID,
		ScheduledAt:      s.ScheduledAt,
		StartedAt:        s.StartedAt,
		FinishedAt:       s.FinishedAt,
		LateRegistration: s.LateRegistration,
		NextLegID:        s.NextLegID,
	}
	if s.Weather != nil {
		out.Weather = &weatherResponse{TemperatureC: s.Weather.TemperatureC, Condition: s.Weather.Condition}
	}
	return out
}

func (h *ActivityHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.guard.Require(r.Context(), "session.schedule"); err != nil {
		respond.GuardError(w, err)
		return
	}
	var req scheduleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RouteID == "" || req.ScheduledAt.IsZero() {
		respond.Error(w, http.StatusBadRequest, "routeId and scheduledAt are required")
		return
	}
	s, err := h.svc.Schedule(r.Context(), req.RouteID, req.ScheduledAt, req.NextLegID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, sessionToResponse(s))
}

func (h *ActivityHandler) Describe(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.guard.Require(r.Context(), "session.read"); err != nil {
		respond.GuardError(w, err)
		return
	}
	st, err := h.svc.Describe(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	stops := make([]map[string]any, 0, len(st.Stops))
	for i := range st.Stops {
		v := &st.Stops[i]
		name := ""
		if s, ok := st.Stations[v.StationID]; ok {
			name = s.Name
		}
		stops = append(stops, map[string]any{
			"stopVisitId": v.ID,
			"stationId":   v.StationID,
			"stationName": name,
			"stopNumber":  v.StopNumber,
			"scheduledAt": v.ScheduledAt,
			"arrivedAt":   v.ArrivedAt,
			"departedAt":  v.DepartedAt,
		})
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"session": sessionToResponse(&st.Session),
		"stops":   stops,
	})
}

// --- lifecycle ---

func (h *ActivityHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, _, err := h.guard.Require(r.Context(), "session.run")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	stop, err := h.svc.Start(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"firstStop": stop})
}

func (h *ActivityHandler) End(w http.ResponseWriter, r *http.Request) {
	userID, _, err := h.guard.Require(r.Context(), "session.run")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	if err := h.svc.End(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func (h *ActivityHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.guard.Require(r.Context(), "session.read"); err != nil {
		respond.GuardError(w, err)
		return
	}
	status, err := h.svc.Status(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, status)
}

// --- stop progression ---

type arriveRequest struct {
	StationID string `json:"stationId"`
}

func (h *ActivityHandler) Arrive(w http.ResponseWriter, r *http.Request) {
	userID, _, err := h.guard.Require(r.Context(), "session.run")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	var req arriveRequest
	if err := respond.Decode(r, &req); err != nil || req.StationID == "" {
		respond.Error(w, http.StatusBadRequest, "stationId is required")
		return
	}
	stop, err := h.svc.Arrive(r.Context(), mux.Vars(r)["id"], req.StationID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"stop": stop})
}

func (h *ActivityHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, _, err := h.guard.Require(r.Context(), "session.run")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	next, err := h.svc.Leave(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"nextStop": next})
}

func (h *ActivityHandler) RemainingStops(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.guard.Require(r.Context(), "session.read"); err != nil {
		respond.GuardError(w, err)
		return
	}
	stops, err := h.svc.RemainingStops(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if stops == nil {
		stops = []service.StopInfo{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"stops": stops})
}

// --- presence ledger ---

func (h *ActivityHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.ledgerAction(w, r, h.svc.CheckIn)
}

func (h *ActivityHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.ledgerAction(w, r, h.svc.CheckOut)
}

func (h *ActivityHandler) UndoCheckIn(w http.ResponseWriter, r *http.Request) {
	h.ledgerAction(w, r, h.svc.UndoCheckIn)
}

func (h *ActivityHandler) UndoCheckOut(w http.ResponseWriter, r *http.Request) {
	h.ledgerAction(w, r, h.svc.UndoCheckOut)
}

func (h *ActivityHandler) ledgerAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sessionID, childID, actorID string) error) {
	userID, _, err := h.guard.Require(r.Context(), "session.run")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := fn(r.Context(), vars["id"], vars["childId"], userID); err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

// --- derived views ---

func (h *ActivityHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.guard.Require(r.Context(), "session.run"); err != nil {
		respond.GuardError(w, err)
		return
	}
	ov, err := h.svc.Overview(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ov)
}

// --- registrations ---

type registerRequest struct {
	ChildID          string `json:"childId"`
	PickupStationID  string `json:"pickupStationId"`
	DropoffStationID string `json:"dropoffStationId"`
}

type registrationResponse struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"sessionId"`
	ChildID          string    `json:"childId"`
	PickupStationID  string    `json:"pickupStationId"`
	DropoffStationID string    `json:"dropoffStationId"`
	Late             bool      `json:"late"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (h *ActivityHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, role, err := h.guard.Require(r.Context(), "registration.manage")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChildID == "" || req.PickupStationID == "" || req.DropoffStationID == "" {
		respond.Error(w, http.StatusBadRequest, "childId, pickupStationId and dropoffStationId are required")
		return
	}
	asAdmin := role == string(userdomain.RoleAdmin)
	reg, err := h.svc.Register(r.Context(), mux.Vars(r)["id"], req.ChildID, req.PickupStationID, req.DropoffStationID, userID, asAdmin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, registrationResponse{
		ID:               reg.ID,
		SessionID:        reg.SessionID,
		ChildID:          reg.ChildID,
		PickupStationID:  reg.PickupStationID,
		DropoffStationID: reg.DropoffStationID,
		Late:             reg.Late,
		CreatedAt:        reg.CreatedAt,
	})
}

func (h *ActivityHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	userID, role, err := h.guard.Require(r.Context(), "registration.manage")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	vars := mux.Vars(r)
	asAdmin := role == string(userdomain.RoleAdmin)
	if err := h.svc.Unregister(r.Context(), vars["id"], vars["childId"], userID, asAdmin); err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func (h *ActivityHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	userID, _, err := h.guard.Require(r.Context(), "registration.manage")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	regs, err := h.svc.RegistrationsForParent(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]registrationResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, registrationResponse{
			ID:               reg.ID,
			SessionID:        reg.SessionID,
			ChildID:          reg.ChildID,
			PickupStationID:  reg.PickupStationID,
			DropoffStationID: reg.DropoffStationID,
			Late:             reg.Late,
			CreatedAt:        reg.CreatedAt,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}

// writeError maps domain and service errors to HTTP status codes. Unknown
// errors become 500s with a generic body.
func (h *ActivityHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, service.ErrRouteNotFound),
		errors.Is(err, service.ErrChildNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotAssigned),
		errors.Is(err, service.ErrChildNotOwned):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidStops):
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrAlreadyStarted),
		errors.Is(err, domain.ErrTooEarly),
		errors.Is(err, domain.ErrNotStarted),
		errors.Is(err, domain.ErrAlreadyFinished),
		errors.Is(err, domain.ErrIncompleteCheckouts),
		errors.Is(err, domain.ErrStationsInProgress),
		errors.Is(err, domain.ErrNoStopsLeft),
		errors.Is(err, domain.ErrAlreadyInAStop),
		errors.Is(err, domain.ErrNotInAStop),
		errors.Is(err, domain.ErrChildrenPendingDropoff),
		errors.Is(err, domain.ErrNoNextStation),
		errors.Is(err, domain.ErrNotRegisteredHere),
		errors.Is(err, domain.ErrAlreadyCheckedIn),
		errors.Is(err, domain.ErrAlreadyCheckedOut),
		errors.Is(err, domain.ErrNotCheckedIn),
		errors.Is(err, domain.ErrNotCheckedOut),
		errors.Is(err, domain.ErrNotAtCorrectStation),
		errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrChildHasPresence):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
