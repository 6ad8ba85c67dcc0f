// Package handler exposes the roster endpoints: assign and remove instructors,
// list a session's roster, list an instructor's own sessions.
package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"walking-bus/backend/internal/platform/rbac"
	"walking-bus/backend/internal/roster/domain"
	"walking-bus/backend/internal/roster/repository"
	"walking-bus/backend/internal/server/respond"
	userdomain "walking-bus/backend/internal/user/domain"
	userrepo "walking-bus/backend/internal/user/repository"
)

type RosterHandler struct {
	roster repository.Repository
	users  userrepo.Repository
	guard  *rbac.Guard
}

// NewRosterHandler returns the roster HTTP handler.
func NewRosterHandler(roster repository.Repository, users userrepo.Repository, guard *rbac.Guard) *RosterHandler {
	return &RosterHandler{roster: roster, users: users, guard: guard}
}

type assignRequest struct {
	UserID string `json:"userId"`
}

func (h *RosterHandler) Assign(w http.ResponseWriter, r *http.Request) {
	_, _, err := h.guard.Require(r.Context(), "roster.manage")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	sessionID := mux.Vars(r)["id"]
	var req assignRequest
	if err := respond.Decode(r, &req); err != nil || req.UserID == "" {
		respond.Error(w, http.StatusBadRequest, "userId is required")
		return
	}
	u, err := h.users.GetByID(r.Context(), req.UserID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if u == nil {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if u.Role != userdomain.RoleInstructor && u.Role != userdomain.RoleAdmin {
		respond.Error(w, http.StatusUnprocessableEntity, "user is not an instructor")
		return
	}
	if err := h.roster.Assign(r.Context(), &domain.Assignment{SessionID: sessionID, UserID: req.UserID}); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to assign instructor")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func (h *RosterHandler) Remove(w http.ResponseWriter, r *http.Request) {
	_, _, err := h.guard.Require(r.Context(), "roster.manage")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.roster.Remove(r.Context(), vars["id"], vars["userId"]); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to remove instructor")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func (h *RosterHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	_, _, err := h.guard.Require(r.Context(), "session.read")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	assignments, err := h.roster.ListBySession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list roster")
		return
	}
	out := make([]string, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, a.UserID)
	}
	respond.JSON(w, http.StatusOK, map[string]any{"instructorIds": out})
}

// MySessions returns the session ids the calling instructor is assigned to.
func (h *RosterHandler) MySessions(w http.ResponseWriter, r *http.Request) {
	userID, _, err := h.guard.Require(r.Context(), "session.run")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	ids, err := h.roster.ListSessionsByUser(r.Context(), userID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"sessionIds": ids})
}
