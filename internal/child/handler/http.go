// Package handler exposes the child profile endpoints: create, list own, delete.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"walking-bus/backend/internal/child/domain"
	"walking-bus/backend/internal/child/repository"
	"walking-bus/backend/internal/platform/rbac"
	"walking-bus/backend/internal/server/respond"
	userdomain "walking-bus/backend/internal/user/domain"
)

type ChildHandler struct {
	children repository.Repository
	guard    *rbac.Guard
}

// NewChildHandler returns the child HTTP handler.
func NewChildHandler(children repository.Repository, guard *rbac.Guard) *ChildHandler {
	return &ChildHandler{children: children, guard: guard}
}

type childResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type createChildRequest struct {
	DisplayName string `json:"displayName"`
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, err := h.guard.Require(r.Context(), "child.manage")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	var req createChildRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		respond.Error(w, http.StatusBadRequest, "displayName is required")
		return
	}
	c := &domain.Child{
		ID:          uuid.NewString(),
		ParentID:    userID,
		DisplayName: name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.children.Create(r.Context(), c); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to create child")
		return
	}
	respond.JSON(w, http.StatusCreated, childResponse{ID: c.ID, DisplayName: c.DisplayName, CreatedAt: c.CreatedAt})
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, err := h.guard.Require(r.Context(), "child.manage")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	children, err := h.children.ListByParent(r.Context(), userID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list children")
		return
	}
	out := make([]childResponse, 0, len(children))
	for _, c := range children {
		out = append(out, childResponse{ID: c.ID, DisplayName: c.DisplayName, CreatedAt: c.CreatedAt})
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, role, err := h.guard.Require(r.Context(), "child.manage")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	id := mux.Vars(r)["id"]
	c, err := h.children.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load child")
		return
	}
	if c == nil {
		respond.Error(w, http.StatusNotFound, "child not found")
		return
	}
	if c.ParentID != userID && role != string(userdomain.RoleAdmin) {
		respond.Error(w, http.StatusForbidden, "child does not belong to this parent")
		return
	}
	if err := h.children.Delete(r.Context(), id); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to delete child")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}
