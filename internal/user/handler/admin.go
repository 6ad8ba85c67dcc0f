package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"walking-bus/backend/internal/platform/rbac"
	"walking-bus/backend/internal/server/respond"
	"walking-bus/backend/internal/user/domain"
	"walking-bus/backend/internal/user/repository"
)

const defaultUserPageSize = 50

// UserHandler exposes the admin user-management surface. Accounts register as
// parents; instructors and admins are promoted here.
type UserHandler struct {
	users repository.Repository
	guard *rbac.Guard
}

// NewUserHandler returns the user management HTTP handler.
func NewUserHandler(users repository.Repository, guard *rbac.Guard) *UserHandler {
	return &UserHandler{users: users, guard: guard}
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.guard.Require(r.Context(), "user.manage"); err != nil {
		respond.GuardError(w, err)
		return
	}
	limit := int32(defaultUserPageSize)
	offset := int32(0)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil && n > 0 && n <= 200 {
			limit = int32(n)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil && n >= 0 {
			offset = int32(n)
		}
	}
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      string(u.Role),
			Status:    string(u.Status),
			CreatedAt: u.CreatedAt,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := h.guard.Require(r.Context(), "user.manage")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	var req updateRoleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidRole(req.Role) {
		respond.Error(w, http.StatusUnprocessableEntity, "unknown role")
		return
	}
	id := mux.Vars(r)["id"]
	// Admins cannot demote themselves; that path locks the platform out.
	if id == actorID && req.Role != string(domain.RoleAdmin) {
		respond.Error(w, http.StatusConflict, "cannot change own role")
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err := h.users.UpdateRole(r.Context(), id, domain.Role(req.Role)); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"userId": id, "role": req.Role})
}
