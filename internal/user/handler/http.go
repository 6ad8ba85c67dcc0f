// Package handler exposes the auth endpoints: register, login, refresh, logout, me.
package handler

import (
	"errors"
	"net/http"
	"time"

	"walking-bus/backend/internal/audit"
	"walking-bus/backend/internal/server/middleware"
	"walking-bus/backend/internal/server/respond"
	"walking-bus/backend/internal/user/repository"
	"walking-bus/backend/internal/user/service"
)

type AuthHandler struct {
	auth    *service.AuthService
	users   repository.Repository
	auditor audit.AuditLogger
}

// NewAuthHandler returns the auth HTTP handler. auditor may be nil.
func NewAuthHandler(auth *service.AuthService, users repository.Repository, auditor audit.AuditLogger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, auditor: auditor}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

type tokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       string    `json:"userId"`
	Role         string    `json:"role"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logAudit(r, res.UserID, "register")
	respond.JSON(w, http.StatusCreated, map[string]string{"userId": res.UserID, "role": res.Role})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logAudit(r, "", "login_failure")
			respond.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.logAudit(r, res.UserID, "login")
	respond.JSON(w, http.StatusOK, tokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		UserID:       res.UserID,
		Role:         res.Role,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshTokenReuse):
			h.logAudit(r, "", "refresh_reuse")
			respond.Error(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrInvalidRefreshToken):
			respond.Error(w, http.StatusUnauthorized, err.Error())
		default:
			respond.Error(w, http.StatusInternalServerError, "refresh failed")
		}
		return
	}
	respond.JSON(w, http.StatusOK, tokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		UserID:       res.UserID,
		Role:         res.Role,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = respond.Decode(r, &req) // body optional; fall back to context identity
	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		respond.Error(w, http.StatusInternalServerError, "logout failed")
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	h.logAudit(r, userID, "logout")
	respond.JSON(w, http.StatusNoContent, nil)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"userId": user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"role":   string(user.Role),
	})
}

func (h *AuthHandler) logAudit(r *http.Request, userID, action string) {
	if h.auditor == nil {
		return
	}
	h.auditor.LogEvent(r.Context(), userID, action, "auth", "")
}
