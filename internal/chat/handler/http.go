// Package handler exposes the per-session message board: post and list.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"walking-bus/backend/internal/chat/domain"
	"walking-bus/backend/internal/chat/repository"
	"walking-bus/backend/internal/platform/rbac"
	"walking-bus/backend/internal/server/respond"
	userdomain "walking-bus/backend/internal/user/domain"
)

const (
	maxMessageLen   = 2000
	defaultPageSize = 200
)

type ChatHandler struct {
	messages repository.Repository
	guard    *rbac.Guard
}

// NewChatHandler returns the chat HTTP handler.
func NewChatHandler(messages repository.Repository, guard *rbac.Guard) *ChatHandler {
	return &ChatHandler{messages: messages, guard: guard}
}

type postMessageRequest struct {
	Body string `json:"body"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	userID, role, err := h.guard.Require(r.Context(), "chat.post")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	sessionID := mux.Vars(r)["id"]
	var req postMessageRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" || len(body) > maxMessageLen {
		respond.Error(w, http.StatusBadRequest, "body must be non-empty and at most 2000 characters")
		return
	}
	if role != string(userdomain.RoleAdmin) {
		ok, err := h.messages.IsParticipant(r.Context(), sessionID, userID)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "failed to check participation")
			return
		}
		if !ok {
			respond.Error(w, http.StatusForbidden, "only session participants may post")
			return
		}
	}
	m := &domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.messages.Create(r.Context(), m); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to post message")
		return
	}
	respond.JSON(w, http.StatusCreated, messageResponse{ID: m.ID, UserID: m.UserID, Body: m.Body, CreatedAt: m.CreatedAt})
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, role, err := h.guard.Require(r.Context(), "chat.post")
	if err != nil {
		respond.GuardError(w, err)
		return
	}
	sessionID := mux.Vars(r)["id"]
	if role != string(userdomain.RoleAdmin) {
		ok, err := h.messages.IsParticipant(r.Context(), sessionID, userID)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "failed to check participation")
			return
		}
		if !ok {
			respond.Error(w, http.StatusForbidden, "only session participants may read the board")
			return
		}
	}
	msgs, err := h.messages.ListBySession(r.Context(), sessionID, defaultPageSize)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{ID: m.ID, UserID: m.UserID, Body: m.Body, CreatedAt: m.CreatedAt})
	}
	respond.JSON(w, http.StatusOK, out)
}
