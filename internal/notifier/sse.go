package notifier

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"walking-bus/backend/internal/server/middleware"
)

// keepAliveInterval is how often an SSE comment is written so intermediaries
// do not reap an idle stream.
const keepAliveInterval = 25 * time.Second

// SSEHandler streams the caller's events as server-sent events. The auth
// middleware accepts the access token via query parameter for this endpoint
// since EventSource cannot set headers.
type SSEHandler struct {
	registry *Registry
}

// NewSSEHandler returns an SSE streaming handler over the registry.
func NewSSEHandler(registry *Registry) *SSEHandler {
	return &SSEHandler{registry: registry}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, disconnect := h.registry.Connect(userID)
	defer disconnect()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
