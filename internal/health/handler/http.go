// Package handler serves readiness for Kubernetes, load balancers, and CI.
package handler

import (
	"context"
	"net/http"
	"time"

	"walking-bus/backend/internal/server/respond"
)

// Pinger verifies database connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker verifies the policy engine can evaluate.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

const checkTimeout = 2 * time.Second

// HealthHandler answers /healthz. Either dependency may be nil, in which case
// that check is skipped.
type HealthHandler struct {
	db     Pinger
	policy PolicyChecker
}

// NewHealthHandler returns the health HTTP handler.
func NewHealthHandler(db Pinger, policy PolicyChecker) *HealthHandler {
	return &HealthHandler{db: db, policy: policy}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.policy != nil {
		if err := h.policy.HealthCheck(ctx); err != nil {
			checks["policy"] = err.Error()
			healthy = false
		} else {
			checks["policy"] = "ok"
		}
	}

	status := http.StatusOK
	state := "serving"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "not_serving"
	}
	respond.JSON(w, status, map[string]any{"status": state, "checks": checks})
}
