// Package respond holds the JSON helpers shared by all HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"walking-bus/backend/internal/platform/rbac"
)

// JSON writes v as JSON with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body with the given status code.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Decode reads the request body as JSON into v. Unknown fields are rejected so
// client typos surface as 400s instead of silently dropped fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// GuardError maps rbac guard failures to 401/403, anything else to 500.
func GuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rbac.ErrUnauthenticated):
		Error(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, rbac.ErrForbidden):
		Error(w, http.StatusForbidden, "permission denied")
	default:
		Error(w, http.StatusInternalServerError, "authorization check failed")
	}
}
