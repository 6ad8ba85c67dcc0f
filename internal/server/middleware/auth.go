package middleware

import (
	"net/http"
	"strings"

	"walking-bus/backend/internal/security"
)

const bearerPrefix = "bearer "

// Auth returns a middleware that validates the Bearer (access) token from the
// Authorization header and sets user_id, role, and session_id in context.
// isPublic reports whether a request may proceed without a token (e.g. auth
// endpoints, health, SSE preflight); validated identity is still attached when
// a valid token accompanies a public request.
func Auth(tokens *security.TokenProvider, isPublic func(r *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			public := isPublic != nil && isPublic(r)

			if token == "" {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				unauthorized(w)
				return
			}

			sessionID, userID, role, err := tokens.ValidateAccess(token)
			if err != nil {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				unauthorized(w)
				return
			}

			ctx := WithIdentity(r.Context(), userID, role, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"missing or invalid authorization"}`))
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed. Also accepts ?access_token= for SSE clients that
// cannot set headers.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= len(bearerPrefix) && strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(v[len(bearerPrefix):])
	}
	if t := r.URL.Query().Get("access_token"); t != "" {
		return t
	}
	return ""
}
