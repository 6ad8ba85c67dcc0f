package middleware

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"walking-bus/backend/internal/audit"
	"walking-bus/backend/internal/audit/domain"
	auditrepo "walking-bus/backend/internal/audit/repository"
)

// Audit returns a middleware that records an audit log entry after each
// authenticated mutating request. skipPaths is matched against the route
// template when available, the raw path otherwise. Writes are best-effort:
// failures are logged and do not fail the request.
func Audit(repo auditrepo.Repository, skipPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return
			}
			path := routeTemplate(r)
			if skipPaths[path] {
				return
			}
			userID, _ := GetUserID(r.Context())
			if userID == "" {
				return
			}
			ar := audit.ParseRoute(r.Method, path)
			entry := &domain.AuditLog{
				ID:        uuid.New().String(),
				UserID:    userID,
				Action:    ar.Action,
				Resource:  ar.Resource,
				IP:        ClientIP(r),
				CreatedAt: time.Now().UTC(),
			}
			if err := repo.Create(r.Context(), entry); err != nil {
				log.Printf("audit: failed to create audit log: %v", err)
			}
		})
	}
}

// routeTemplate returns the mux route template (with {param} placeholders) when
// the request matched a registered route, else the concrete path.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// ClientIP returns the client IP from X-Forwarded-For, X-Real-IP, or the
// remote address, or "unknown".
func ClientIP(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); s != "" {
		if i := strings.Index(s, ","); i > 0 {
			s = strings.TrimSpace(s[:i])
		}
		return s
	}
	if s := strings.TrimSpace(r.Header.Get("X-Real-IP")); s != "" {
		return s
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// ContextIP adapts ClientIP for code paths that only carry a context. The
// request IP is stashed by IPIntoContext.
func ContextIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

var clientIPKey = contextKey{"client_ip"}

// IPIntoContext stores the request's client IP in context so that services can
// record it without holding the *http.Request.
func IPIntoContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey, ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
