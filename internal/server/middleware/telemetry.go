package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"walking-bus/backend/internal/telemetry"
	tdomain "walking-bus/backend/internal/telemetry/domain"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode string `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// Telemetry returns a middleware that emits a telemetry event after each
// request. Best-effort: if emitter is nil the middleware no-ops. skipPaths is
// matched against the route template.
func Telemetry(emitter telemetry.EventEmitter, skipPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			if emitter == nil || skipPaths[routeTemplate(r)] {
				return
			}
			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			meta := httpRequestMetadata{
				Method:     r.Method,
				Path:       routeTemplate(r),
				StatusCode: strconv.Itoa(sw.status),
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   ClientIP(r),
			}
			metaJSON, _ := json.Marshal(meta)
			userID, _ := GetUserID(r.Context())
			event := &tdomain.Event{
				EventType: "http_request",
				UserID:    userID,
				Source:    "http_middleware",
				Metadata:  metaJSON,
				CreatedAt: time.Now().UTC(),
			}
			telemetry.EmitAsync(emitter, r.Context(), event)
		})
	}
}
