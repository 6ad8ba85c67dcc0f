// Package server assembles the HTTP surface: the router, the middleware
// chain, and the listener with graceful shutdown.
package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	activityhandler "walking-bus/backend/internal/activity/handler"
	auditrepo "walking-bus/backend/internal/audit/repository"
	childhandler "walking-bus/backend/internal/child/handler"
	chathandler "walking-bus/backend/internal/chat/handler"
	routehandler "walking-bus/backend/internal/route/handler"
	rosterhandler "walking-bus/backend/internal/roster/handler"
	"walking-bus/backend/internal/security"
	"walking-bus/backend/internal/server/middleware"
	"walking-bus/backend/internal/telemetry"
	userhandler "walking-bus/backend/internal/user/handler"
)

// Deps carries everything the router mounts. Health and SSE are plain
// handlers so the router stays ignorant of their internals.
type Deps struct {
	Tokens    *security.TokenProvider
	AuditRepo auditrepo.Repository
	Emitter   telemetry.EventEmitter

	Auth     *userhandler.AuthHandler
	Users    *userhandler.UserHandler
	Activity *activityhandler.ActivityHandler
	Routes   *routehandler.RouteHandler
	Children *childhandler.ChildHandler
	Roster   *rosterhandler.RosterHandler
	Chat     *chathandler.ChatHandler
	Health   http.Handler
	SSE      http.Handler
}

// publicPaths need no bearer token.
var publicPaths = map[string]bool{
	"/healthz":              true,
	"/api/v1/auth/register": true,
	"/api/v1/auth/login":    true,
	"/api/v1/auth/refresh":  true,
}

// quietPaths are skipped by the audit and telemetry middleware: health probes
// are noise and the SSE stream is long-lived.
var quietPaths = map[string]bool{
	"/healthz":       true,
	"/api/v1/events": true,
}

// NewRouter wires all handlers behind the middleware chain. Order matters:
// the client IP must be captured before auth, and audit/telemetry need the
// identity auth put into the context.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	isPublic := func(req *http.Request) bool { return publicPaths[req.URL.Path] }
	r.Use(
		middleware.IPIntoContext,
		middleware.Logging,
		middleware.Auth(d.Tokens, isPublic),
		middleware.Audit(d.AuditRepo, quietPaths),
		middleware.Telemetry(d.Emitter, quietPaths),
	)

	r.Handle("/healthz", d.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Auth.
	api.HandleFunc("/auth/register", d.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", d.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", d.Auth.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", d.Auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", d.Auth.Me).Methods(http.MethodGet)

	// User management (admin).
	api.HandleFunc("/users", d.Users.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/role", d.Users.UpdateRole).Methods(http.MethodPatch)

	// Route catalog.
	api.HandleFunc("/routes", d.Routes.List).Methods(http.MethodGet)
	api.HandleFunc("/routes/{id}", d.Routes.Get).Methods(http.MethodGet)

	// Children.
	api.HandleFunc("/children", d.Children.Create).Methods(http.MethodPost)
	api.HandleFunc("/children", d.Children.List).Methods(http.MethodGet)
	api.HandleFunc("/children/{id}", d.Children.Delete).Methods(http.MethodDelete)

	// Session scheduling and lifecycle.
	api.HandleFunc("/sessions", d.Activity.Schedule).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", d.Activity.Describe).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/status", d.Activity.Status).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/start", d.Activity.Start).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/end", d.Activity.End).Methods(http.MethodPost)

	// Stop progression.
	api.HandleFunc("/sessions/{id}/arrive", d.Activity.Arrive).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/leave", d.Activity.Leave).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/stops", d.Activity.RemainingStops).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/overview", d.Activity.Overview).Methods(http.MethodGet)

	// Presence ledger.
	api.HandleFunc("/sessions/{id}/children/{childId}/checkin", d.Activity.CheckIn).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/children/{childId}/checkin", d.Activity.UndoCheckIn).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/children/{childId}/checkout", d.Activity.CheckOut).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/children/{childId}/checkout", d.Activity.UndoCheckOut).Methods(http.MethodDelete)

	// Registrations.
	api.HandleFunc("/sessions/{id}/registrations", d.Activity.Register).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/registrations/{childId}", d.Activity.Unregister).Methods(http.MethodDelete)
	api.HandleFunc("/registrations", d.Activity.MyRegistrations).Methods(http.MethodGet)

	// Roster.
	api.HandleFunc("/sessions/{id}/instructors", d.Roster.Assign).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/instructors/{userId}", d.Roster.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/instructors", d.Roster.ListBySession).Methods(http.MethodGet)
	api.HandleFunc("/my/sessions", d.Roster.MySessions).Methods(http.MethodGet)

	// Message board.
	api.HandleFunc("/sessions/{id}/messages", d.Chat.Post).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/messages", d.Chat.List).Methods(http.MethodGet)

	// Live events.
	api.Handle("/events", d.SSE).Methods(http.MethodGet)

	return r
}

// Server wraps http.Server with sane timeouts and graceful shutdown. Write
// timeout is left unset because the SSE stream is long-lived.
type Server struct {
	srv *http.Server
}

// NewServer returns a Server listening on addr with the given handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	log.Printf("server: listening on %s", s.srv.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// normalizePath is used by tests to compare route templates without the
// trailing-slash ambiguity mux allows.
func normalizePath(p string) string {
	return strings.TrimSuffix(p, "/")
}
