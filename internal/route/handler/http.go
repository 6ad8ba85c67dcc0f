// Package handler exposes the read-only route catalog endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"walking-bus/backend/internal/platform/rbac"
	"walking-bus/backend/internal/route/repository"
	"walking-bus/backend/internal/server/respond"
)

type RouteHandler struct {
	routes repository.Repository
	guard  *rbac.Guard
}

// NewRouteHandler returns the route catalog HTTP handler.
func NewRouteHandler(routes repository.Repository, guard *rbac.Guard) *RouteHandler {
	return &RouteHandler{routes: routes, guard: guard}
}

type routeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"createdAt"`
}

type stationResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Position      int    `json:"position"`
	OffsetMinutes int    `json:"offsetMinutes"`
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.guard.Require(r.Context(), "catalog.read"); err != nil {
		respond.GuardError(w, err)
		return
	}
	routes, err := h.routes.List(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list routes")
		return
	}
	out := make([]routeResponse, 0, len(routes))
	for _, rt := range routes {
		out = append(out, routeResponse{ID: rt.ID, Name: rt.Name, City: rt.City, CreatedAt: rt.CreatedAt})
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.guard.Require(r.Context(), "catalog.read"); err != nil {
		respond.GuardError(w, err)
		return
	}
	id := mux.Vars(r)["id"]
	rt, err := h.routes.Route(r.Context(), id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load route")
		return
	}
	if rt == nil {
		respond.Error(w, http.StatusNotFound, "route not found")
		return
	}
	stations, err := h.routes.StationsFor(r.Context(), id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	stationsOut := make([]stationResponse, 0, len(stations))
	for _, s := range stations {
		stationsOut = append(stationsOut, stationResponse{
			ID:            s.ID,
			Name:          s.Name,
			Position:      s.Position,
			OffsetMinutes: s.OffsetMinutes,
		})
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"route":    routeResponse{ID: rt.ID, Name: rt.Name, City: rt.City, CreatedAt: rt.CreatedAt},
		"stations": stationsOut,
	})
}
