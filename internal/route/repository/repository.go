package repository

import (
	"context"

	"walking-bus/backend/internal/route/domain"
)

// Repository provides the read-mostly route/station catalog. Authoring happens
// out of band (seeding, ops tooling), so writes exist only for those paths.
type Repository interface {
	// Route returns the route or nil when absent.
	Route(ctx context.Context, id string) (*domain.Route, error)
	// List returns all routes ordered by name.
	List(ctx context.Context) ([]*domain.Route, error)
	// StationsFor returns the route's stations in boarding order.
	StationsFor(ctx context.Context, routeID string) ([]*domain.Station, error)
	// Create inserts a route with its stations.
	Create(ctx context.Context, r *domain.Route, stations []*domain.Station) error
}
