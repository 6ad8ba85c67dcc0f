// seed inserts development sample data: one admin, one instructor, one parent
// with two children, and a route with four stations. Idempotent: exits early
// when the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	childdomain "walking-bus/backend/internal/child/domain"
	childrepo "walking-bus/backend/internal/child/repository"
	"walking-bus/backend/internal/config"
	"walking-bus/backend/internal/db"
	routedomain "walking-bus/backend/internal/route/domain"
	routerepo "walking-bus/backend/internal/route/repository"
	"walking-bus/backend/internal/security"
	userdomain "walking-bus/backend/internal/user/domain"
	userrepo "walking-bus/backend/internal/user/repository"
)

const devPassword = "Walk1ngBus!Dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}
	if cfg.Env == "production" {
		fmt.Fprintln(os.Stderr, "seed: refusing to run with APP_ENV=production")
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("seed: db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(database)

	existing, err := users.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if existing != nil {
		log.Println("seed: dev admin already present, nothing to do")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash: %v", err)
	}

	now := time.Now().UTC()
	newUser := func(email, name string, role userdomain.Role) *userdomain.User {
		return &userdomain.User{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         name,
			Role:         role,
			Status:       userdomain.UserStatusActive,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	admin := newUser("admin@example.com", "Dev Admin", userdomain.RoleAdmin)
	instructor := newUser("instructor@example.com", "Dev Instructor", userdomain.RoleInstructor)
	parent := newUser("parent@example.com", "Dev Parent", userdomain.RoleParent)
	for _, u := range []*userdomain.User{admin, instructor, parent} {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed: user %s: %v", u.Email, err)
		}
	}

	children := childrepo.NewPostgresRepository(database)
	for _, name := range []string{"Mika", "Noor"} {
		c := &childdomain.Child{
			ID:          uuid.NewString(),
			ParentID:    parent.ID,
			DisplayName: name,
			CreatedAt:   now,
		}
		if err := children.Create(ctx, c); err != nil {
			log.Fatalf("seed: child %s: %v", name, err)
		}
	}

	routes := routerepo.NewPostgresRepository(database)
	route := &routedomain.Route{
		ID:        uuid.NewString(),
		Name:      "Morning Line A",
		City:      "Utrecht",
		CreatedAt: now,
	}
	stationNames := []string{"Oak Corner", "Mill Square", "Canal Bridge", "Sunflower School"}
	stations := make([]*routedomain.Station, 0, len(stationNames))
	for i, name := range stationNames {
		stations = append(stations, &routedomain.Station{
			ID:            uuid.NewString(),
			RouteID:       route.ID,
			Name:          name,
			Position:      i + 1,
			OffsetMinutes: i * 7,
		})
	}
	if err := routes.Create(ctx, route, stations); err != nil {
		log.Fatalf("seed: route: %v", err)
	}

	log.Printf("seed: created 3 users (password %q), 2 children, route %s with %d stations", devPassword, route.Name, len(stations))
}
