// Server runs the walking-bus HTTP API. Requires DATABASE_URL and the JWT key
// pair; see .env.example for the full variable list.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	activityhandler "walking-bus/backend/internal/activity/handler"
	activityrepo "walking-bus/backend/internal/activity/repository"
	activityservice "walking-bus/backend/internal/activity/service"
	"walking-bus/backend/internal/audit"
	auditrepo "walking-bus/backend/internal/audit/repository"
	authsessionrepo "walking-bus/backend/internal/authsession/repository"
	childhandler "walking-bus/backend/internal/child/handler"
	childrepo "walking-bus/backend/internal/child/repository"
	chathandler "walking-bus/backend/internal/chat/handler"
	chatrepo "walking-bus/backend/internal/chat/repository"
	"walking-bus/backend/internal/config"
	"walking-bus/backend/internal/db"
	healthhandler "walking-bus/backend/internal/health/handler"
	"walking-bus/backend/internal/notifier"
	"walking-bus/backend/internal/platform/rbac"
	policyengine "walking-bus/backend/internal/policy/engine"
	routehandler "walking-bus/backend/internal/route/handler"
	routerepo "walking-bus/backend/internal/route/repository"
	rosterhandler "walking-bus/backend/internal/roster/handler"
	rosterrepo "walking-bus/backend/internal/roster/repository"
	"walking-bus/backend/internal/security"
	"walking-bus/backend/internal/server"
	"walking-bus/backend/internal/server/middleware"
	"walking-bus/backend/internal/telemetry"
	"walking-bus/backend/internal/telemetry/otel"
	"walking-bus/backend/internal/telemetry/producer"
	userhandler "walking-bus/backend/internal/user/handler"
	userrepo "walking-bus/backend/internal/user/repository"
	userservice "walking-bus/backend/internal/user/service"
	"walking-bus/backend/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	policy, err := policyengine.NewOPAEvaluator()
	if err != nil {
		log.Fatalf("policy: %v", err)
	}
	guard := rbac.NewGuard(policy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTELExporterEndpoint, "walkingbus-server", cfg.OTELExporterInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	// Telemetry events go to Kafka when brokers are configured, otherwise to
	// the OTel logs pipeline.
	var emitter telemetry.EventEmitter
	if brokers := cfg.TelemetryKafkaBrokersList(); len(brokers) > 0 {
		kp, err := producer.NewKafkaProducer(brokers, cfg.TelemetryKafkaTopic)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		if kp != nil {
			defer kp.Close()
			emitter = kp
		}
	}
	if emitter == nil {
		emitter = otel.NewEventEmitter(providers.LoggerProvider)
	}

	users := userrepo.NewPostgresRepository(database)
	authSessions := authsessionrepo.NewPostgresRepository(database)
	audits := auditrepo.NewPostgresRepository(database)
	routes := routerepo.NewPostgresRepository(database)
	children := childrepo.NewPostgresRepository(database)
	roster := rosterrepo.NewPostgresRepository(database)
	chats := chatrepo.NewPostgresRepository(database)
	activities := activityrepo.NewPostgresRepository(database)

	hasher := security.NewHasher(cfg.BcryptCost)
	authService := userservice.NewAuthService(users, authSessions, hasher, tokens, cfg.RefreshTTL())
	auditLogger := audit.NewLogger(audits, middleware.ContextIP)

	registry := notifier.NewRegistry()
	var weatherProvider activityservice.WeatherProvider
	if cfg.WeatherBaseURL != "" {
		weatherProvider = weather.NewClient(cfg.WeatherBaseURL)
	}
	activityService := activityservice.NewService(activities, routes, weatherProvider, children, registry, emitter)

	deps := server.Deps{
		Tokens:    tokens,
		AuditRepo: audits,
		Emitter:   emitter,
		Auth:      userhandler.NewAuthHandler(authService, users, auditLogger),
		Users:     userhandler.NewUserHandler(users, guard),
		Activity:  activityhandler.NewActivityHandler(activityService, guard),
		Routes:    routehandler.NewRouteHandler(routes, guard),
		Children:  childhandler.NewChildHandler(children, guard),
		Roster:    rosterhandler.NewRosterHandler(roster, users, guard),
		Chat:      chathandler.NewChatHandler(chats, guard),
		Health:    healthhandler.NewHealthHandler(database, policy),
		SSE:       notifier.NewSSEHandler(registry),
	}

	srv := server.NewServer(cfg.HTTPAddr, server.NewRouter(deps))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("server: shutting down...")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("serve: %v", err)
	}
	log.Println("server: stopped")
}
