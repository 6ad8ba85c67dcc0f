// Worker runs the background jobs: the hourly late-registration sweep, and,
// when Kafka is configured, the telemetry consumer that pushes events to Loki.
// Requires DATABASE_URL; set KAFKA_BROKERS, TELEMETRY_KAFKA_TOPIC,
// KAFKA_GROUP_ID, and LOKI_URL to enable the telemetry pipeline.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"walking-bus/backend/internal/config"
	"walking-bus/backend/internal/db"
	"walking-bus/backend/internal/sweep"
	"walking-bus/backend/internal/telemetry/loki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("worker: db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup

	sweeper := sweep.NewSweeper(sweep.NewPostgresRepository(database), cfg.SweepHorizonDuration())
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("worker: sweeping every %s with a %s horizon", cfg.SweepIntervalDuration(), cfg.SweepHorizonDuration())
		sweeper.Run(ctx, cfg.SweepIntervalDuration())
	}()

	if brokers := cfg.TelemetryKafkaBrokersList(); len(brokers) > 0 && cfg.LokiURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumeTelemetry(ctx, cfg, brokers)
		}()
	} else {
		log.Println("worker: telemetry consumer disabled (KAFKA_BROKERS or LOKI_URL unset)")
	}

	wg.Wait()
	log.Println("worker: stopped")
}

func consumeTelemetry(ctx context.Context, cfg *config.Config, brokers []string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.TelemetryKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	log.Printf("worker: consuming from %s (group %s), pushing to %s", cfg.TelemetryKafkaTopic, cfg.KafkaGroupID, cfg.LokiURL)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("worker: kafka read error: %v", err)
			continue
		}

		pushCtx, pushCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := loki.PushEventJSON(pushCtx, cfg.LokiURL, msg.Value); err != nil {
			log.Printf("worker: loki push failed: %v", err)
		}
		pushCancel()
	}
}
