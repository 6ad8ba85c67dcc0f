package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr == "" {
		t.Error("HTTPAddr should have a default")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		t.Errorf("BcryptCost = %d, want within 4..31", cfg.BcryptCost)
	}
	if cfg.TelemetryKafkaTopic != "walkingbus-telemetry" {
		t.Errorf("TelemetryKafkaTopic = %q, want walkingbus-telemetry", cfg.TelemetryKafkaTopic)
	}
}

func TestLoad_BcryptCostBounds(t *testing.T) {
	t.Setenv("BCRYPT_COST", "3")
	if _, err := Load(); err == nil {
		t.Error("Load should reject BCRYPT_COST below 4")
	}
	t.Setenv("BCRYPT_COST", "32")
	if _, err := Load(); err == nil {
		t.Error("Load should reject BCRYPT_COST above 31")
	}
	t.Setenv("BCRYPT_COST", "10")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
}

func TestAccessTTL(t *testing.T) {
	testCases := []struct {
		name string
		ttl  string
		want time.Duration
	}{
		{"valid", "30m", 30 * time.Minute},
		{"empty falls back", "", 15 * time.Minute},
		{"invalid falls back", "soon", 15 * time.Minute},
		{"negative falls back", "-5m", 15 * time.Minute},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{JWTAccessTTL: tc.ttl}
			if got := c.AccessTTL(); got != tc.want {
				t.Errorf("AccessTTL() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRefreshTTL_Fallback(t *testing.T) {
	c := &Config{}
	if got, want := c.RefreshTTL(), 168*time.Hour; got != want {
		t.Errorf("RefreshTTL() = %v, want %v", got, want)
	}
}

func TestSweepDurations(t *testing.T) {
	c := &Config{SweepInterval: "30m", SweepHorizon: "6h"}
	if got := c.SweepIntervalDuration(); got != 30*time.Minute {
		t.Errorf("SweepIntervalDuration() = %v, want 30m", got)
	}
	if got := c.SweepHorizonDuration(); got != 6*time.Hour {
		t.Errorf("SweepHorizonDuration() = %v, want 6h", got)
	}

	c = &Config{}
	if got := c.SweepIntervalDuration(); got != time.Hour {
		t.Errorf("default SweepIntervalDuration() = %v, want 1h", got)
	}
	if got := c.SweepHorizonDuration(); got != 12*time.Hour {
		t.Errorf("default SweepHorizonDuration() = %v, want 12h", got)
	}
}

func TestTelemetryKafkaBrokersList(t *testing.T) {
	testCases := []struct {
		name    string
		brokers string
		want    int
	}{
		{"empty", "", 0},
		{"single", "localhost:9092", 1},
		{"multiple with spaces", "a:9092, b:9092 ,c:9092", 3},
		{"trailing comma", "a:9092,", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{TelemetryKafkaBrokers: tc.brokers}
			if got := c.TelemetryKafkaBrokersList(); len(got) != tc.want {
				t.Errorf("len = %d, want %d (from %q)", len(got), tc.want, tc.brokers)
			}
		})
	}
}
