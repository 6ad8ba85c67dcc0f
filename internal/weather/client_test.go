package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_For(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "Utrecht" {
			t.Errorf("geocode name = %q, want Utrecht", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"latitude":52.0907,"longitude":5.1214}]}`))
	}))
	defer geo.Close()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("current_weather"); got != "true" {
			t.Errorf("current_weather = %q, want true", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current_weather":{"temperature":8.4,"weathercode":61}}`))
	}))
	defer forecast.Close()

	c := NewClient(forecast.URL)
	c.geocodeURL = geo.URL

	snap, err := c.For(context.Background(), "Utrecht")
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if snap.TemperatureC != 8.4 {
		t.Errorf("TemperatureC = %v, want 8.4", snap.TemperatureC)
	}
	if snap.Condition != "rain" {
		t.Errorf("Condition = %q, want rain", snap.Condition)
	}
}

func TestClient_For_GeocodeMiss(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer geo.Close()

	c := NewClient("http://unused.invalid")
	c.geocodeURL = geo.URL

	if _, err := c.For(context.Background(), "Nowhere"); err == nil {
		t.Fatal("expected error for unknown city")
	}
}

func TestConditionFromCode(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{0, "clear"},
		{2, "cloudy"},
		{48, "fog"},
		{53, "drizzle"},
		{65, "rain"},
		{73, "snow"},
		{81, "rain showers"},
		{96, "thunderstorm"},
		{40, "unknown"},
	}
	for _, tc := range cases {
		if got := conditionFromCode(tc.code); got != tc.want {
			t.Errorf("conditionFromCode(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}
