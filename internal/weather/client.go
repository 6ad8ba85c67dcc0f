// Package weather looks up current conditions from the Open-Meteo API. The
// lookup is best-effort by contract: callers treat any error as "no snapshot".
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"walking-bus/backend/internal/activity/domain"
)

const defaultGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"

// Client resolves a city name to coordinates and fetches the current weather
// there. Implements the activity service's WeatherProvider.
type Client struct {
	http        *http.Client
	forecastURL string
	geocodeURL  string
}

// NewClient returns a weather client against the given Open-Meteo-compatible
// forecast endpoint.
func NewClient(forecastURL string) *Client {
	return &Client{
		http:        &http.Client{Timeout: 5 * time.Second},
		forecastURL: forecastURL,
		geocodeURL:  defaultGeocodeURL,
	}
}

type geocodeResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// For returns the current weather for the city.
func (c *Client) For(ctx context.Context, city string) (*domain.WeatherSnapshot, error) {
	lat, lon, err := c.geocode(ctx, city)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current_weather", "true")

	var fr forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+q.Encode(), &fr); err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	return &domain.WeatherSnapshot{
		TemperatureC: fr.CurrentWeather.Temperature,
		Condition:    conditionFromCode(fr.CurrentWeather.WeatherCode),
	}, nil
}

func (c *Client) geocode(ctx context.Context, city string) (lat, lon float64, err error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")

	var gr geocodeResponse
	if err := c.getJSON(ctx, c.geocodeURL+"?"+q.Encode(), &gr); err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", city, err)
	}
	if len(gr.Results) == 0 {
		return 0, 0, fmt.Errorf("geocode %q: no results", city)
	}
	return gr.Results[0].Latitude, gr.Results[0].Longitude, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(v)
}

// conditionFromCode maps WMO weather interpretation codes to coarse labels.
func conditionFromCode(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "cloudy"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code == 85 || code == 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}
