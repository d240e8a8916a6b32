package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
)

// weatherHTTPTimeout matches the original's 10-second reqwest client timeout.
const weatherHTTPTimeout = 10 * time.Second

const (
	defaultGeocodingBaseURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastBaseURL  = "https://api.open-meteo.com/v1/forecast"
)

type geocodingResponse struct {
	Results []geocodingResult `json:"results"`
}

type geocodingResult struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type weatherResponse struct {
	Current currentWeather `json:"current"`
}

type currentWeather struct {
	Temperature2m      float64 `json:"temperature_2m"`
	RelativeHumidity2m int     `json:"relative_humidity_2m"`
	WindSpeed10m       float64 `json:"wind_speed_10m"`
}

// GetWeather fetches current conditions for location via open-meteo's
// free geocoding + forecast endpoints, exactly as fetch_weather does.
// Plain net/http is the right tool here (stdlib, no third-party wrapper
// adds anything over a configured http.Client with a timeout) — the
// original itself reaches for bare reqwest with no higher-level client.
func GetWeather(ctx context.Context, client *http.Client, location string) (conversation.ToolResultData, error) {
	return getWeather(ctx, client, defaultGeocodingBaseURL, defaultForecastBaseURL, location)
}

// getWeather is GetWeather parameterized over the two endpoint base URLs
// so tests can point it at an httptest server instead of open-meteo.
func getWeather(ctx context.Context, client *http.Client, geocodingBaseURL, forecastBaseURL, location string) (conversation.ToolResultData, error) {
	if client == nil {
		client = &http.Client{Timeout: weatherHTTPTimeout}
	}

	geocodingURL := fmt.Sprintf("%s?name=%s&count=1", geocodingBaseURL, url.QueryEscape(location))
	var geocoding geocodingResponse
	if err := getJSON(ctx, client, geocodingURL, &geocoding); err != nil {
		return conversation.ToolResultData{}, fmt.Errorf("failed to connect to geocoding service: %w", err)
	}
	if len(geocoding.Results) == 0 {
		return conversation.ToolResultData{}, fmt.Errorf("location %q not found", location)
	}
	place := geocoding.Results[0]

	weatherURL := fmt.Sprintf(
		"%s?latitude=%g&longitude=%g&current=temperature_2m,relative_humidity_2m,wind_speed_10m",
		forecastBaseURL, place.Latitude, place.Longitude,
	)
	var weather weatherResponse
	if err := getJSON(ctx, client, weatherURL, &weather); err != nil {
		return conversation.ToolResultData{}, fmt.Errorf("failed to connect to weather service: %w", err)
	}

	actual := fmt.Sprintf(
		"WEATHER TOOL RESULT: Temperature: %g°C, Humidity: %d%%, Wind Speed: %g km/h",
		weather.Current.Temperature2m, weather.Current.RelativeHumidity2m, weather.Current.WindSpeed10m,
	)
	return conversation.ToolResultData{Actual: actual, Simplified: actual}, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
