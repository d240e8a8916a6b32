package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetWeather_FormatsTemperatureHumidityWind(t *testing.T) {
	geocode := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geocodingResponse{Results: []geocodingResult{{Latitude: 51.5, Longitude: -0.12}}})
	}))
	defer geocode.Close()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(weatherResponse{Current: currentWeather{Temperature2m: 18.4, RelativeHumidity2m: 60, WindSpeed10m: 12.3}})
	}))
	defer forecast.Close()

	result, err := getWeather(context.Background(), nil, geocode.URL, forecast.URL, "London")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Temperature: 18.4", "Humidity: 60%", "Wind Speed: 12.3"} {
		if !strings.Contains(result.Actual, want) {
			t.Errorf("expected result to contain %q, got %q", want, result.Actual)
		}
	}
	if result.Simplified != result.Actual {
		t.Error("expected weather result to be unabridged in both actual and simplified")
	}
}

func TestGetWeather_LocationNotFound(t *testing.T) {
	geocode := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geocodingResponse{Results: nil})
	}))
	defer geocode.Close()

	if _, err := getWeather(context.Background(), nil, geocode.URL, "http://unused.invalid", "Nowhereland"); err == nil {
		t.Fatal("expected an error for an unresolvable location")
	}
}

func TestGetWeather_GeocodingServiceUnreachable(t *testing.T) {
	if _, err := getWeather(context.Background(), nil, "http://127.0.0.1:0", "http://127.0.0.1:0", "Anywhere"); err == nil {
		t.Fatal("expected a connection error")
	}
}
