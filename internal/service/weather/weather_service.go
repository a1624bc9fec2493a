package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"top10weather/internal/domain"
	"top10weather/internal/service"
	"top10weather/pkg/logger"
)

// currentResponse mirrors the weatherapi.com current.json payload, limited to
// the fields the votes store
type currentResponse struct {
	Location struct {
		Name   string `json:"name"`
		Region string `json:"region"`
	} `json:"location"`
	Current struct {
		TempF      float64 `json:"temp_f"`
		Humidity   int     `json:"humidity"`
		WindMph    float64 `json:"wind_mph"`
		UV         float64 `json:"uv"`
		FeelslikeF float64 `json:"feelslike_f"`
		PressureIn float64 `json:"pressure_in"`
		VisMiles   float64 `json:"vis_miles"`
		Condition  struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// Service fetches current conditions from weatherapi.com
type Service struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewService creates a weather service
func NewService(baseURL, apiKey string, logger *logger.Logger) service.WeatherService {
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// CurrentConditions queries current weather at (lat, lon) and returns the
// snapshot plus the provider's "City, Region" display location
func (s *Service) CurrentConditions(ctx context.Context, lat, lon float64) (*domain.WeatherSnapshot, string, error) {
	query := url.Values{}
	query.Set("key", s.apiKey)
	query.Set("q", fmt.Sprintf("%f,%f", lat, lon))
	query.Set("aqi", "no")

	reqURL := fmt.Sprintf("%s/current.json?%s", s.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("weather lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, string(body))
	}

	var current currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&current); err != nil {
		return nil, "", fmt.Errorf("failed to decode weather response: %w", err)
	}

	snapshot := &domain.WeatherSnapshot{
		Temperature: int(math.Round(current.Current.TempF)),
		Conditions:  current.Current.Condition.Text,
		Humidity:    current.Current.Humidity,
		WindSpeed:   int(math.Round(current.Current.WindMph)),
		UVIndex:     current.Current.UV,
		FeelsLike:   int(math.Round(current.Current.FeelslikeF)),
		Pressure:    math.Round(current.Current.PressureIn*100) / 100,
		Visibility:  int(math.Round(current.Current.VisMiles)),
	}

	location := fmt.Sprintf("%s, %s", current.Location.Name, current.Location.Region)

	s.logger.WithFields(map[string]interface{}{
		"location":    location,
		"temperature": snapshot.Temperature,
		"conditions":  snapshot.Conditions,
	}).Debug("Fetched current conditions")

	return snapshot, location, nil
}
