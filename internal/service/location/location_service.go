package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"top10weather/internal/domain"
	"top10weather/internal/service"
	"top10weather/pkg/errors"
	"top10weather/pkg/logger"
	"top10weather/pkg/redis"

	"github.com/ringsaturn/tzf"
)

// Coordinate is a geocoded point for a location string
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// nominatimResult is one entry of the Nominatim search response. The API
// returns coordinates as strings.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Service resolves voting days: geocode the location text, look up the
// coordinate's IANA timezone offline, and take the current date there.
type Service struct {
	baseURL    string
	httpClient *http.Client
	finder     tzf.F
	redis      *redis.Client
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates a location service. redisClient may be nil; geocode
// results are then fetched on every call.
func NewService(baseURL string, redisClient *redis.Client, logger *logger.Logger) (service.LocationService, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize timezone finder: %w", err)
	}

	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		finder: finder,
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}, nil
}

// ResolveVotingDay resolves the current calendar date in the location's local
// timezone. An empty location is a validation error, never "server today".
func (s *Service) ResolveVotingDay(ctx context.Context, locationText string) (string, error) {
	locationText = strings.TrimSpace(locationText)
	if locationText == "" {
		return "", errors.NewValidationError("location is required", nil)
	}

	coord, err := s.geocode(ctx, locationText)
	if err != nil {
		return "", err
	}

	// tzf takes (lng, lat) and is deterministic and fully offline
	zoneName := s.finder.GetTimezoneName(coord.Lon, coord.Lat)
	if zoneName == "" {
		s.logger.WithFields(map[string]interface{}{
			"location": locationText,
			"lat":      coord.Lat,
			"lon":      coord.Lon,
		}).Warn("No timezone found for coordinate")
		return "", fmt.Errorf("%w: %s", domain.ErrDayNotResolvable, locationText)
	}

	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		return "", fmt.Errorf("failed to load timezone %q: %w", zoneName, err)
	}

	return s.now().In(zone).Format("2006-01-02"), nil
}

// geocode resolves free text to a coordinate via Nominatim, with a long-lived
// Redis cache in front since city coordinates do not move.
func (s *Service) geocode(ctx context.Context, locationText string) (*Coordinate, error) {
	if s.redis != nil {
		cacheKey := s.redis.KeyBuilder.KeyGeocode(locationText)
		if cached, err := s.redis.Get(ctx, cacheKey); err == nil && cached != "" {
			var coord Coordinate
			if err := json.Unmarshal([]byte(cached), &coord); err == nil {
				return &coord, nil
			}
		}
	}

	reqURL := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", s.baseURL, url.QueryEscape(locationText))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}
	// Nominatim's usage policy requires an identifying user agent
	req.Header.Set("User-Agent", "top10weather/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocode service returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if len(results) == 0 {
		s.logger.WithField("location", locationText).Warn("No geocoding results for location")
		return nil, fmt.Errorf("%w: %s", domain.ErrDayNotResolvable, locationText)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse longitude %q: %w", results[0].Lon, err)
	}

	coord := &Coordinate{Lat: lat, Lon: lon}

	if s.redis != nil {
		cacheKey := s.redis.KeyBuilder.KeyGeocode(locationText)
		if data, err := json.Marshal(coord); err == nil {
			_ = s.redis.Set(ctx, cacheKey, string(data), redis.TTLGeocode)
		}
	}

	return coord, nil
}
