package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"top10weather/internal/domain"
	"top10weather/internal/service"
)

type WeatherHandler struct {
	weatherService service.WeatherService
}

func NewWeatherHandler(weatherService service.WeatherService) *WeatherHandler {
	return &WeatherHandler{weatherService: weatherService}
}

type currentWeatherResponse struct {
	Weather  *domain.WeatherSnapshot `json:"weather"`
	Location string                  `json:"location"`
}

// CurrentConditions handles GET /api/weather/current?lat=&lon=
func (h *WeatherHandler) CurrentConditions(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		h.respondError(w, http.StatusBadRequest, "lat must be a number between -90 and 90")
		return
	}

	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		h.respondError(w, http.StatusBadRequest, "lon must be a number between -180 and 180")
		return
	}

	snapshot, locationName, err := h.weatherService.CurrentConditions(r.Context(), lat, lon)
	if err != nil {
		h.respondError(w, http.StatusBadGateway, "Failed to fetch current weather")
		return
	}

	h.respondJSON(w, http.StatusOK, currentWeatherResponse{
		Weather:  snapshot,
		Location: locationName,
	})
}

func (h *WeatherHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *WeatherHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
