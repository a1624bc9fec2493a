package handler

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"top10weather/internal/domain"
	"top10weather/internal/middleware"
	"top10weather/internal/service"
)

type VotingHandler struct {
	votingService      *service.VotingService
	aggregationService *service.AggregationService
	locationService    service.LocationService
}

func NewVotingHandler(votingService *service.VotingService, aggregationService *service.AggregationService, locationService service.LocationService) *VotingHandler {
	return &VotingHandler{
		votingService:      votingService,
		aggregationService: aggregationService,
		locationService:    locationService,
	}
}

// SubmitVote handles POST /api/votes
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := h.getUser(r)
	if user == nil {
		h.respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userAgent := r.Header.Get("User-Agent")

	response, err := h.votingService.SubmitVote(ctx, user, &req, userAgent)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyVoted):
			h.respondError(w, http.StatusConflict, "You have already voted today")
		case errors.Is(err, domain.ErrMissingSnapshot):
			h.respondError(w, http.StatusBadRequest, "A weather snapshot is required to vote")
		case errors.Is(err, domain.ErrInvalidLocation):
			h.respondError(w, http.StatusBadRequest, `Location must be of the form "City, Region"`)
		case errors.Is(err, domain.ErrDayNotResolvable):
			h.respondError(w, http.StatusBadRequest, "Could not resolve a voting day for that location")
		default:
			h.respondError(w, http.StatusInternalServerError, "Failed to submit vote")
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, response)
}

// ChangeVote handles DELETE /api/votes/today
func (h *VotingHandler) ChangeVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := h.getUser(r)
	if user == nil {
		h.respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	location := r.URL.Query().Get("location")
	if location == "" {
		h.respondError(w, http.StatusBadRequest, "location query parameter is required")
		return
	}

	response, err := h.votingService.ChangeVote(ctx, user.Sub, location)
	if err != nil {
		if errors.Is(err, domain.ErrDayNotResolvable) {
			h.respondError(w, http.StatusBadRequest, "Could not resolve a voting day for that location")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to change vote")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetMyVoteStatus handles GET /api/votes/me
func (h *VotingHandler) GetMyVoteStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := h.getUser(r)
	if user == nil {
		h.respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	location := r.URL.Query().Get("location")
	if location == "" {
		h.respondError(w, http.StatusBadRequest, "location query parameter is required")
		return
	}

	status, err := h.votingService.GetVoteStatus(ctx, user.Sub, location)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to get vote status")
		return
	}

	h.respondJSON(w, http.StatusOK, status)
}

// GetVotesSummary handles GET /api/votes/summary (public, polled by clients)
func (h *VotingHandler) GetVotesSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	location := r.URL.Query().Get("location")
	if location == "" {
		h.respondError(w, http.StatusBadRequest, "location query parameter is required")
		return
	}

	mode := domain.AggregationMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.ModeCityState
	}
	if mode != domain.ModeExact && mode != domain.ModeCityState {
		h.respondError(w, http.StatusBadRequest, "mode must be \"exact\" or \"city-state\"")
		return
	}

	votingDay, err := h.locationService.ResolveVotingDay(ctx, location)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Could not resolve a voting day for that location")
		return
	}

	summary, err := h.aggregationService.ComputeSummary(ctx, votingDay, location, mode)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to compute vote summary")
		return
	}

	etag := h.generateETag(summary)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=10")

	h.respondJSON(w, http.StatusOK, summary)
}

// Helper methods

func (h *VotingHandler) getUser(r *http.Request) *domain.UserProfile {
	if user, ok := r.Context().Value(middleware.UserContextKey).(*domain.UserProfile); ok {
		return user
	}
	return nil
}

func (h *VotingHandler) generateETag(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf(`"%x"`, hash)
}

func (h *VotingHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *VotingHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
