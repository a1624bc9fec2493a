package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"top10weather/internal/domain"
	"top10weather/internal/middleware"
	"top10weather/internal/service"
)

// memVoteStore is a minimal in-memory store for handler tests
type memVoteStore struct {
	mu     sync.Mutex
	votes  map[string]*domain.VoteRecord
	nextID int64
}

func newMemVoteStore() *memVoteStore {
	return &memVoteStore{votes: make(map[string]*domain.VoteRecord)}
}

func (m *memVoteStore) CreateVote(ctx context.Context, vote *domain.VoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := vote.UserID + "|" + vote.VotingDay
	if _, exists := m.votes[k]; exists {
		return domain.ErrAlreadyVoted
	}
	m.nextID++
	vote.ID = m.nextID
	vote.CreatedAt = time.Now().UTC()
	stored := *vote
	m.votes[k] = &stored
	return nil
}

func (m *memVoteStore) DeleteVote(ctx context.Context, userID, votingDay string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userID + "|" + votingDay
	if _, exists := m.votes[k]; !exists {
		return 0, nil
	}
	delete(m.votes, k)
	return 1, nil
}

func (m *memVoteStore) GetVoteByUserAndDay(ctx context.Context, userID, votingDay string) (*domain.VoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vote, exists := m.votes[userID+"|"+votingDay]
	if !exists {
		return nil, nil
	}
	copied := *vote
	return &copied, nil
}

func (m *memVoteStore) ListVotesByDay(ctx context.Context, votingDay, locationFilter string) ([]domain.VoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.VoteRecord
	for _, vote := range m.votes {
		if vote.VotingDay != votingDay {
			continue
		}
		if locationFilter != "" && vote.Location != locationFilter {
			continue
		}
		out = append(out, *vote)
	}
	return out, nil
}

type fixedDayLocation struct {
	day string
	err error
}

func (f *fixedDayLocation) ResolveVotingDay(ctx context.Context, locationText string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.day, nil
}

func newTestVotingHandler(store *memVoteStore, day string) *VotingHandler {
	loc := &fixedDayLocation{day: day}
	voting := service.NewVotingService(store, loc, nil, zap.NewNop())
	aggregation := service.NewAggregationService(store, nil, zap.NewNop())
	return NewVotingHandler(voting, aggregation, loc)
}

func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	user := &domain.UserProfile{
		Sub:   "user-123",
		Email: "user@example.com",
		Name:  "Test User",
	}
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, user)
	return req.WithContext(ctx)
}

func voteBody(t *testing.T, isTop10 bool, location string, withWeather bool) []byte {
	t.Helper()
	req := domain.VoteRequest{
		IsTop10:  isTop10,
		Location: location,
	}
	if withWeather {
		req.Weather = &domain.WeatherSnapshot{
			Temperature: 72,
			Conditions:  "Sunny",
			Humidity:    40,
			WindSpeed:   5,
			UVIndex:     6,
			FeelsLike:   73,
			Pressure:    29.92,
			Visibility:  10,
		}
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return data
}

func TestVotingHandler_SubmitVote(t *testing.T) {
	t.Run("Successful submission", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")

		req := authedRequest("POST", "/api/votes", voteBody(t, true, "Austin, Texas", true))
		rec := httptest.NewRecorder()
		h.SubmitVote(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp domain.VoteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "2026-08-30", resp.VotingDay)
		assert.True(t, resp.IsTop10)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")

		req := httptest.NewRequest("POST", "/api/votes", bytes.NewReader(voteBody(t, true, "Austin, Texas", true)))
		rec := httptest.NewRecorder()
		h.SubmitVote(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Duplicate vote conflicts", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")

		rec := httptest.NewRecorder()
		h.SubmitVote(rec, authedRequest("POST", "/api/votes", voteBody(t, true, "Austin, Texas", true)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		h.SubmitVote(rec, authedRequest("POST", "/api/votes", voteBody(t, false, "Austin, Texas", true)))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Missing weather snapshot", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")

		rec := httptest.NewRecorder()
		h.SubmitVote(rec, authedRequest("POST", "/api/votes", voteBody(t, true, "Austin, Texas", false)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Malformed location", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")

		rec := httptest.NewRecorder()
		h.SubmitVote(rec, authedRequest("POST", "/api/votes", voteBody(t, true, "Austin", true)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Invalid body", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")

		rec := httptest.NewRecorder()
		h.SubmitVote(rec, authedRequest("POST", "/api/votes", []byte("not json")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVotingHandler_ChangeVote(t *testing.T) {
	t.Run("Deletes and reports count", func(t *testing.T) {
		store := newMemVoteStore()
		h := newTestVotingHandler(store, "2026-08-30")

		rec := httptest.NewRecorder()
		h.SubmitVote(rec, authedRequest("POST", "/api/votes", voteBody(t, true, "Austin, Texas", true)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		h.ChangeVote(rec, authedRequest("DELETE", "/api/votes/today?location=Austin%2C+Texas", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp domain.ChangeVoteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.Deleted)

		// Idempotent second delete
		rec = httptest.NewRecorder()
		h.ChangeVote(rec, authedRequest("DELETE", "/api/votes/today?location=Austin%2C+Texas", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(0), resp.Deleted)
	})

	t.Run("Missing location", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")

		rec := httptest.NewRecorder()
		h.ChangeVote(rec, authedRequest("DELETE", "/api/votes/today", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVotingHandler_GetMyVoteStatus(t *testing.T) {
	store := newMemVoteStore()
	h := newTestVotingHandler(store, "2026-08-30")

	rec := httptest.NewRecorder()
	h.GetMyVoteStatus(rec, authedRequest("GET", "/api/votes/me?location=Austin%2C+Texas", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status domain.VoteStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, domain.StateNotVoted, status.State)

	rec = httptest.NewRecorder()
	h.SubmitVote(rec, authedRequest("POST", "/api/votes", voteBody(t, true, "Austin, Texas", true)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.GetMyVoteStatus(rec, authedRequest("GET", "/api/votes/me?location=Austin%2C+Texas", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, domain.StateVoted, status.State)
	assert.True(t, status.HasVoted)
}

func TestVotingHandler_GetVotesSummary(t *testing.T) {
	seed := func(t *testing.T, h *VotingHandler, votes []struct {
		user     string
		location string
		isTop10  bool
	}) {
		t.Helper()
		for _, v := range votes {
			req := httptest.NewRequest("POST", "/api/votes", bytes.NewReader(voteBody(t, v.isTop10, v.location, true)))
			ctx := context.WithValue(req.Context(), middleware.UserContextKey, &domain.UserProfile{
				Sub:   v.user,
				Email: fmt.Sprintf("%s@example.com", v.user),
			})
			rec := httptest.NewRecorder()
			h.SubmitVote(rec, req.WithContext(ctx))
			require.Equal(t, http.StatusCreated, rec.Code)
		}
	}

	t.Run("City-state summary with ETag", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")
		seed(t, h, []struct {
			user     string
			location string
			isTop10  bool
		}{
			{"u1", "Austin, Texas", true},
			{"u2", "Dallas, Texas", false},
			{"u3", "Austin, Texas", true},
		})

		rec := httptest.NewRecorder()
		h.GetVotesSummary(rec, httptest.NewRequest("GET", "/api/votes/summary?location=Austin%2C+Texas&mode=city-state", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		etag := rec.Header().Get("ETag")
		assert.NotEmpty(t, etag)
		assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age")

		var summary domain.AggregateSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		require.NotNil(t, summary.Split)
		assert.Equal(t, 3, summary.Split.TotalVotesState)
		assert.Equal(t, 2, summary.Split.TotalVotesCity)
		assert.Equal(t, 2, summary.Split.YesVotesCity)
	})

	t.Run("Exact mode", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")
		seed(t, h, []struct {
			user     string
			location string
			isTop10  bool
		}{
			{"u1", "Austin, Texas", true},
			{"u2", "Dallas, Texas", false},
		})

		rec := httptest.NewRecorder()
		h.GetVotesSummary(rec, httptest.NewRequest("GET", "/api/votes/summary?location=Austin%2C+Texas&mode=exact", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var summary domain.AggregateSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		require.NotNil(t, summary.Exact)
		assert.Equal(t, 1, summary.Exact.TotalVotes)
	})

	t.Run("Missing location", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")

		rec := httptest.NewRecorder()
		h.GetVotesSummary(rec, httptest.NewRequest("GET", "/api/votes/summary", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown mode", func(t *testing.T) {
		h := newTestVotingHandler(newMemVoteStore(), "2026-08-30")

		rec := httptest.NewRecorder()
		h.GetVotesSummary(rec, httptest.NewRequest("GET", "/api/votes/summary?location=Austin%2C+Texas&mode=bogus", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
