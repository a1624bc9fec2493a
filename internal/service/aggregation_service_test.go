package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"top10weather/internal/domain"
)

func seedVotes(t *testing.T, store *fakeVoteStore, day string, votes []struct {
	location string
	isTop10  bool
}) {
	t.Helper()
	ctx := context.Background()

	for i, v := range votes {
		err := store.CreateVote(ctx, &domain.VoteRecord{
			UserID:    fmt.Sprintf("user-%d", i),
			UserEmail: fmt.Sprintf("user-%d@example.com", i),
			IsTop10:   v.isTop10,
			Weather:   *testWeather(),
			Location:  v.location,
			VotingDay: day,
		})
		require.NoError(t, err)
	}
}

func TestAggregationService_ComputeSummary_Exact(t *testing.T) {
	ctx := context.Background()
	store := newFakeVoteStore()
	svc := NewAggregationService(store, nil, zap.NewNop())

	seedVotes(t, store, "2026-08-30", []struct {
		location string
		isTop10  bool
	}{
		{"Austin, Texas", true},
		{"Austin, Texas", true},
		{"Austin, Texas", false},
		{"Dallas, Texas", true},
	})

	summary, err := svc.ComputeSummary(ctx, "2026-08-30", "Austin, Texas", domain.ModeExact)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeExact, summary.Mode)
	assert.Equal(t, "2026-08-30", summary.VotingDay)
	require.NotNil(t, summary.Exact)
	assert.Nil(t, summary.Split)
	assert.Equal(t, 2, summary.Exact.YesVotes)
	assert.Equal(t, 1, summary.Exact.NoVotes)
	assert.Equal(t, 3, summary.Exact.TotalVotes)

	// Dallas does not leak into Austin's exact counts
	summary, err = svc.ComputeSummary(ctx, "2026-08-30", "Dallas, Texas", domain.ModeExact)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Exact.TotalVotes)
}

func TestAggregationService_ComputeSummary_CityState(t *testing.T) {
	ctx := context.Background()
	store := newFakeVoteStore()
	svc := NewAggregationService(store, nil, zap.NewNop())

	seedVotes(t, store, "2026-08-30", []struct {
		location string
		isTop10  bool
	}{
		{"Austin, Texas", true},
		{"Austin, Texas", false},
		{"Dallas, Texas", true},
		{"Dallas, Texas", true},
		{"Portland, Oregon", true},
	})

	summary, err := svc.ComputeSummary(ctx, "2026-08-30", "Austin, Texas", domain.ModeCityState)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeCityState, summary.Mode)
	require.NotNil(t, summary.Split)
	assert.Nil(t, summary.Exact)

	// State counts cover all Texas rows
	assert.Equal(t, 3, summary.Split.YesVotesState)
	assert.Equal(t, 1, summary.Split.NoVotesState)
	assert.Equal(t, 4, summary.Split.TotalVotesState)

	// City counts cover only Austin rows
	assert.Equal(t, 1, summary.Split.YesVotesCity)
	assert.Equal(t, 1, summary.Split.NoVotesCity)
	assert.Equal(t, 2, summary.Split.TotalVotesCity)

	// City counts are always contained in the state counts
	assert.LessOrEqual(t, summary.Split.TotalVotesCity, summary.Split.TotalVotesState)
	assert.LessOrEqual(t, summary.Split.YesVotesCity, summary.Split.YesVotesState)
	assert.LessOrEqual(t, summary.Split.NoVotesCity, summary.Split.NoVotesState)
}

func TestAggregationService_ComputeSummary_SkipsUnparseableRows(t *testing.T) {
	ctx := context.Background()
	store := newFakeVoteStore()
	svc := NewAggregationService(store, nil, zap.NewNop())

	// A row without a comma predates write-time validation. It counts nowhere
	// in city-state mode.
	seedVotes(t, store, "2026-08-30", []struct {
		location string
		isTop10  bool
	}{
		{"Austin, Texas", true},
		{"Austin", true},
	})

	summary, err := svc.ComputeSummary(ctx, "2026-08-30", "Austin, Texas", domain.ModeCityState)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Split.TotalVotesState)
	assert.Equal(t, 1, summary.Split.TotalVotesCity)
}

func TestAggregationService_ComputeSummary_Validation(t *testing.T) {
	ctx := context.Background()
	store := newFakeVoteStore()
	svc := NewAggregationService(store, nil, zap.NewNop())

	t.Run("Missing voting day", func(t *testing.T) {
		_, err := svc.ComputeSummary(ctx, "", "Austin, Texas", domain.ModeExact)
		assert.Error(t, err)
	})

	t.Run("Missing location", func(t *testing.T) {
		_, err := svc.ComputeSummary(ctx, "2026-08-30", "", domain.ModeExact)
		assert.Error(t, err)
	})

	t.Run("Unknown mode", func(t *testing.T) {
		_, err := svc.ComputeSummary(ctx, "2026-08-30", "Austin, Texas", domain.AggregationMode("bogus"))
		assert.Error(t, err)
	})

	t.Run("Malformed caller location in city-state mode", func(t *testing.T) {
		_, err := svc.ComputeSummary(ctx, "2026-08-30", "Austin", domain.ModeCityState)
		assert.Error(t, err)
	})
}

func TestAggregationService_ComputeSummary_Deterministic(t *testing.T) {
	ctx := context.Background()
	store := newFakeVoteStore()
	svc := NewAggregationService(store, nil, zap.NewNop())

	seedVotes(t, store, "2026-08-30", []struct {
		location string
		isTop10  bool
	}{
		{"Austin, Texas", true},
		{"Dallas, Texas", false},
	})

	first, err := svc.ComputeSummary(ctx, "2026-08-30", "Austin, Texas", domain.ModeCityState)
	require.NoError(t, err)

	// Same store contents, same counts, regardless of iteration order
	for i := 0; i < 5; i++ {
		again, err := svc.ComputeSummary(ctx, "2026-08-30", "Austin, Texas", domain.ModeCityState)
		require.NoError(t, err)
		assert.Equal(t, first.Split, again.Split)
	}
}

func TestAggregationService_ComputeSummary_EmptyDay(t *testing.T) {
	ctx := context.Background()
	store := newFakeVoteStore()
	svc := NewAggregationService(store, nil, zap.NewNop())

	summary, err := svc.ComputeSummary(ctx, "2026-08-30", "Austin, Texas", domain.ModeCityState)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Split.TotalVotesState)
	assert.Equal(t, 0, summary.Split.TotalVotesCity)
}
