package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"top10weather/internal/domain"
	"top10weather/internal/repository"
	"top10weather/pkg/errors"
	"top10weather/pkg/redis"

	"go.uber.org/zap"
)

// AggregationService recomputes vote count summaries on demand. A summary is
// a pure function of the day's stored rows, so results are cached with a
// short TTL and invalidated on submit/change. Full recomputation is O(n) over
// one day's votes, which stays small; incremental counters would only be
// needed at much larger volume.
type AggregationService struct {
	voteRepo     repository.VoteStore
	cacheService *CacheService
	logger       *zap.Logger
}

func NewAggregationService(voteRepo repository.VoteStore, redisClient *redis.Client, logger *zap.Logger) *AggregationService {
	return &AggregationService{
		voteRepo:     voteRepo,
		cacheService: NewCacheService(redisClient, logger),
		logger:       logger,
	}
}

// ComputeSummary counts the day's votes scoped by mode. ModeExact matches the
// location string exactly; ModeCityState buckets every row into state counts
// (region match) and, within those, city counts (city match too).
func (s *AggregationService) ComputeSummary(ctx context.Context, votingDay, location string, mode domain.AggregationMode) (*domain.AggregateSummary, error) {
	if votingDay == "" {
		return nil, errors.NewValidationError("voting day is required", nil)
	}
	if location == "" {
		return nil, errors.NewValidationError("location is required", nil)
	}

	scopeKey := buildScopeKey(mode, location)
	if cached := s.cacheService.GetSummaryCache(ctx, votingDay, scopeKey); cached != nil {
		return cached, nil
	}

	var summary *domain.AggregateSummary
	var err error

	switch mode {
	case domain.ModeExact:
		summary, err = s.computeExact(ctx, votingDay, location)
	case domain.ModeCityState:
		summary, err = s.computeCityState(ctx, votingDay, location)
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown aggregation mode %q", mode), nil)
	}
	if err != nil {
		return nil, err
	}

	s.cacheService.SetSummaryCache(ctx, scopeKey, summary)
	return summary, nil
}

// computeExact counts rows whose location string equals the caller's exactly.
// The store does the filtering.
func (s *AggregationService) computeExact(ctx context.Context, votingDay, location string) (*domain.AggregateSummary, error) {
	votes, err := s.voteRepo.ListVotesByDay(ctx, votingDay, location)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	counts := &domain.ExactCounts{}
	for _, vote := range votes {
		counts.TotalVotes++
		if vote.IsTop10 {
			counts.YesVotes++
		} else {
			counts.NoVotes++
		}
	}

	return &domain.AggregateSummary{
		VotingDay:  votingDay,
		Location:   location,
		Mode:       domain.ModeExact,
		Exact:      counts,
		LastUpdate: time.Now().UTC(),
	}, nil
}

// computeCityState fetches the whole day and does its own location parsing.
// A row lands in the state bucket iff its region matches the caller's, and
// additionally in the city bucket iff its city matches too, so state counts
// always contain the city counts. Rows with an unparseable location are
// counted nowhere and logged.
func (s *AggregationService) computeCityState(ctx context.Context, votingDay, location string) (*domain.AggregateSummary, error) {
	city, region, ok := domain.SplitLocation(location)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("location %q is not of the form \"City, Region\"", location), nil)
	}

	votes, err := s.voteRepo.ListVotesByDay(ctx, votingDay, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	counts := &domain.SplitCounts{}
	for _, vote := range votes {
		voteCity, voteRegion, ok := domain.SplitLocation(vote.Location)
		if !ok {
			s.logger.Warn("Skipping vote with unparseable location",
				zap.Int64("vote_id", vote.ID),
				zap.String("location", vote.Location))
			continue
		}

		if voteRegion != region {
			continue
		}

		counts.TotalVotesState++
		if vote.IsTop10 {
			counts.YesVotesState++
		} else {
			counts.NoVotesState++
		}

		if voteCity == city {
			counts.TotalVotesCity++
			if vote.IsTop10 {
				counts.YesVotesCity++
			} else {
				counts.NoVotesCity++
			}
		}
	}

	return &domain.AggregateSummary{
		VotingDay:  votingDay,
		Location:   location,
		Mode:       domain.ModeCityState,
		Split:      counts,
		LastUpdate: time.Now().UTC(),
	}, nil
}

// buildScopeKey makes a cache key suffix from the mode and location. Spaces
// are collapsed so "Austin,TX" and "Austin, TX" share an entry only when the
// strings actually normalize the same way.
func buildScopeKey(mode domain.AggregationMode, location string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(location), " "))
	return fmt.Sprintf("%s:%s", mode, normalized)
}
