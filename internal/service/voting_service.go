package service

import (
	"context"
	"errors"
	"fmt"

	"top10weather/internal/domain"
	"top10weather/internal/repository"
	"top10weather/pkg/redis"

	"go.uber.org/zap"
)

// VotingService is the per-user daily vote state machine. For a resolved
// voting day a user is in exactly one of three states: Unknown (day not
// resolvable), NotVoted, or Voted. Submit moves NotVoted to Voted; ChangeVote
// moves Voted back to NotVoted and a follow-up Submit re-enters Voted. The
// state is always derived from the store, never held here.
type VotingService struct {
	voteRepo     repository.VoteStore
	location     LocationService
	redis        *redis.Client
	cacheService *CacheService
	logger       *zap.Logger
}

func NewVotingService(voteRepo repository.VoteStore, location LocationService, redisClient *redis.Client, logger *zap.Logger) *VotingService {
	return &VotingService{
		voteRepo:     voteRepo,
		location:     location,
		redis:        redisClient,
		cacheService: NewCacheService(redisClient, logger),
		logger:       logger,
	}
}

// SubmitVote validates, resolves the voting day for the submitted location,
// and persists exactly one record per (user, day)
func (s *VotingService) SubmitVote(ctx context.Context, user *domain.UserProfile, req *domain.VoteRequest, userAgent string) (*domain.VoteResponse, error) {
	if req.Weather == nil {
		return nil, domain.ErrMissingSnapshot
	}

	// Malformed locations are rejected at write time so the aggregator never
	// has to silently drop rows
	if _, _, ok := domain.SplitLocation(req.Location); !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLocation, req.Location)
	}

	// The voting day is the current date in the submitted location's own
	// timezone, never the server's
	votingDay, err := s.location.ResolveVotingDay(ctx, req.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve voting day: %w", err)
	}

	// Guard double submits from rapid repeat clicks
	acquired, err := s.tryIdempotencyLock(ctx, user.Sub, votingDay)
	if err == nil && !acquired {
		return nil, domain.ErrAlreadyVoted
	}

	// Check the vote status cache, then the store
	existing, err := s.cacheService.GetVoteWithCache(ctx, user.Sub, votingDay, s.voteRepo.GetVoteByUserAndDay)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyVoted
	}

	vote := &domain.VoteRecord{
		UserID:        user.Sub,
		UserEmail:     user.Email,
		IsTop10:       req.IsTop10,
		Weather:       *req.Weather,
		Location:      req.Location,
		UserAgent:     userAgent,
		IsManualEntry: req.IsManualEntry,
		VotingDay:     votingDay,
	}

	// The unique index on (user_id, vote_date) backs the existence check, so
	// a concurrent session loses cleanly with ErrAlreadyVoted
	if err := s.voteRepo.CreateVote(ctx, vote); err != nil {
		if errors.Is(err, domain.ErrAlreadyVoted) {
			return nil, domain.ErrAlreadyVoted
		}
		return nil, fmt.Errorf("failed to save vote: %w", err)
	}

	if err := s.cacheService.CacheVote(ctx, vote); err != nil {
		s.logger.Warn("Failed to cache vote submission",
			zap.String("user_id", user.Sub),
			zap.Error(err))
		// Caching failure must not fail the vote
	}

	s.cacheService.InvalidateDaySummaries(votingDay)

	s.logger.Info("Vote submitted",
		zap.String("user_id", user.Sub),
		zap.String("voting_day", votingDay),
		zap.Bool("is_top10", vote.IsTop10),
		zap.String("location", vote.Location))

	return &domain.VoteResponse{
		VoteID:    vote.ID,
		IsTop10:   vote.IsTop10,
		VotingDay: votingDay,
		Location:  vote.Location,
		Timestamp: vote.CreatedAt,
		Message:   "Vote submitted successfully",
	}, nil
}

// ChangeVote deletes the user's vote for the current voting day. It does not
// create a replacement; the caller submits again. Deleting when no vote
// exists reports zero rows and succeeds. The delete and any follow-up submit
// are two independent calls, so a failure between them leaves the user with
// no vote for the day.
func (s *VotingService) ChangeVote(ctx context.Context, userID, locationText string) (*domain.ChangeVoteResponse, error) {
	votingDay, err := s.location.ResolveVotingDay(ctx, locationText)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve voting day: %w", err)
	}

	deleted, err := s.voteRepo.DeleteVote(ctx, userID, votingDay)
	if err != nil {
		return nil, fmt.Errorf("failed to delete vote: %w", err)
	}

	if err := s.cacheService.InvalidateVoteStatus(ctx, userID, votingDay); err != nil {
		s.logger.Warn("Failed to invalidate vote status cache",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	if deleted > 0 {
		s.cacheService.InvalidateDaySummaries(votingDay)
	}

	s.logger.Info("Vote change requested",
		zap.String("user_id", userID),
		zap.String("voting_day", votingDay),
		zap.Int64("deleted", deleted))

	return &domain.ChangeVoteResponse{
		Deleted:   deleted,
		VotingDay: votingDay,
		Message:   "Vote removed; submit again to record a new one",
	}, nil
}

// GetVoteStatus derives the user's state for the current voting day at their
// location. An unresolvable day yields StateUnknown rather than an error;
// store failures are errors.
func (s *VotingService) GetVoteStatus(ctx context.Context, userID, locationText string) (*domain.VoteStatus, error) {
	votingDay, err := s.location.ResolveVotingDay(ctx, locationText)
	if err != nil {
		s.logger.Warn("Voting day unresolved, reporting unknown state",
			zap.String("user_id", userID),
			zap.String("location", locationText),
			zap.Error(err))
		return &domain.VoteStatus{State: domain.StateUnknown}, nil
	}

	vote, err := s.cacheService.GetVoteWithCache(ctx, userID, votingDay, s.voteRepo.GetVoteByUserAndDay)
	if err != nil {
		return nil, fmt.Errorf("failed to check vote status: %w", err)
	}

	if vote == nil {
		return &domain.VoteStatus{
			State:     domain.StateNotVoted,
			VotingDay: votingDay,
		}, nil
	}

	isTop10 := vote.IsTop10
	votedAt := vote.CreatedAt
	return &domain.VoteStatus{
		State:     domain.StateVoted,
		VotingDay: votingDay,
		HasVoted:  true,
		IsTop10:   &isTop10,
		VotedAt:   &votedAt,
	}, nil
}

// HealthCheck verifies the service's cache dependency
func (s *VotingService) HealthCheck(ctx context.Context) error {
	if err := s.cacheService.HealthCheck(ctx); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}

// tryIdempotencyLock acquires a short-lived SetNX lock for (user, day).
// Returns true when Redis is unavailable so voting still works without it.
func (s *VotingService) tryIdempotencyLock(ctx context.Context, userID, votingDay string) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	key := s.redis.KeyBuilder.KeyIdempotency(fmt.Sprintf("vote:%s:%s", userID, votingDay))
	return s.redis.SetNX(ctx, key, "1", redis.TTLIdem)
}
