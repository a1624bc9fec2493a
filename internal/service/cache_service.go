package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"top10weather/internal/domain"
	"top10weather/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheService provides cache-aside access to vote status and day summaries.
// All methods tolerate a nil Redis client so the app can run without caching.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// GetVoteWithCache retrieves a user's vote for a day with cache-aside fallback
func (c *CacheService) GetVoteWithCache(ctx context.Context, userID, votingDay string, dbFallback func(ctx context.Context, userID, votingDay string) (*domain.VoteRecord, error)) (*domain.VoteRecord, error) {
	if c.redis == nil {
		return dbFallback(ctx, userID, votingDay)
	}

	cacheKey := c.redis.KeyBuilder.KeyUserVoted(userID, votingDay)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var vote domain.VoteRecord
		if marshalErr := json.Unmarshal([]byte(cachedData), &vote); marshalErr == nil {
			c.logger.Debug("Vote status cache hit",
				zap.String("user_id", userID),
				zap.String("voting_day", votingDay))
			return &vote, nil
		}
		c.logger.Warn("Vote status cache corrupted, falling back to database",
			zap.String("user_id", userID),
			zap.Error(err))
	} else if err != nil && err != goredis.Nil {
		c.logger.Warn("Vote status cache error, falling back to database",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	vote, err := dbFallback(ctx, userID, votingDay)
	if err != nil {
		return nil, fmt.Errorf("database fallback failed: %w", err)
	}

	if vote != nil {
		go c.cacheVoteAsync(userID, votingDay, vote)
	}

	return vote, nil
}

// CacheVote stores the user's vote status after a successful submission
func (c *CacheService) CacheVote(ctx context.Context, vote *domain.VoteRecord) error {
	if c.redis == nil {
		return nil
	}

	cacheKey := c.redis.KeyBuilder.KeyUserVoted(vote.UserID, vote.VotingDay)
	data, err := json.Marshal(vote)
	if err != nil {
		return fmt.Errorf("failed to marshal vote for caching: %w", err)
	}

	return c.redis.Set(ctx, cacheKey, string(data), redis.TTLUserVote)
}

// InvalidateVoteStatus drops the cached vote status for (user, day)
func (c *CacheService) InvalidateVoteStatus(ctx context.Context, userID, votingDay string) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Delete(ctx, c.redis.KeyBuilder.KeyUserVoted(userID, votingDay))
}

// InvalidateDaySummaries drops every cached aggregate for a voting day. Runs
// in the background; summaries self-heal on the next read anyway.
func (c *CacheService) InvalidateDaySummaries(votingDay string) {
	if c.redis == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pattern := c.redis.KeyBuilder.KeyDaySummary(votingDay, "*")
		if err := c.redis.InvalidatePattern(ctx, pattern); err != nil {
			c.logger.Error("Failed to invalidate day summary caches",
				zap.String("voting_day", votingDay),
				zap.Error(err))
			return
		}

		c.logger.Debug("Day summary caches invalidated", zap.String("voting_day", votingDay))
	}()
}

// GetSummaryCache reads a cached aggregate summary, returning nil on any miss
func (c *CacheService) GetSummaryCache(ctx context.Context, votingDay, scopeKey string) *domain.AggregateSummary {
	if c.redis == nil {
		return nil
	}

	cachedData, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyDaySummary(votingDay, scopeKey))
	if err != nil || cachedData == "" {
		return nil
	}

	var summary domain.AggregateSummary
	if err := json.Unmarshal([]byte(cachedData), &summary); err != nil {
		return nil
	}
	return &summary
}

// SetSummaryCache stores an aggregate summary with the short counts TTL
func (c *CacheService) SetSummaryCache(ctx context.Context, scopeKey string, summary *domain.AggregateSummary) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	key := c.redis.KeyBuilder.KeyDaySummary(summary.VotingDay, scopeKey)
	if err := c.redis.Set(ctx, key, string(data), redis.TTLCounts); err != nil {
		c.logger.Warn("Failed to cache summary",
			zap.String("voting_day", summary.VotingDay),
			zap.Error(err))
	}
}

// HealthCheck verifies the cache connection
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}

	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}

// cacheVoteAsync caches a vote record off the request path
func (c *CacheService) cacheVoteAsync(userID, votingDay string, vote *domain.VoteRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.CacheVote(ctx, vote); err != nil {
		c.logger.Error("Failed to cache vote status",
			zap.String("user_id", userID),
			zap.String("voting_day", votingDay),
			zap.Error(err))
	}
}
