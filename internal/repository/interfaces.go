package repository

import (
	"context"

	"top10weather/internal/domain"
)

// VoteStore defines the narrow persistence interface over weather_votes
type VoteStore interface {
	// CreateVote inserts a new vote record. Returns domain.ErrAlreadyVoted when
	// the (user_id, vote_date) unique constraint rejects the write.
	CreateVote(ctx context.Context, vote *domain.VoteRecord) error

	// DeleteVote removes the user's vote for a voting day and reports how many
	// rows went away. Zero rows is not an error.
	DeleteVote(ctx context.Context, userID, votingDay string) (int64, error)

	// GetVoteByUserAndDay returns the user's vote for a day, or nil when absent
	GetVoteByUserAndDay(ctx context.Context, userID, votingDay string) (*domain.VoteRecord, error)

	// ListVotesByDay returns the day's votes, optionally restricted to an exact
	// location string match when locationFilter is non-empty
	ListVotesByDay(ctx context.Context, votingDay, locationFilter string) ([]domain.VoteRecord, error)
}

// ActivityStore reads the user_activity_summary view consumed by the reminder job
type ActivityStore interface {
	// ListUsersWithoutVote returns emails of users whose last vote date is null
	// or differs from the given day
	ListUsersWithoutVote(ctx context.Context, votingDay string) ([]string, error)
}
