package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"top10weather/internal/domain"
	"top10weather/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type VoteRepository struct {
	db *database.PostgresDB
}

func NewVoteRepository(db *database.PostgresDB) *VoteRepository {
	return &VoteRepository{db: db}
}

const voteColumns = `id, user_id, user_email, is_top10, temperature, conditions,
	       humidity, wind_speed, uv_index, feels_like, pressure, visibility,
	       location, user_agent, is_manual_entry, vote_date, created_at`

// CreateVote inserts a new vote record
func (r *VoteRepository) CreateVote(ctx context.Context, vote *domain.VoteRecord) error {
	query := `
		INSERT INTO weather_votes (
			user_id, user_email, is_top10, temperature, conditions, humidity,
			wind_speed, uv_index, feels_like, pressure, visibility, location,
			user_agent, is_manual_entry, vote_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		vote.UserID,
		vote.UserEmail,
		vote.IsTop10,
		vote.Weather.Temperature,
		vote.Weather.Conditions,
		vote.Weather.Humidity,
		vote.Weather.WindSpeed,
		vote.Weather.UVIndex,
		vote.Weather.FeelsLike,
		vote.Weather.Pressure,
		vote.Weather.Visibility,
		vote.Location,
		vote.UserAgent,
		vote.IsManualEntry,
		vote.VotingDay,
	).Scan(&vote.ID, &vote.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}

	return nil
}

// DeleteVote removes the user's vote for a voting day
func (r *VoteRepository) DeleteVote(ctx context.Context, userID, votingDay string) (int64, error) {
	query := `DELETE FROM weather_votes WHERE user_id = $1 AND vote_date = $2`

	tag, err := r.db.Pool.Exec(ctx, query, userID, votingDay)
	if err != nil {
		return 0, fmt.Errorf("failed to delete vote: %w", err)
	}

	return tag.RowsAffected(), nil
}

// GetVoteByUserAndDay gets the user's vote for a voting day, nil when absent.
// If duplicate rows exist the oldest wins; reconciliation is not attempted.
func (r *VoteRepository) GetVoteByUserAndDay(ctx context.Context, userID, votingDay string) (*domain.VoteRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM weather_votes
		WHERE user_id = $1 AND vote_date = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, voteColumns)

	vote, err := scanVote(r.db.Pool.QueryRow(ctx, query, userID, votingDay))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return vote, nil
}

// ListVotesByDay returns all votes for a voting day, optionally filtered to an
// exact location string match
func (r *VoteRepository) ListVotesByDay(ctx context.Context, votingDay, locationFilter string) ([]domain.VoteRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM weather_votes
		WHERE vote_date = $1
		ORDER BY created_at ASC
	`, voteColumns)
	args := []interface{}{votingDay}

	if locationFilter != "" {
		query = fmt.Sprintf(`
			SELECT %s
			FROM weather_votes
			WHERE vote_date = $1 AND location = $2
			ORDER BY created_at ASC
		`, voteColumns)
		args = append(args, locationFilter)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.VoteRecord
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, *vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}

	return votes, nil
}

func scanVote(row pgx.Row) (*domain.VoteRecord, error) {
	var vote domain.VoteRecord
	var voteDate time.Time
	err := row.Scan(
		&vote.ID,
		&vote.UserID,
		&vote.UserEmail,
		&vote.IsTop10,
		&vote.Weather.Temperature,
		&vote.Weather.Conditions,
		&vote.Weather.Humidity,
		&vote.Weather.WindSpeed,
		&vote.Weather.UVIndex,
		&vote.Weather.FeelsLike,
		&vote.Weather.Pressure,
		&vote.Weather.Visibility,
		&vote.Location,
		&vote.UserAgent,
		&vote.IsManualEntry,
		&voteDate,
		&vote.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	vote.VotingDay = voteDate.Format("2006-01-02")
	return &vote, nil
}
