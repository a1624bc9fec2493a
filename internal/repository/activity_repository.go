package repository

import (
	"context"
	"fmt"

	"top10weather/pkg/database"
)

// ActivityRepository reads the user_activity_summary view (one row per user
// email with their most recent vote date). Only the reminder job uses it.
type ActivityRepository struct {
	db *database.PostgresDB
}

func NewActivityRepository(db *database.PostgresDB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListUsersWithoutVote returns the emails of users whose last vote date is
// null or not the given day
func (r *ActivityRepository) ListUsersWithoutVote(ctx context.Context, votingDay string) ([]string, error) {
	query := `
		SELECT user_email
		FROM user_activity_summary
		WHERE last_vote_date IS NULL OR last_vote_date <> $1
	`

	rows, err := r.db.Pool.Query(ctx, query, votingDay)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity summary: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}

	return emails, nil
}
