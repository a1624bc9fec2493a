package domain

import (
	"errors"
	"strings"
	"time"
)

// Sentinel errors surfaced by the voting service
var (
	ErrAlreadyVoted     = errors.New("user has already voted for this day")
	ErrMissingSnapshot  = errors.New("weather snapshot is required")
	ErrInvalidLocation  = errors.New("location must be of the form \"City, Region\"")
	ErrDayNotResolvable = errors.New("voting day could not be resolved for location")
)

// WeatherSnapshot captures current conditions at vote time. Immutable once
// the vote is written.
type WeatherSnapshot struct {
	Temperature int     `json:"temperature"`
	Conditions  string  `json:"conditions"`
	Humidity    int     `json:"humidity"`
	WindSpeed   int     `json:"wind_speed"`
	UVIndex     float64 `json:"uv_index"`
	FeelsLike   int     `json:"feels_like"`
	Pressure    float64 `json:"pressure"`
	Visibility  int     `json:"visibility"`
}

// VoteRecord is one row of weather_votes: a single user's yes/no vote for one
// voting day, with the conditions they saw when they cast it.
type VoteRecord struct {
	ID            int64           `json:"id"`
	UserID        string          `json:"user_id"`
	UserEmail     string          `json:"user_email"`
	IsTop10       bool            `json:"is_top10"`
	Weather       WeatherSnapshot `json:"weather"`
	Location      string          `json:"location"`
	UserAgent     string          `json:"user_agent"`
	IsManualEntry bool            `json:"is_manual_entry"`
	VotingDay     string          `json:"vote_date"` // YYYY-MM-DD in the location's timezone
	CreatedAt     time.Time       `json:"created_at"`
}

// VoteRequest is a vote submission body
type VoteRequest struct {
	IsTop10       bool             `json:"is_top10"`
	Location      string           `json:"location"`
	Weather       *WeatherSnapshot `json:"weather"`
	IsManualEntry bool             `json:"is_manual_entry"`
}

// VoteResponse is returned after a successful submission
type VoteResponse struct {
	VoteID    int64     `json:"vote_id"`
	IsTop10   bool      `json:"is_top10"`
	VotingDay string    `json:"voting_day"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// VoteState is the per-user, per-day position in the voting flow
type VoteState string

const (
	// StateUnknown means the voting day could not be resolved yet
	StateUnknown VoteState = "unknown"
	// StateNotVoted means the day resolved and no record exists
	StateNotVoted VoteState = "not_voted"
	// StateVoted means a record exists for (user, day)
	StateVoted VoteState = "voted"
)

// VoteStatus is the transient, derived view of a user's vote for the current
// voting day. It is never persisted; the store owns the records.
type VoteStatus struct {
	State     VoteState `json:"state"`
	VotingDay string    `json:"voting_day,omitempty"`
	HasVoted  bool      `json:"has_voted"`
	IsTop10   *bool     `json:"is_top10,omitempty"`
	VotedAt   *time.Time `json:"voted_at,omitempty"`
}

// ChangeVoteResponse reports the outcome of a vote deletion
type ChangeVoteResponse struct {
	Deleted   int64  `json:"deleted"`
	VotingDay string `json:"voting_day"`
	Message   string `json:"message"`
}

// SplitLocation splits a "City, Region" string on the first comma and trims
// both parts. ok is false when the string has no comma or an empty component.
func SplitLocation(location string) (city, region string, ok bool) {
	city, region, found := strings.Cut(location, ",")
	if !found {
		return "", "", false
	}
	city = strings.TrimSpace(city)
	region = strings.TrimSpace(region)
	if city == "" || region == "" {
		return "", "", false
	}
	return city, region, true
}
