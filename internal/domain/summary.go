package domain

import "time"

// AggregationMode selects how votes are scoped when counting
type AggregationMode string

const (
	// ModeExact counts only rows whose location string matches exactly
	ModeExact AggregationMode = "exact"
	// ModeCityState buckets rows into city-level and state-level counts
	// parsed from the location string
	ModeCityState AggregationMode = "city-state"
)

// ExactCounts is the single-scope summary for one (day, location) pair
type ExactCounts struct {
	YesVotes   int `json:"yes_votes"`
	NoVotes    int `json:"no_votes"`
	TotalVotes int `json:"total_votes"`
}

// SplitCounts is the two-tier summary. Every city-scoped vote also counts in
// its state scope, so state totals are always >= city totals.
type SplitCounts struct {
	YesVotesCity    int `json:"yes_votes_city"`
	NoVotesCity     int `json:"no_votes_city"`
	TotalVotesCity  int `json:"total_votes_city"`
	YesVotesState   int `json:"yes_votes_state"`
	NoVotesState    int `json:"no_votes_state"`
	TotalVotesState int `json:"total_votes_state"`
}

// AggregateSummary is the derived count summary for one voting day. Exactly
// one of Exact or Split is set, matching Mode. Recomputed on demand, never
// persisted.
type AggregateSummary struct {
	VotingDay  string          `json:"voting_day"`
	Location   string          `json:"location"`
	Mode       AggregationMode `json:"mode"`
	Exact      *ExactCounts    `json:"exact,omitempty"`
	Split      *SplitCounts    `json:"split,omitempty"`
	LastUpdate time.Time       `json:"last_update"`
}
