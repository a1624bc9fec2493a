package redis

import (
	"fmt"
	"strings"
)

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyUserVoted is the cached vote status for a user on a voting day
func (kb *KeyBuilder) KeyUserVoted(userID, votingDay string) string {
	return kb.BuildKey(fmt.Sprintf(KeyUserVoted, userID, votingDay))
}

// KeyDaySummary is a cached aggregate summary for one (day, scope) pair.
// scopeKey encodes the mode plus the normalized location string.
func (kb *KeyBuilder) KeyDaySummary(votingDay, scopeKey string) string {
	return kb.BuildKey(fmt.Sprintf(KeyDaySummary, votingDay, scopeKey))
}

// KeyGeocode is a cached geocoding result for a location string
func (kb *KeyBuilder) KeyGeocode(location string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(location), " "))
	return kb.BuildKey(fmt.Sprintf(KeyGeocode, normalized))
}

// KeyIdempotency guards a mutating operation against double submission
func (kb *KeyBuilder) KeyIdempotency(operation string) string {
	return kb.BuildKey(fmt.Sprintf(KeyIdempotency, operation))
}

// KeyCustom builds a key from an arbitrary pattern
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	return kb.BuildKey(fmt.Sprintf(pattern, args...))
}
