// Package ratelimit tracks the upstream API request budget and gates page
// requests. It reads the X-RateLimit-Remaining and X-RateLimit-Reset response
// headers and shares the resulting state across instances through Redis.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining      = "pagedlist:rate_limit:remaining"
	RedisKeyResetTimestamp = "pagedlist:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "pagedlist:rate_limit:last_update"
)

// Response headers carrying the upstream budget.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Thresholds for rate limit decisions.
const (
	// ThresholdCritical blocks requests when fewer requests than this remain.
	ThresholdCritical = 2

	// ThresholdWarning throttles requests when fewer requests than this remain.
	ThresholdWarning = 10

	// ThresholdHealthy marks the state healthy at or above this value.
	ThresholdHealthy = 20
)

// State is the last known upstream request budget.
type State struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was observed.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests must be blocked until reset.
// A window that has already reset never blocks.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && s.TimeUntilReset() > 0 && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets, or 0.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
