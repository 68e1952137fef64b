// Package ratelimit tracks the PulsePass API's rate-limit headers and gates
// requests before the quota runs out.
//
// The API reports its quota with X-RateLimit-Remaining and X-RateLimit-Reset
// (seconds until the window resets) and answers 429 with Retry-After once the
// quota is spent. State is kept in Redis so every client process sharing the
// same API key sees the same budget.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining      = "pulsepass:rate_limit:remaining"
	RedisKeyResetTimestamp = "pulsepass:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "pulsepass:rate_limit:last_update"
)

// Thresholds on the remaining request budget.
const (
	// RemainingCritical blocks requests until the window resets.
	RemainingCritical = 2

	// RemainingWarning throttles requests.
	RemainingWarning = 10

	// RemainingHealthy marks normal operation.
	RemainingHealthy = 25
)

// State is the last known request budget.
type State struct {
	// Remaining requests in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the state was last written.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true while the budget is exhausted and the
// window has not reset yet.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true in the warning band.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < RemainingWarning && s.Remaining >= RemainingCritical
}

// TimeUntilReset returns the duration until the window resets, or 0.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingHealthy
}
