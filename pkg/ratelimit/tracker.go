package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulsepass_rate_limit_remaining",
		Help: "Requests remaining in the current API rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsepass_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the budget was exhausted",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsepass_rate_limit_throttles_total",
		Help: "Total number of requests delayed in the warning band",
	})
)

// Header names read by the tracker.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// DefaultThrottleDelay is the pause applied in the warning band.
const DefaultThrottleDelay = 1 * time.Second

// Tracker stores the API's request budget in Redis and gates requests.
type Tracker struct {
	redis    *redis.Client
	logger   zerolog.Logger
	throttle time.Duration
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:    redisClient,
		logger:   logger,
		throttle: DefaultThrottleDelay,
	}
}

// SetThrottleDelay overrides the warning-band pause.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttle = d
}

// GetState reads the current state. With nothing stored yet it returns a
// healthy default.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	remaining, err := t.redis.Get(ctx, RedisKeyRemaining).Int()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No rate limit state in Redis, assuming healthy")
		now := time.Now()
		return &State{
			Remaining:  100,
			ResetAt:    now.Add(60 * time.Second),
			LastUpdate: now,
			IsHealthy:  true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	state := &State{
		Remaining: remaining,
		ResetAt:   time.Unix(resetTimestamp, 0),
	}

	lastUpdate, err := t.redis.Get(ctx, RedisKeyLastUpdate).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}
	if len(lastUpdate) > 0 {
		if err := json.Unmarshal(lastUpdate, &state.LastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state.UpdateHealth()
	return state, nil
}

// UpdateFromResponse records the budget reported by a response. Responses
// without rate-limit headers leave the state untouched.
func (t *Tracker) UpdateFromResponse(ctx context.Context, statusCode int, header http.Header) error {
	state, ok, err := parseHeaders(statusCode, header, time.Now())
	if err != nil || !ok {
		return err
	}

	lastUpdate, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemaining, state.Remaining, 0)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), 0)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdate, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	rateLimitRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Rate limit exhausted - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("Rate limit state updated")
	}

	return nil
}

// parseHeaders derives a state from a response. ok is false when the
// response carries no rate-limit information.
func parseHeaders(statusCode int, header http.Header, now time.Time) (*State, bool, error) {
	if statusCode == http.StatusTooManyRequests {
		if retryAfter := header.Get(HeaderRetryAfter); retryAfter != "" {
			wait, err := parseRetryAfter(retryAfter, now)
			if err != nil {
				return nil, false, err
			}
			return &State{Remaining: 0, ResetAt: now.Add(wait), LastUpdate: now}, true, nil
		}
	}

	remainStr := header.Get(HeaderRemaining)
	if remainStr == "" {
		return nil, false, nil
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := header.Get(HeaderReset)
	if resetStr == "" {
		return nil, false, fmt.Errorf("%s header missing", HeaderReset)
	}

	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	state := &State{
		Remaining:  remaining,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()
	return state, true, nil
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			seconds = 0
		}
		return time.Duration(seconds) * time.Second, nil
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s header: %w", HeaderRetryAfter, err)
	}
	if at.Before(now) {
		return 0, nil
	}
	return at.Sub(now), nil
}

// ShouldAllowRequest returns false while the budget is exhausted. In the
// warning band it waits for the throttle delay first.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Rate limit exhausted - blocking request")
		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("delay", t.throttle).
			Msg("Rate limit low - throttling request")
		rateLimitThrottlesTotal.Inc()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.throttle):
		}
	}

	return true, nil
}
