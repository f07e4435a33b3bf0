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

// DefaultThrottleDelay is the pause applied to requests in the warning range.
const DefaultThrottleDelay = 1 * time.Second

// epochCutoff separates delta-seconds reset values from unix timestamps.
const epochCutoff = 1_000_000_000

// Prometheus metrics for rate limit tracking.
var (
	upstreamRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pagedlist_upstream_requests_remaining",
		Help: "Requests remaining in the current upstream rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagedlist_rate_limit_blocks_total",
		Help: "Total number of page requests blocked by the upstream rate limit",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagedlist_rate_limit_throttles_total",
		Help: "Total number of page requests delayed by the upstream rate limit",
	})
)

// Tracker monitors the upstream rate limit and gates requests.
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

// SetThrottleDelay changes the pause applied in the warning range.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttle = d
}

// ParseHeaders extracts the rate limit state from response headers.
// ok is false when the upstream sent no rate limit headers.
func ParseHeaders(headers http.Header, now time.Time) (state *State, ok bool, err error) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil, false, nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return nil, false, fmt.Errorf("%s header missing", HeaderReset)
	}

	reset, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	var resetAt time.Time
	if reset >= epochCutoff {
		resetAt = time.Unix(reset, 0)
	} else {
		resetAt = now.Add(time.Duration(reset) * time.Second)
	}

	state = &State{
		Remaining:  remain,
		ResetAt:    resetAt,
		LastUpdate: now,
	}
	state.UpdateHealth()
	return state, true, nil
}

// GetState retrieves the current state from Redis.
// Returns a healthy default state if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	remaining, err := t.redis.Get(ctx, RedisKeyRemaining).Int()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No rate limit state in Redis, assuming healthy")
		return &State{
			Remaining:  ThresholdHealthy,
			ResetAt:    time.Now(),
			LastUpdate: time.Now(),
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

	var lastUpdate time.Time
	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &State{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses rate limit headers and stores the state in Redis.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	state, ok, err := ParseHeaders(headers, time.Now())
	if err != nil || !ok {
		return err
	}

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	// Keys expire with the window so a stale budget never blocks forever.
	ttl := state.TimeUntilReset() + time.Minute

	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, state.Remaining, ttl)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	upstreamRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Upstream rate limit CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Upstream rate limit WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("Upstream rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now.
// It returns false in the critical range and waits ThrottleDelay (or until
// ctx is done) in the warning range.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Upstream rate limit critical - blocking request")
		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() && t.throttle > 0 {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("delay", t.throttle).
			Msg("Upstream rate limit warning - throttling request")
		rateLimitThrottlesTotal.Inc()

		timer := time.NewTimer(t.throttle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}
