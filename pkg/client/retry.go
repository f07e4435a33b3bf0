package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass returns the appropriate retry configuration for an error class.
func RetryConfigForErrorClass(errorClass ErrorClass) RetryConfig {
	switch errorClass {
	case ErrorClassServer:
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    1 * time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ErrorClassRateLimit:
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    5 * time.Second,
			MaxBackoff:        60 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ErrorClassNetwork:
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    2 * time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
		}
	default:
		return DefaultRetryConfig()
	}
}

// Scaled returns a copy of rc with maxAttempts and with both backoff bounds
// multiplied by factor.
func (rc RetryConfig) Scaled(maxAttempts int, factor float64) RetryConfig {
	rc.MaxAttempts = maxAttempts
	rc.InitialBackoff = time.Duration(float64(rc.InitialBackoff) * factor)
	rc.MaxBackoff = time.Duration(float64(rc.MaxBackoff) * factor)
	return rc
}

// backoffFor returns the un-jittered backoff after the given failed attempt.
func (rc RetryConfig) backoffFor(attempt int) time.Duration {
	backoff := rc.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * rc.BackoffMultiplier)
		if backoff >= rc.MaxBackoff {
			return rc.MaxBackoff
		}
	}
	if backoff > rc.MaxBackoff {
		return rc.MaxBackoff
	}
	return backoff
}

// retryWithBackoff executes fn with exponential backoff. Each failure is
// classified and the class decides both whether to retry and the retry
// configuration used. It respects context cancellation and adds jitter to
// prevent thundering herd.
func retryWithBackoff(
	ctx context.Context,
	logger zerolog.Logger,
	configFor func(ErrorClass) RetryConfig,
	fn func() error,
	classify func(error) ErrorClass,
) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		errorClass := classify(err)
		if !shouldRetry(errorClass) {
			return err
		}

		config := configFor(errorClass)
		if attempt >= config.MaxAttempts {
			retryExhaustedTotal.WithLabelValues(string(errorClass)).Inc()
			logger.Warn().
				Str("error_class", string(errorClass)).
				Int("max_attempts", config.MaxAttempts).
				Msg("Retry attempts exhausted")
			return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempt, err)
		}

		retriesTotal.WithLabelValues(string(errorClass)).Inc()

		// ±20% jitter
		backoff := config.backoffFor(attempt)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(jitter.Seconds())

		logger.Debug().
			Err(err).
			Str("error_class", string(errorClass)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(errorClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}
}
