package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", config.MaxAttempts)
	}
	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestRetryConfigForErrorClass(t *testing.T) {
	tests := []struct {
		name            string
		errorClass      ErrorClass
		expectedInitial time.Duration
		expectedMax     time.Duration
	}{
		{"server error config", ErrorClassServer, 1 * time.Second, 10 * time.Second},
		{"rate limit config", ErrorClassRateLimit, 5 * time.Second, 60 * time.Second},
		{"network error config", ErrorClassNetwork, 2 * time.Second, 30 * time.Second},
		{"unknown error class uses default", "", 1 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := RetryConfigForErrorClass(tt.errorClass)

			if config.InitialBackoff != tt.expectedInitial {
				t.Errorf("InitialBackoff = %v, want %v", config.InitialBackoff, tt.expectedInitial)
			}
			if config.MaxBackoff != tt.expectedMax {
				t.Errorf("MaxBackoff = %v, want %v", config.MaxBackoff, tt.expectedMax)
			}
		})
	}
}

func TestRetryConfig_Scaled(t *testing.T) {
	config := RetryConfigForErrorClass(ErrorClassRateLimit).Scaled(5, 0.001)

	if config.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", config.MaxAttempts)
	}
	if config.InitialBackoff != 5*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 5ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 60*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 60ms", config.MaxBackoff)
	}
}

func TestRetryConfig_BackoffFor(t *testing.T) {
	config := RetryConfig{
		MaxAttempts:       10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}

	expected := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, want := range expected {
		if got := config.backoffFor(i + 1); got != want {
			t.Errorf("backoffFor(%d) = %v, want %v", i+1, got, want)
		}
	}
}

// fastConfig keeps retry tests quick.
func fastConfig(attempts int) func(ErrorClass) RetryConfig {
	return func(class ErrorClass) RetryConfig {
		return RetryConfigForErrorClass(class).Scaled(attempts, 0.001)
	}
}

func classifyAs(class ErrorClass) func(error) ErrorClass {
	return func(error) ErrorClass { return class }
}

func TestRetryWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), zerolog.Nop(), fastConfig(3), func() error {
		attempts++
		return nil
	}, classifyAs(ErrorClassServer))

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), zerolog.Nop(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, classifyAs(ErrorClassServer))

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	cause := &APIError{StatusCode: 503, ErrorClass: ErrorClassServer, Message: "Service Unavailable"}
	attempts := 0
	err := retryWithBackoff(context.Background(), zerolog.Nop(), fastConfig(3), func() error {
		attempts++
		return cause
	}, ClassOf)

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got: %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr != cause {
		t.Errorf("Expected last cause to be wrapped, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestRetryWithBackoff_NoRetryForClientErrors(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), zerolog.Nop(), fastConfig(3), func() error {
		attempts++
		return &APIError{StatusCode: 404, ErrorClass: ErrorClassClient}
	}, ClassOf)

	if err == nil {
		t.Error("Expected error, got nil")
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("Client errors should be returned unwrapped")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for client error, got: %d", attempts)
	}
}

func TestRetryWithBackoff_ClassChangesBetweenAttempts(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), zerolog.Nop(), fastConfig(5), func() error {
		attempts++
		if attempts == 1 {
			return &APIError{StatusCode: 500, ErrorClass: ErrorClassServer}
		}
		return &APIError{StatusCode: 400, ErrorClass: ErrorClassClient}
	}, ClassOf)

	if ClassOf(err) != ErrorClassClient {
		t.Errorf("Expected client error, got: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got: %d", attempts)
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	slow := func(ErrorClass) RetryConfig {
		return RetryConfig{MaxAttempts: 3, InitialBackoff: time.Minute, MaxBackoff: time.Minute, BackoffMultiplier: 2}
	}

	done := make(chan error, 1)
	go func() {
		done <- retryWithBackoff(ctx, zerolog.Nop(), slow, func() error {
			attempts++
			return errors.New("temporary error")
		}, classifyAs(ErrorClassNetwork))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrContextCancelled) {
			t.Errorf("Expected ErrContextCancelled, got: %v", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled to be wrapped, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retryWithBackoff did not return after cancellation")
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got: %d", attempts)
	}
}
