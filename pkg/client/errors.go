package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimited is returned when the shared rate limit state is critical
	// and the request was not sent.
	ErrRateLimited = errors.New("request blocked: rate limit critical")

	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("invalid page number")
)

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 and 520 rate limit errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a successful response with an unreadable body.
	ErrorClassDecode ErrorClass = "decode"
)

// APIError represents an upstream error with additional context.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassOf returns the class of the first APIError in err's chain, or an empty
// class if there is none.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ""
}

// classifyStatus maps an HTTP status code to an error class. Codes below 400
// have no class.
func classifyStatus(code int) ErrorClass {
	switch {
	case code == http.StatusTooManyRequests || code == 520:
		return ErrorClassRateLimit
	case code >= 400 && code < 500:
		return ErrorClassClient
	case code >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyTransportError wraps an error returned by the HTTP transport.
// Context errors are returned as is and are never retried.
func classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &APIError{
		ErrorClass: ErrorClassNetwork,
		Message:    "request failed",
		Err:        err,
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient, ErrorClassDecode:
		return false
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
