package jobexecutor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNoProvider is the failure cause of a job started before
	// AttachDataProvider was called.
	ErrNoProvider = errors.New("no data provider attached")

	// ErrUnspecifiedFailure replaces a nil cause passed to a failure callback.
	ErrUnspecifiedFailure = errors.New("provider reported failure without cause")
)

// FetchError is the failure of a single job. Err is the value produced by the
// provider; the executor does not inspect it.
type FetchError struct {
	JobID uuid.UUID
	Kind  JobKind
	Page  int
	Err   error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Kind == KindInitial {
		return fmt.Sprintf("fetch initial page: %v", e.Err)
	}
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}
