package jobexecutor

import "fmt"

// StatusKind identifies a BatchStatus variant.
type StatusKind int

const (
	// KindNotStarted is the status before any job has been started.
	KindNotStarted StatusKind = iota

	// KindLoading means a job is currently executing.
	KindLoading

	// KindLoaded means the last job of a burst succeeded and nothing is pending.
	KindLoaded

	// KindFailed means the last job of a burst failed and nothing is pending.
	KindFailed
)

// String returns the lower-case name of the kind.
func (k StatusKind) String() string {
	switch k {
	case KindNotStarted:
		return "not_started"
	case KindLoading:
		return "loading"
	case KindLoaded:
		return "loaded"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// BatchStatus is the aggregate progress signal of an Executor.
// Cause is only set for KindFailed.
type BatchStatus struct {
	Kind  StatusKind
	Cause error
}

// StatusNotStarted returns the initial status.
func StatusNotStarted() BatchStatus { return BatchStatus{Kind: KindNotStarted} }

// StatusLoading returns the Loading status.
func StatusLoading() BatchStatus { return BatchStatus{Kind: KindLoading} }

// StatusLoaded returns the Loaded status.
func StatusLoaded() BatchStatus { return BatchStatus{Kind: KindLoaded} }

// StatusFailed returns the Failed status carrying cause.
func StatusFailed(cause error) BatchStatus {
	return BatchStatus{Kind: KindFailed, Cause: cause}
}

// Is reports whether the status is of the given kind.
func (s BatchStatus) Is(kind StatusKind) bool {
	return s.Kind == kind
}

// String implements fmt.Stringer.
func (s BatchStatus) String() string {
	if s.Kind == KindFailed && s.Cause != nil {
		return fmt.Sprintf("failed: %v", s.Cause)
	}
	return s.Kind.String()
}
