package jobexecutor

import (
	"time"

	"github.com/google/uuid"
)

// FailedJob describes a job kept in the failed-job store.
type FailedJob struct {
	ID       uuid.UUID
	Kind     JobKind
	Page     int
	Cause    error
	FailedAt time.Time
	// Attempts is how many times the job has been started so far.
	Attempts int
}

type failedEntry[T any] struct {
	job      *job[T]
	cause    error
	failedAt time.Time
}

// failedStore keeps failed jobs in failure order until they are retried.
// It is guarded by the executor's mutex.
type failedStore[T any] struct {
	entries []failedEntry[T]
}

func (s *failedStore[T]) add(j *job[T], cause error, at time.Time) {
	s.entries = append(s.entries, failedEntry[T]{job: j, cause: cause, failedAt: at})
}

// drain empties the store and returns its jobs, earliest failure first.
func (s *failedStore[T]) drain() []*job[T] {
	if len(s.entries) == 0 {
		return nil
	}
	jobs := make([]*job[T], len(s.entries))
	for i, e := range s.entries {
		jobs[i] = e.job
	}
	s.entries = nil
	return jobs
}

func (s *failedStore[T]) snapshot() []FailedJob {
	out := make([]FailedJob, len(s.entries))
	for i, e := range s.entries {
		out[i] = FailedJob{
			ID:       e.job.id,
			Kind:     e.job.kind,
			Page:     e.job.page,
			Cause:    e.cause,
			FailedAt: e.failedAt,
			Attempts: e.job.attempts,
		}
	}
	return out
}

func (s *failedStore[T]) len() int {
	return len(s.entries)
}
