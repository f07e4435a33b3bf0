package jobexecutor

import (
	"time"

	"github.com/google/uuid"
)

// JobKind distinguishes first-page jobs from page-N jobs.
type JobKind int

const (
	// KindInitial requests the first page.
	KindInitial JobKind = iota
	// KindFollowing requests a specific page.
	KindFollowing
)

// String returns the metrics/log label of the kind.
func (k JobKind) String() string {
	if k == KindInitial {
		return "initial"
	}
	return "following"
}

// job is one queued page request.
type job[T any] struct {
	id   uuid.UUID
	kind JobKind
	page int

	onInitial func(InitialPagedResponse[T])
	onPage    func(FollowingPagedResponse[T])

	// attempts is bumped every time the job is started; completions carry the
	// attempt they belong to so a late callback from an earlier run is ignored.
	attempts  int
	createdAt time.Time
	startedAt time.Time
}

func newInitialJob[T any](onResult func(InitialPagedResponse[T])) *job[T] {
	return &job[T]{
		id:        uuid.New(),
		kind:      KindInitial,
		onInitial: onResult,
		createdAt: time.Now(),
	}
}

func newFollowingJob[T any](page int, onResult func(FollowingPagedResponse[T])) *job[T] {
	return &job[T]{
		id:        uuid.New(),
		kind:      KindFollowing,
		page:      page,
		onPage:    onResult,
		createdAt: time.Now(),
	}
}
