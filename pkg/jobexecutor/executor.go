package jobexecutor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option configures an Executor.
type Option func(*options)

type options struct {
	name     string
	logger   *zerolog.Logger
	observer func(BatchStatus)
}

// WithName sets the executor name used in logs and metric labels.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger. Defaults to the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// WithStatusObserver sets the aggregate status observer.
func WithStatusObserver(fn func(BatchStatus)) Option {
	return func(o *options) { o.observer = fn }
}

// Executor runs page jobs one at a time in submission order.
//
// It is safe for concurrent use. Provider calls, job callbacks and status
// notifications are never made while internal state is locked; they are
// queued in order and run by whichever goroutine finds the queue idle, so a
// provider may complete synchronously from inside its request method.
//
// When another goroutine is still running notifications, a load call returns
// after queueing its Loading notification and provider call instead of making
// them itself. Status reflects the new job immediately in that case.
type Executor[T any] struct {
	name   string
	logger zerolog.Logger

	mu       sync.Mutex
	provider PagedDataProvider[T]
	observer func(BatchStatus)
	pending  []*job[T]
	active   *job[T]
	failed   failedStore[T]
	status   BatchStatus

	// outbox holds calls into user code in the order they were decided.
	outbox   []func()
	draining bool
}

// New creates an idle executor with status NotStarted.
func New[T any](opts ...Option) *Executor[T] {
	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.With().Str("component", "jobexecutor").Logger()
	if o.logger != nil {
		logger = *o.logger
	}

	return &Executor[T]{
		name:     o.name,
		logger:   logger.With().Str("executor", o.name).Logger(),
		observer: o.observer,
		status:   StatusNotStarted(),
	}
}

// AttachDataProvider binds the provider jobs are delegated to. It must be
// called before the first job is started; jobs started without a provider
// fail with ErrNoProvider.
func (e *Executor[T]) AttachDataProvider(provider PagedDataProvider[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.provider = provider
}

// SetStatusObserver sets the function notified on every status transition.
func (e *Executor[T]) SetStatusObserver(fn func(BatchStatus)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = fn
}

// LoadInitialPage queues a first-page job. onResult is called once if the
// provider succeeds and never if it fails.
func (e *Executor[T]) LoadInitialPage(onResult func(InitialPagedResponse[T])) {
	e.submit(newInitialJob(onResult))
}

// LoadPage queues a job for the given page. onResult is called once if the
// provider succeeds and never if it fails.
func (e *Executor[T]) LoadPage(page int, onResult func(FollowingPagedResponse[T])) {
	e.submit(newFollowingJob(page, onResult))
}

// RetryFailedJobs moves every failed job, earliest failure first, to the
// front of the pending queue and resumes processing. It returns the number
// of jobs re-queued.
func (e *Executor[T]) RetryFailedJobs() int {
	e.mu.Lock()
	jobs := e.failed.drain()
	if len(jobs) > 0 {
		e.pending = append(jobs, e.pending...)
		retriesTotal.WithLabelValues(e.name).Add(float64(len(jobs)))
		failedJobs.WithLabelValues(e.name).Set(0)
		e.logger.Info().
			Int("retried", len(jobs)).
			Int("pending", len(e.pending)).
			Msg("Retrying failed jobs")
	}
	e.pumpLocked()
	drain := e.claimLocked()
	e.mu.Unlock()

	if drain {
		e.drain()
	}
	return len(jobs)
}

// Status returns the current aggregate status. It changes under the lock, so
// it can be ahead of the observer while another goroutine is still running
// earlier notifications.
func (e *Executor[T]) Status() BatchStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Pending returns the number of jobs waiting to be started.
func (e *Executor[T]) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Active reports whether a provider call is in flight.
func (e *Executor[T]) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// FailedJobs returns the failed-job store in failure order.
func (e *Executor[T]) FailedJobs() []FailedJob {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed.snapshot()
}

func (e *Executor[T]) submit(j *job[T]) {
	e.mu.Lock()
	e.pending = append(e.pending, j)
	jobsEnqueuedTotal.WithLabelValues(e.name, j.kind.String()).Inc()
	e.logger.Debug().
		Str("job_id", j.id.String()).
		Str("kind", j.kind.String()).
		Int("page", j.page).
		Int("pending", len(e.pending)).
		Msg("Job queued")

	e.pumpLocked()
	drain := e.claimLocked()
	e.mu.Unlock()

	if drain {
		e.drain()
	}
}

// pumpLocked starts the head job unless a job is already active.
func (e *Executor[T]) pumpLocked() {
	defer func() {
		queueDepth.WithLabelValues(e.name).Set(float64(len(e.pending)))
	}()

	if e.active != nil || len(e.pending) == 0 {
		return
	}

	j := e.pending[0]
	e.pending[0] = nil
	e.pending = e.pending[1:]

	j.attempts++
	j.startedAt = time.Now()
	e.active = j
	e.setStatusLocked(StatusLoading())

	provider := e.provider
	attempt := j.attempts
	e.outbox = append(e.outbox, func() { e.invoke(j, attempt, provider) })

	e.logger.Debug().
		Str("job_id", j.id.String()).
		Str("kind", j.kind.String()).
		Int("page", j.page).
		Int("attempt", attempt).
		Msg("Job started")
}

// invoke issues the provider call for j. It runs outside the lock.
func (e *Executor[T]) invoke(j *job[T], attempt int, provider PagedDataProvider[T]) {
	if provider == nil {
		e.complete(j, attempt, nil, ErrNoProvider)
		return
	}

	onFailure := func(err error) {
		if err == nil {
			err = ErrUnspecifiedFailure
		}
		e.complete(j, attempt, nil, err)
	}

	switch j.kind {
	case KindInitial:
		provider.RequestInitialPage(func(r InitialPagedResponse[T]) {
			e.complete(j, attempt, func() {
				if j.onInitial != nil {
					j.onInitial(r)
				}
			}, nil)
		}, onFailure)
	case KindFollowing:
		provider.RequestPage(j.page, func(r FollowingPagedResponse[T]) {
			e.complete(j, attempt, func() {
				if j.onPage != nil {
					j.onPage(r)
				}
			}, nil)
		}, onFailure)
	}
}

// complete handles the provider result of j. deliver runs the job's own
// callback and is only set on success.
func (e *Executor[T]) complete(j *job[T], attempt int, deliver func(), cause error) {
	e.mu.Lock()
	if e.active != j || j.attempts != attempt {
		e.mu.Unlock()
		e.logger.Warn().
			Str("job_id", j.id.String()).
			Int("attempt", attempt).
			Msg("Ignoring completion of a job that is not active")
		return
	}

	e.active = nil
	now := time.Now()
	jobDuration.WithLabelValues(e.name, j.kind.String()).Observe(now.Sub(j.startedAt).Seconds())

	var fetchErr *FetchError
	if cause == nil {
		jobsCompletedTotal.WithLabelValues(e.name, j.kind.String(), "success").Inc()
		if deliver != nil {
			e.outbox = append(e.outbox, deliver)
		}
	} else {
		jobsCompletedTotal.WithLabelValues(e.name, j.kind.String(), "failure").Inc()
		fetchErr = &FetchError{JobID: j.id, Kind: j.kind, Page: j.page, Err: cause}
		e.failed.add(j, fetchErr, now)
		failedJobs.WithLabelValues(e.name).Set(float64(e.failed.len()))
		e.logger.Warn().
			Err(cause).
			Str("job_id", j.id.String()).
			Str("kind", j.kind.String()).
			Int("page", j.page).
			Int("failed", e.failed.len()).
			Msg("Job failed")
	}

	// Only the tail of a burst reaches the aggregate status.
	if len(e.pending) == 0 {
		if fetchErr == nil {
			e.setStatusLocked(StatusLoaded())
		} else {
			e.setStatusLocked(StatusFailed(fetchErr))
		}
	}

	e.pumpLocked()
	drain := e.claimLocked()
	e.mu.Unlock()

	if drain {
		e.drain()
	}
}

func (e *Executor[T]) setStatusLocked(s BatchStatus) {
	e.status = s
	if observer := e.observer; observer != nil {
		e.outbox = append(e.outbox, func() { observer(s) })
	}
}

// claimLocked makes the caller the outbox drainer if nobody else is.
func (e *Executor[T]) claimLocked() bool {
	if e.draining || len(e.outbox) == 0 {
		return false
	}
	e.draining = true
	return true
}

// drain runs queued calls until the outbox is empty. Calls that re-enter the
// executor only append to the outbox and return.
func (e *Executor[T]) drain() {
	defer func() {
		if r := recover(); r != nil {
			e.mu.Lock()
			e.draining = false
			e.mu.Unlock()
			panic(r)
		}
	}()

	for {
		e.mu.Lock()
		if len(e.outbox) == 0 {
			e.draining = false
			e.mu.Unlock()
			return
		}
		fn := e.outbox[0]
		e.outbox[0] = nil
		e.outbox = e.outbox[1:]
		e.mu.Unlock()

		fn()
	}
}
