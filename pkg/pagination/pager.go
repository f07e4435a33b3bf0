package pagination

import (
	"context"
	"sort"
	"sync"

	"github.com/Sternrassler/pagedlist/pkg/jobexecutor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds pager configuration.
type Config struct {
	// PageSize is the number of items the upstream returns per full page.
	PageSize int

	// MaxPages caps the number of pages requested. 0 means no cap.
	MaxPages int

	// OnStatus, when set, is called after the pager has recorded a status
	// transition of its executor.
	OnStatus func(jobexecutor.BatchStatus)
}

// DefaultConfig returns the page layout of the discovery API.
func DefaultConfig() Config {
	return Config{
		PageSize: 20,
		MaxPages: 500,
	}
}

// Snapshot is a consistent view of the list.
type Snapshot[T any] struct {
	// Items of all loaded pages, in page order.
	Items []T

	// TotalCount as last reported by the upstream; -1 until a page arrived.
	TotalCount int

	// TotalPages derived from TotalCount and the page size (capped by MaxPages).
	TotalPages int

	// PagesLoaded is the number of pages that arrived.
	PagesLoaded int

	// PagesRequested is the number of distinct pages handed to the executor.
	PagesRequested int

	// HasMore reports whether LoadMore would queue a page.
	HasMore bool

	// FailedJobs is the number of jobs waiting for Retry.
	FailedJobs int

	Status jobexecutor.BatchStatus
}

// Pager drives one executor for one list.
type Pager[T any] struct {
	exec   *jobexecutor.Executor[T]
	config Config
	logger zerolog.Logger

	mu       sync.Mutex
	started  bool
	lastPage int
	total    int
	pages    map[int][]T
	status   jobexecutor.BatchStatus
	changed  chan struct{}
}

// NewPager creates a pager and registers it as the executor's status
// observer. A non-positive page size selects the default.
func NewPager[T any](exec *jobexecutor.Executor[T], config Config) *Pager[T] {
	if config.PageSize <= 0 {
		config.PageSize = DefaultConfig().PageSize
	}

	p := &Pager[T]{
		exec:    exec,
		config:  config,
		logger:  log.With().Str("component", "pager").Logger(),
		total:   -1,
		pages:   make(map[int][]T),
		status:  exec.Status(),
		changed: make(chan struct{}),
	}
	exec.SetStatusObserver(p.onStatus)
	return p
}

// Start requests the initial page. Only the first call has an effect.
func (p *Pager[T]) Start() bool {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return false
	}
	p.started = true
	p.lastPage = 1
	p.mu.Unlock()

	p.logger.Debug().Msg("Requesting initial page")
	p.exec.LoadInitialPage(p.onInitial)
	return true
}

// LoadMore requests the next page if it is known to exist and has not been
// requested yet. It reports whether a page was queued.
func (p *Pager[T]) LoadMore() bool {
	p.mu.Lock()
	if !p.hasMoreLocked() {
		p.mu.Unlock()
		return false
	}
	p.lastPage++
	page := p.lastPage
	p.mu.Unlock()

	p.logger.Debug().Int("page", page).Msg("Requesting next page")
	p.exec.LoadPage(page, p.onPage)
	return true
}

// Retry re-queues every failed page job and returns how many were queued.
func (p *Pager[T]) Retry() int {
	n := p.exec.RetryFailedJobs()
	if n > 0 {
		p.logger.Info().Int("failed", n).Msg("Retrying failed pages")
	}
	return n
}

// Status returns the last status seen from the executor, or Loading when the
// executor has started a job the pager has not heard about yet.
func (p *Pager[T]) Status() jobexecutor.BatchStatus {
	execStatus := p.exec.Status()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked(execStatus)
}

func (p *Pager[T]) statusLocked(execStatus jobexecutor.BatchStatus) jobexecutor.BatchStatus {
	if execStatus.Is(jobexecutor.KindLoading) {
		return execStatus
	}
	return p.status
}

// Wait blocks until the executor is not loading and the pager has seen the
// resulting status, or ctx is done.
//
// The executor's own status is checked as well as the observed one: a job
// queued while another goroutine still delivers older notifications is
// already Loading in the executor before the pager hears about it. The
// order of reads matters. A job that completed before the executor read
// has had its Loading observed, so the pager status stays Loading until
// its pages are stored.
func (p *Pager[T]) Wait(ctx context.Context) (jobexecutor.BatchStatus, error) {
	for {
		p.mu.Lock()
		changed := p.changed
		p.mu.Unlock()

		execLoading := p.exec.Status().Is(jobexecutor.KindLoading)

		p.mu.Lock()
		status := p.status
		p.mu.Unlock()

		if !execLoading && !status.Is(jobexecutor.KindLoading) {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-changed:
		}
	}
}

// Snapshot returns the current list state.
func (p *Pager[T]) Snapshot() Snapshot[T] {
	failed := len(p.exec.FailedJobs())
	execStatus := p.exec.Status()

	p.mu.Lock()
	defer p.mu.Unlock()

	numbers := make([]int, 0, len(p.pages))
	for n := range p.pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	items := []T{}
	for _, n := range numbers {
		items = append(items, p.pages[n]...)
	}

	return Snapshot[T]{
		Items:          items,
		TotalCount:     p.total,
		TotalPages:     p.totalPagesLocked(),
		PagesLoaded:    len(p.pages),
		PagesRequested: p.lastPage,
		HasMore:        p.hasMoreLocked(),
		FailedJobs:     failed,
		Status:         p.statusLocked(execStatus),
	}
}

func (p *Pager[T]) onInitial(r jobexecutor.InitialPagedResponse[T]) {
	p.store(1, r.TotalCount, r.Items)
}

func (p *Pager[T]) onPage(r jobexecutor.FollowingPagedResponse[T]) {
	p.store(r.PageNumber, r.TotalCount, r.Items)
}

func (p *Pager[T]) store(page, total int, items []T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pages[page] = items
	if total != p.total {
		p.logger.Debug().
			Int("page", page).
			Int("previous_total", p.total).
			Int("total", total).
			Msg("Total count changed")
		p.total = total
	}
}

func (p *Pager[T]) onStatus(s jobexecutor.BatchStatus) {
	p.mu.Lock()
	p.status = s
	close(p.changed)
	p.changed = make(chan struct{})
	onStatus := p.config.OnStatus
	p.mu.Unlock()

	if onStatus != nil {
		onStatus(s)
	}
}

func (p *Pager[T]) totalPagesLocked() int {
	if p.total < 0 {
		return 0
	}
	pages := (p.total + p.config.PageSize - 1) / p.config.PageSize
	if p.config.MaxPages > 0 && pages > p.config.MaxPages {
		pages = p.config.MaxPages
	}
	return pages
}

func (p *Pager[T]) hasMoreLocked() bool {
	return p.started && p.total >= 0 && p.lastPage < p.totalPagesLocked()
}
