// Package movielist keeps the single movie discovery list served by the
// pagedlist service.
//
// A List owns one session per sort order: a provider, an executor and a
// pager. Changing the sort closes the current provider, which cancels its
// in-flight request, and starts a fresh session; jobs of the old session
// are discarded with it.
package movielist

import (
	"context"
	"sync"

	"github.com/Sternrassler/pagedlist/pkg/jobexecutor"
	"github.com/Sternrassler/pagedlist/pkg/logging"
	"github.com/Sternrassler/pagedlist/pkg/movies"
	"github.com/Sternrassler/pagedlist/pkg/pagination"
	"github.com/rs/zerolog"
)

// ExecutorName labels the executor metrics of the list.
const ExecutorName = "movies"

// View is the JSON representation of the list state.
type View struct {
	Sort           movies.SortOption  `json:"sort"`
	Status         string             `json:"status"`
	Error          string             `json:"error,omitempty"`
	TotalCount     int                `json:"total_count"`
	TotalPages     int                `json:"total_pages"`
	PagesLoaded    int                `json:"pages_loaded"`
	PagesRequested int                `json:"pages_requested"`
	HasMore        bool               `json:"has_more"`
	FailedJobs     int                `json:"failed_jobs"`
	Items          []movies.MovieItem `json:"items"`
}

type session struct {
	sort     movies.SortOption
	provider *movies.Provider
	pager    *pagination.Pager[movies.MovieItem]
}

// List is safe for concurrent use.
type List struct {
	factory *movies.ProviderFactory
	config  pagination.Config
	logger  zerolog.Logger

	mu      sync.Mutex
	current *session
}

// New creates a list for the sort order. Nothing is loaded before Start.
func New(factory *movies.ProviderFactory, sort movies.SortOption, config pagination.Config) *List {
	l := &List{
		factory: factory,
		config:  config,
		logger:  logging.NewLogger("movielist"),
	}
	l.current = l.newSession(sort)
	return l
}

func (l *List) newSession(sort movies.SortOption) *session {
	provider := l.factory.Create(sort)

	exec := jobexecutor.New[movies.MovieItem](
		jobexecutor.WithName(ExecutorName),
		jobexecutor.WithLogger(l.logger.With().Str("sort", string(sort)).Logger()),
	)
	exec.AttachDataProvider(provider)

	return &session{
		sort:     sort,
		provider: provider,
		pager:    pagination.NewPager(exec, l.config),
	}
}

func (l *List) session() *session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Start requests the initial page of the current sort order.
func (l *List) Start() bool {
	return l.session().pager.Start()
}

// LoadMore requests the next page.
func (l *List) LoadMore() bool {
	return l.session().pager.LoadMore()
}

// Retry re-queues failed pages and returns how many there were.
func (l *List) Retry() int {
	return l.session().pager.Retry()
}

// Sort returns the current sort order.
func (l *List) Sort() movies.SortOption {
	return l.session().sort
}

// SetSort switches to a new sort order and starts loading it. Setting the
// current sort again is a no-op and reports false.
func (l *List) SetSort(sort movies.SortOption) bool {
	l.mu.Lock()
	old := l.current
	if old.sort == sort {
		l.mu.Unlock()
		return false
	}
	next := l.newSession(sort)
	l.current = next
	l.mu.Unlock()

	old.provider.Close()
	l.logger.Info().
		Str("previous_sort", string(old.sort)).
		Str("sort", string(sort)).
		Msg("Sort changed")

	next.pager.Start()
	return true
}

// Wait blocks until the current session is not loading or ctx is done.
func (l *List) Wait(ctx context.Context) error {
	_, err := l.session().pager.Wait(ctx)
	return err
}

// View returns the state of the current session.
func (l *List) View() View {
	s := l.session()
	snap := s.pager.Snapshot()

	view := View{
		Sort:           s.sort,
		Status:         snap.Status.Kind.String(),
		TotalCount:     snap.TotalCount,
		TotalPages:     snap.TotalPages,
		PagesLoaded:    snap.PagesLoaded,
		PagesRequested: snap.PagesRequested,
		HasMore:        snap.HasMore,
		FailedJobs:     snap.FailedJobs,
		Items:          snap.Items,
	}
	if snap.Status.Cause != nil {
		view.Error = snap.Status.Cause.Error()
	}
	return view
}

// Close cancels in-flight requests of the current session.
func (l *List) Close() {
	l.session().provider.Close()
}
