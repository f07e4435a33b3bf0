package movies

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/pagedlist/pkg/client"
	"github.com/Sternrassler/pagedlist/pkg/jobexecutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher answers with fn and records every request.
type fakeFetcher struct {
	mu       sync.Mutex
	requests []client.PageRequest
	fn       func(ctx context.Context, req client.PageRequest) (*client.Page, error)
}

func (f *fakeFetcher) FetchPage(ctx context.Context, req client.PageRequest) (*client.Page, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.fn(ctx, req)
}

func (f *fakeFetcher) lastRequest() client.PageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func pageOf(number, total int, items ...MovieItem) *client.Page {
	raw, _ := json.Marshal(items)
	return &client.Page{Number: number, TotalResults: total, TotalPages: (total + 19) / 20, Results: raw}
}

// outcome collects the single callback of a provider request.
type outcome[R any] struct {
	done    chan struct{}
	calls   int
	mu      sync.Mutex
	success *R
	err     error
}

func newOutcome[R any]() *outcome[R] {
	return &outcome[R]{done: make(chan struct{}, 2)}
}

func (o *outcome[R]) onSuccess(r R) {
	o.mu.Lock()
	o.calls++
	o.success = &r
	o.mu.Unlock()
	o.done <- struct{}{}
}

func (o *outcome[R]) onFailure(err error) {
	o.mu.Lock()
	o.calls++
	o.err = err
	o.mu.Unlock()
	o.done <- struct{}{}
}

func (o *outcome[R]) wait(t *testing.T) {
	t.Helper()
	select {
	case <-o.done:
	case <-time.After(2 * time.Second):
		t.Fatal("provider did not call back")
	}
	// A second callback would arrive right away.
	time.Sleep(10 * time.Millisecond)
	o.mu.Lock()
	defer o.mu.Unlock()
	require.Equal(t, 1, o.calls, "exactly one callback")
}

func TestProvider_RequestInitialPage(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, req client.PageRequest) (*client.Page, error) {
		return pageOf(1, 45, MovieItem{ID: 1, Title: "A"}, MovieItem{ID: 2, Title: "B"}), nil
	}}
	p := NewProvider(fetcher, SortVoteAverage, time.Second)
	defer p.Close()

	out := newOutcome[jobexecutor.InitialPagedResponse[MovieItem]]()
	p.RequestInitialPage(out.onSuccess, out.onFailure)
	out.wait(t)

	require.NotNil(t, out.success)
	assert.Equal(t, 45, out.success.TotalCount)
	assert.Equal(t, []MovieItem{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}, out.success.Items)

	req := fetcher.lastRequest()
	assert.Equal(t, DiscoverPath, req.Path)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, "vote_average.desc", req.Query.Get("sort_by"))
}

func TestProvider_RequestPage(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, req client.PageRequest) (*client.Page, error) {
		return pageOf(req.Page, 45, MovieItem{ID: 41}), nil
	}}
	p := NewProvider(fetcher, SortPopularity, time.Second)
	defer p.Close()

	out := newOutcome[jobexecutor.FollowingPagedResponse[MovieItem]]()
	p.RequestPage(3, out.onSuccess, out.onFailure)
	out.wait(t)

	require.NotNil(t, out.success)
	assert.Equal(t, 3, out.success.PageNumber)
	assert.Equal(t, 45, out.success.TotalCount)
	assert.Equal(t, []MovieItem{{ID: 41}}, out.success.Items)
	assert.Equal(t, 3, fetcher.lastRequest().Page)
}

func TestProvider_EmptyResults(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, req client.PageRequest) (*client.Page, error) {
		return &client.Page{Number: 1, Results: json.RawMessage("[]")}, nil
	}}
	p := NewProvider(fetcher, SortPopularity, time.Second)
	defer p.Close()

	out := newOutcome[jobexecutor.InitialPagedResponse[MovieItem]]()
	p.RequestInitialPage(out.onSuccess, out.onFailure)
	out.wait(t)

	require.NotNil(t, out.success)
	assert.Equal(t, 0, out.success.TotalCount)
	assert.NotNil(t, out.success.Items)
	assert.Empty(t, out.success.Items)
}

func TestProvider_Failures(t *testing.T) {
	upstreamErr := &client.APIError{StatusCode: 503, ErrorClass: client.ErrorClassServer}

	tests := []struct {
		name  string
		fn    func(ctx context.Context, req client.PageRequest) (*client.Page, error)
		check func(t *testing.T, err error)
	}{
		{
			name: "fetch error is passed through",
			fn: func(ctx context.Context, req client.PageRequest) (*client.Page, error) {
				return nil, upstreamErr
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, upstreamErr)
			},
		},
		{
			name: "unreadable items",
			fn: func(ctx context.Context, req client.PageRequest) (*client.Page, error) {
				return &client.Page{Number: 1, Results: json.RawMessage(`{"not":"a list"}`)}, nil
			},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "decode movie items")
			},
		},
		{
			name: "request timeout",
			fn: func(ctx context.Context, req client.PageRequest) (*client.Page, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(&fakeFetcher{fn: tt.fn}, SortPopularity, 20*time.Millisecond)
			defer p.Close()

			out := newOutcome[jobexecutor.FollowingPagedResponse[MovieItem]]()
			p.RequestPage(2, out.onSuccess, out.onFailure)
			out.wait(t)

			assert.Nil(t, out.success)
			require.Error(t, out.err)
			tt.check(t, out.err)
		})
	}
}

func TestProvider_CloseCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	fetcher := &fakeFetcher{fn: func(ctx context.Context, req client.PageRequest) (*client.Page, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	p := NewProvider(fetcher, SortPopularity, time.Minute)

	out := newOutcome[jobexecutor.InitialPagedResponse[MovieItem]]()
	p.RequestInitialPage(out.onSuccess, out.onFailure)
	<-started
	p.Close()
	out.wait(t)

	assert.True(t, errors.Is(out.err, context.Canceled), "got %v", out.err)
}

func TestProvider_DrivesExecutor(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, req client.PageRequest) (*client.Page, error) {
		if req.Page == 2 {
			return nil, errors.New("boom")
		}
		return pageOf(req.Page, 60, MovieItem{ID: req.Page}), nil
	}}
	p := NewProviderFactory(fetcher, time.Second).Create(SortRevenue)
	defer p.Close()
	assert.Equal(t, SortRevenue, p.Sort())

	exec := jobexecutor.New[MovieItem]()
	exec.AttachDataProvider(p)

	var (
		mu    sync.Mutex
		pages []int
	)
	exec.LoadInitialPage(func(r jobexecutor.InitialPagedResponse[MovieItem]) {
		mu.Lock()
		pages = append(pages, r.Items[0].ID)
		mu.Unlock()
	})
	for _, n := range []int{2, 3} {
		exec.LoadPage(n, func(r jobexecutor.FollowingPagedResponse[MovieItem]) {
			mu.Lock()
			pages = append(pages, r.PageNumber)
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		delivered := len(pages)
		mu.Unlock()
		return delivered == 2 && len(exec.FailedJobs()) == 1 && !exec.Active() && exec.Pending() == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, exec.Status().Is(jobexecutor.KindLoaded))

	mu.Lock()
	assert.Equal(t, []int{1, 3}, pages)
	mu.Unlock()

	failed := exec.FailedJobs()
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Page)
}
