package movies

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/Sternrassler/pagedlist/pkg/client"
	"github.com/Sternrassler/pagedlist/pkg/jobexecutor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DiscoverPath is the upstream endpoint of the discovery list.
const DiscoverPath = "/discover/movie"

// DiscoverQuery returns the query parameters of the discovery list for sort,
// without the page number.
func DiscoverQuery(sort SortOption) url.Values {
	return url.Values{"sort_by": {string(sort)}}
}

// DefaultRequestTimeout bounds a provider request when none is configured.
const DefaultRequestTimeout = 15 * time.Second

// PageFetcher fetches one page envelope. *client.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, req client.PageRequest) (*client.Page, error)
}

// Provider serves discovery pages for one sort order.
type Provider struct {
	fetcher PageFetcher
	sort    SortOption
	timeout time.Duration
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

var _ jobexecutor.PagedDataProvider[MovieItem] = (*Provider)(nil)

// NewProvider creates a provider. A non-positive timeout selects
// DefaultRequestTimeout.
func NewProvider(fetcher PageFetcher, sort SortOption, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Provider{
		fetcher: fetcher,
		sort:    sort,
		timeout: timeout,
		logger:  log.With().Str("component", "movies").Str("sort", string(sort)).Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Sort returns the sort order the provider was created for.
func (p *Provider) Sort() SortOption {
	return p.sort
}

// Close cancels in-flight requests. Requests made after Close fail at once.
func (p *Provider) Close() {
	p.cancel()
}

// RequestInitialPage fetches page 1.
func (p *Provider) RequestInitialPage(
	onSuccess func(jobexecutor.InitialPagedResponse[MovieItem]),
	onFailure func(error),
) {
	go p.fetch(1, func(page *client.Page, items []MovieItem) {
		onSuccess(jobexecutor.InitialPagedResponse[MovieItem]{
			TotalCount: page.TotalResults,
			Items:      items,
		})
	}, onFailure)
}

// RequestPage fetches the given page.
func (p *Provider) RequestPage(
	page int,
	onSuccess func(jobexecutor.FollowingPagedResponse[MovieItem]),
	onFailure func(error),
) {
	go p.fetch(page, func(env *client.Page, items []MovieItem) {
		onSuccess(jobexecutor.FollowingPagedResponse[MovieItem]{
			TotalCount: env.TotalResults,
			PageNumber: page,
			Items:      items,
		})
	}, onFailure)
}

// fetch runs one request and calls exactly one of the callbacks.
func (p *Provider) fetch(page int, onSuccess func(*client.Page, []MovieItem), onFailure func(error)) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	start := time.Now()
	env, err := p.fetcher.FetchPage(ctx, client.PageRequest{
		Path:  DiscoverPath,
		Query: DiscoverQuery(p.sort),
		Page:  page,
	})
	if err != nil {
		p.logger.Warn().
			Err(err).
			Int("page", page).
			Dur("elapsed", time.Since(start)).
			Msg("Page request failed")
		onFailure(err)
		return
	}

	items, err := decodeItems(env.Results)
	if err != nil {
		p.logger.Warn().Err(err).Int("page", page).Msg("Page items unreadable")
		onFailure(err)
		return
	}

	p.logger.Debug().
		Int("page", page).
		Int("items", len(items)).
		Int("total_results", env.TotalResults).
		Bool("cached", env.FromCache).
		Dur("elapsed", time.Since(start)).
		Msg("Page loaded")
	onSuccess(env, items)
}

func decodeItems(raw json.RawMessage) ([]MovieItem, error) {
	items := []MovieItem{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode movie items: %w", err)
	}
	if items == nil {
		items = []MovieItem{}
	}
	return items, nil
}

// ProviderFactory creates providers that share one fetcher and timeout.
type ProviderFactory struct {
	fetcher PageFetcher
	timeout time.Duration
}

// NewProviderFactory creates a factory.
func NewProviderFactory(fetcher PageFetcher, timeout time.Duration) *ProviderFactory {
	return &ProviderFactory{fetcher: fetcher, timeout: timeout}
}

// Create returns a new provider for the sort order.
func (f *ProviderFactory) Create(sort SortOption) *Provider {
	return NewProvider(f.fetcher, sort, f.timeout)
}
