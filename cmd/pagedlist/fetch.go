package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/pagedlist/pkg/cache"
	"github.com/Sternrassler/pagedlist/pkg/jobexecutor"
	"github.com/Sternrassler/pagedlist/pkg/movies"
	"github.com/Sternrassler/pagedlist/pkg/pagination"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	pages := int(cmd.Int("pages"))
	retries := int(cmd.Int("retries"))
	if pages < 1 {
		return fmt.Errorf("--pages must be at least 1 (got %d)", pages)
	}

	appCtx, err := newAppContext(ctx, cmd.String("env"), cmd.String("sort"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if cmd.Bool("refresh") {
		list := cache.Key{Endpoint: movies.DiscoverPath, Query: movies.DiscoverQuery(appCtx.Sort)}
		removed, err := appCtx.Client.Cache().InvalidateList(ctx, list)
		if err != nil {
			return fmt.Errorf("refresh cache: %w", err)
		}
		log.Info().Str("sort", string(appCtx.Sort)).Int("pages", removed).Msg("Dropped cached pages")
	}

	provider := appCtx.Factory.Create(appCtx.Sort)
	defer provider.Close()

	return fetchPages(ctx, provider, appCtx.pagerConfig(), pages, retries, os.Stdout)
}

// fetchPages loads up to pages pages one after another, retrying failed
// pages up to retries times, and writes every movie as one JSON line.
func fetchPages(
	ctx context.Context,
	provider jobexecutor.PagedDataProvider[movies.MovieItem],
	pagerCfg pagination.Config,
	pages, retries int,
	out io.Writer,
) error {
	exec := jobexecutor.New[movies.MovieItem](jobexecutor.WithName("fetch"))
	exec.AttachDataProvider(provider)
	pager := pagination.NewPager(exec, pagerCfg)

	settle := func() error {
		for attempt := 0; ; attempt++ {
			status, err := pager.Wait(ctx)
			if err != nil {
				return err
			}
			if !status.Is(jobexecutor.KindFailed) {
				return nil
			}
			if attempt >= retries {
				return fmt.Errorf("page load failed after %d retries: %w", retries, status.Cause)
			}
			log.Warn().Err(status.Cause).Int("attempt", attempt+1).Msg("Retrying failed pages")
			pager.Retry()
		}
	}

	pager.Start()
	if err := settle(); err != nil {
		return err
	}
	for loaded := 1; loaded < pages && pager.LoadMore(); loaded++ {
		if err := settle(); err != nil {
			return err
		}
	}

	snap := pager.Snapshot()
	enc := json.NewEncoder(out)
	for _, item := range snap.Items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("write movie: %w", err)
		}
	}

	log.Info().
		Int("pages", snap.PagesLoaded).
		Int("items", len(snap.Items)).
		Int("total_count", snap.TotalCount).
		Msg("Fetch complete")
	return nil
}
