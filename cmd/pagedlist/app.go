package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Sternrassler/pagedlist/pkg/client"
	"github.com/Sternrassler/pagedlist/pkg/config"
	"github.com/Sternrassler/pagedlist/pkg/logging"
	"github.com/Sternrassler/pagedlist/pkg/movies"
	"github.com/Sternrassler/pagedlist/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// appContext holds the dependencies shared by the commands.
type appContext struct {
	Config  *config.Config
	Redis   *redis.Client
	Client  *client.Client
	Factory *movies.ProviderFactory
	Sort    movies.SortOption
}

// newAppContext loads configuration, sets up logging and connects to Redis.
// sortOverride replaces MOVIES_SORT when set.
func newAppContext(ctx context.Context, envFile, sortOverride string) (*appContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Pretty = cfg.Log.Pretty
	logCfg.Output = os.Stderr
	logging.Setup(logCfg)

	sortValue := cfg.Upstream.Sort
	if sortOverride != "" {
		sortValue = sortOverride
	}
	sort, err := movies.ParseSortOption(sortValue)
	if err != nil {
		return nil, err
	}

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", redisOpts.Addr, err)
	}
	log.Info().Str("addr", redisOpts.Addr).Int("db", redisOpts.DB).Msg("Connected to Redis")

	clientCfg := client.DefaultConfig(redisClient, cfg.Upstream.BaseURL, cfg.Upstream.UserAgent)
	clientCfg.APIKey = cfg.Upstream.APIKey
	clientCfg.RateLimit = cfg.Upstream.RateLimit
	clientCfg.MaxRetries = cfg.Upstream.MaxRetries
	clientCfg.Timeout = cfg.Upstream.RequestTimeout

	pageClient, err := client.New(clientCfg)
	if err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("create page client: %w", err)
	}

	return &appContext{
		Config:  cfg,
		Redis:   redisClient,
		Client:  pageClient,
		Factory: movies.NewProviderFactory(pageClient, cfg.Upstream.RequestTimeout),
		Sort:    sort,
	}, nil
}

// pagerConfig derives the pager settings from the configuration.
func (a *appContext) pagerConfig() pagination.Config {
	pc := pagination.DefaultConfig()
	pc.PageSize = a.Config.PageSize
	return pc
}

// Close releases the Redis connection.
func (a *appContext) Close() {
	if err := a.Redis.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close Redis client")
	}
}
