// Package client provides the HTTP page client with rate limiting, caching,
// and error handling.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pagedlist/pkg/cache"
	"github.com/Sternrassler/pagedlist/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagedlist_upstream_requests_total",
		Help: "Total upstream page requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagedlist_upstream_request_duration_seconds",
		Help:    "Upstream page request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagedlist_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagedlist_upstream_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagedlist_upstream_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagedlist_upstream_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// Client fetches pages from the upstream discovery API.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	pacer       *rate.Limiter
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis client for caching and rate limit state
	Redis *redis.Client

	// BaseURL of the upstream API (e.g. "https://api.themoviedb.org/3")
	BaseURL string

	// APIKey is sent as the api_key query parameter when set.
	APIKey string

	// User-Agent header
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// RateLimit is the client-side pace in requests per second. 0 disables pacing.
	RateLimit int

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// Retry
	MaxRetries     int           // Retries after the first attempt
	InitialBackoff time.Duration // Scales the per-class backoff table (1s = unscaled)
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, baseURL, userAgent string) Config {
	return Config{
		Redis:          redis,
		BaseURL:        baseURL,
		UserAgent:      userAgent,
		RateLimit:      10,
		Timeout:        30 * time.Second,
		MaxRetries:     2,
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a new page client.
func New(cfg Config) (*Client, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate_limit must be >= 0 (got %d)", cfg.RateLimit)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultRetryConfig().InitialBackoff
	}

	logger := log.With().Str("component", "page-client").Logger()

	pacer := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		pacer = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     baseURL,
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger),
		pacer:       pacer,
		cache:       cache.NewManager(cfg.Redis),
		config:      cfg,
		logger:      logger,
	}, nil
}

// FetchPage returns one page of a paged endpoint. It consults the shared
// rate limit state, serves cached pages, paces and retries upstream
// requests, and caches successful responses.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) (*Page, error) {
	if req.Page < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPage, req.Page)
	}

	endpoint := "/" + strings.Trim(req.Path, "/")

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Rate Limit
	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("page", req.Page).
			Msg("Request blocked by rate limiter")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		errorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
		return nil, &APIError{
			ErrorClass: ErrorClassRateLimit,
			Message:    "not sent",
			Err:        ErrRateLimited,
		}
	}

	// Step 2: Check Cache
	cacheKey := cache.Key{
		Endpoint: endpoint,
		Query:    req.Query,
		Page:     req.Page,
	}

	cachedEntry, err := c.cache.Get(ctx, cacheKey)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
	}
	if cachedEntry != nil {
		page, err := decodePage(cachedEntry.Data)
		if err == nil {
			page.FromCache = true
			requestsTotal.WithLabelValues(endpoint, "cached").Inc()
			c.logger.Debug().
				Str("endpoint", endpoint).
				Int("page", req.Page).
				Msg("Serving page from cache")
			return page, nil
		}
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Dropping unreadable cache entry")
		_ = c.cache.Delete(ctx, cacheKey)
	}

	// Steps 3-6: paced request with retry, rate limit update, classification
	target := c.pageURL(endpoint, req)

	var (
		resp *http.Response
		body []byte
	)

	retryErr := retryWithBackoff(ctx, c.logger, c.retryConfig, func() error {
		var attemptErr error
		resp, body, attemptErr = c.attempt(ctx, endpoint, target)
		return attemptErr
	}, ClassOf)
	if retryErr != nil {
		return nil, retryErr
	}

	// Step 7: Decode
	page, err := decodePage(body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "unreadable page body",
			Err:        err,
		}
	}

	// Step 8: Update Cache
	entry := cache.ResponseToEntry(resp, body)
	if entry.TTL() > 0 {
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache page")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Int("page", req.Page).
				Dur("ttl", entry.TTL()).
				Msg("Cached page")
		}
	}

	return page, nil
}

// attempt performs one paced upstream request and reads its body.
func (c *Client) attempt(ctx context.Context, endpoint, target string) (*http.Response, []byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, &APIError{ErrorClass: ErrorClassClient, Message: "create request", Err: err}
	}
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Msg("Executing upstream request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		classified := classifyTransportError(ctx, err)
		if class := ClassOf(classified); class != "" {
			errorsTotal.WithLabelValues(string(class)).Inc()
		}
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, nil, classified
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, nil, classifyTransportError(ctx, err)
	}

	status := strconv.Itoa(resp.StatusCode)
	requestsTotal.WithLabelValues(endpoint, status).Inc()

	if errClass := classifyStatus(resp.StatusCode); errClass != "" {
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Upstream request error")
		return nil, nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	return resp, body, nil
}

// retryConfig scales the per-class retry table to the configured backoff
// and retry count.
func (c *Client) retryConfig(errorClass ErrorClass) RetryConfig {
	factor := float64(c.config.InitialBackoff) / float64(DefaultRetryConfig().InitialBackoff)
	return RetryConfigForErrorClass(errorClass).Scaled(c.config.MaxRetries+1, factor)
}

// pageURL builds the upstream URL. The api key and page are never part of
// the cache key.
func (c *Client) pageURL(endpoint string, req PageRequest) string {
	query := url.Values{}
	for key, values := range req.Query {
		if key == "page" {
			continue
		}
		query[key] = append([]string(nil), values...)
	}
	query.Set("page", strconv.Itoa(req.Page))
	if c.config.APIKey != "" {
		query.Set("api_key", c.config.APIKey)
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + endpoint
	u.RawQuery = query.Encode()
	return u.String()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the cache manager.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}

// RateLimiter returns the shared rate limit tracker.
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}
