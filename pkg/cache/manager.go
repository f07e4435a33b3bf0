package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested page is not cached.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cached entry could not be read. Get removes
	// such entries.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// scanBatch is the COUNT hint for SCAN over the pages of one list.
const scanBatch = 100

// Manager stores page entries in Redis. Pages of the same endpoint and query
// form a list that can be inspected and invalidated as a whole.
type Manager struct {
	redis *redis.Client
}

// NewManager creates a new cache manager with Redis backend.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{redis: redisClient}
}

// Get returns the cached page for key. It returns ErrCacheMiss when the page
// is absent or expired and ErrInvalidEntry when the stored entry is unreadable.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(key.Endpoint).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		_ = m.Delete(ctx, key)
		return nil, fmt.Errorf("%w: page %d: %v", ErrInvalidEntry, key.Page, err)
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.WithLabelValues(key.Endpoint).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(key.Endpoint).Inc()
	return &entry, nil
}

// Set stores a page with a Redis TTL matching its expiry. Expired entries
// are not stored.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	CacheStoredBytes.Add(float64(len(data)))
	return nil
}

// Delete removes a single page.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// CachedPages returns the sorted page numbers cached for the list of key.
// key.Page is ignored.
func (m *Manager) CachedPages(ctx context.Context, key Key) ([]int, error) {
	keys, err := m.listKeys(ctx, key)
	if err != nil {
		return nil, err
	}

	pages := make([]int, 0, len(keys))
	for _, k := range keys {
		if n, ok := pageFromKey(k); ok {
			pages = append(pages, n)
		}
	}
	sort.Ints(pages)
	return pages, nil
}

// InvalidateList removes every cached page of the list of key and returns
// the number of pages removed. key.Page is ignored.
func (m *Manager) InvalidateList(ctx context.Context, key Key) (int, error) {
	keys, err := m.listKeys(ctx, key)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := m.redis.Del(ctx, keys...).Result()
	if err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return 0, fmt.Errorf("redis del %s: %w", key.List(), err)
	}

	CacheInvalidatedPages.Add(float64(removed))
	return int(removed), nil
}

func (m *Manager) listKeys(ctx context.Context, key Key) ([]string, error) {
	var keys []string
	iter := m.redis.Scan(ctx, 0, key.pagePattern(), scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("scan").Inc()
		return nil, fmt.Errorf("redis scan %s: %w", key.List(), err)
	}
	return keys, nil
}
