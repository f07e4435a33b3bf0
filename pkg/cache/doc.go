// Package cache provides a Redis-backed cache for upstream page responses.
//
// Pages are stored as JSON entries under deterministic keys built from the
// endpoint, the query parameters and the page number. An entry lives until
// the expiry the upstream announced (Cache-Control max-age or Expires), or
// DefaultTTL when the upstream gives none.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint: "/discover/movie",
//		Query:    url.Values{"sort_by": []string{"popularity.desc"}},
//		Page:     2,
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch upstream, then:
//		entry = cache.ResponseToEntry(resp, body)
//		_ = manager.Set(ctx, key, entry)
//	}
//
// # Lists
//
// All pages sharing endpoint and query form one list. CachedPages reports
// which pages of a list are cached and InvalidateList drops them, e.g. to
// force a refetch of one sort order:
//
//	pages, _ := manager.CachedPages(ctx, key) // [1 2 3]
//	n, _ := manager.InvalidateList(ctx, key)  // 3
//
// # Metrics
//
//   - pagedlist_cache_hits_total{endpoint} - Cache hits
//   - pagedlist_cache_misses_total{endpoint} - Cache misses
//   - pagedlist_cache_invalidated_pages_total - Pages dropped by InvalidateList
//   - pagedlist_cache_stored_bytes_total - Bytes written to the cache
//   - pagedlist_cache_errors_total{operation} - Cache operation errors
package cache
