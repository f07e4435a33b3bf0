package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks page cache hits per endpoint.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagedlist_cache_hits_total",
			Help: "Total number of page cache hits",
		},
		[]string{"endpoint"},
	)

	// CacheMisses tracks page cache misses per endpoint, including expired entries.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagedlist_cache_misses_total",
			Help: "Total number of page cache misses",
		},
		[]string{"endpoint"},
	)

	// CacheStoredBytes tracks bytes written to Redis.
	CacheStoredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagedlist_cache_stored_bytes_total",
		Help: "Total bytes of page entries written to the cache",
	})

	// CacheInvalidatedPages tracks pages removed by InvalidateList.
	CacheInvalidatedPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagedlist_cache_invalidated_pages_total",
		Help: "Total number of cached pages removed by list invalidation",
	})

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagedlist_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "scan"
	)
)
