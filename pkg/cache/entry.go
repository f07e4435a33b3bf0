package cache

import "time"

// Entry is a cached upstream page.
type Entry struct {
	// Data is the raw response body.
	Data []byte `json:"data"`

	// ETag as sent by the upstream, if any.
	ETag string `json:"etag,omitempty"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// StatusCode of the cached response.
	StatusCode int `json:"status_code"`

	// CachedAt is when the entry was created.
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
