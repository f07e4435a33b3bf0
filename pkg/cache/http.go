package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is the fallback TTL when the upstream sends no caching headers.
	DefaultTTL = 5 * time.Minute
)

// ResponseToEntry builds an Entry from an upstream response and its already
// read body.
func ResponseToEntry(resp *http.Response, body []byte) *Entry {
	now := time.Now()
	return &Entry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		Expires:    parseExpiry(resp.Header, now),
		StatusCode: resp.StatusCode,
		CachedAt:   now,
	}
}

// parseExpiry derives the expiry from Cache-Control (max-age, no-store,
// no-cache) and falls back to Expires, then to DefaultTTL.
func parseExpiry(headers http.Header, now time.Time) time.Time {
	if cc := headers.Get("Cache-Control"); cc != "" {
		for _, directive := range strings.Split(cc, ",") {
			directive = strings.ToLower(strings.TrimSpace(directive))
			switch {
			case directive == "no-store" || directive == "no-cache":
				return now
			case strings.HasPrefix(directive, "max-age="):
				if secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil && secs >= 0 {
					return now.Add(time.Duration(secs) * time.Second)
				}
			}
		}
	}

	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return now.Add(DefaultTTL)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return now.Add(DefaultTTL)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}
