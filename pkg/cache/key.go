package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// KeyPrefix is the namespace of all cache keys.
const KeyPrefix = "pagedlist:page"

// Key identifies a cached page.
type Key struct {
	// Endpoint is the upstream path (e.g. "/discover/movie").
	Endpoint string

	// Query holds the query parameters except the page number.
	Query url.Values

	// Page is the page number.
	Page int
}

// List returns the key prefix shared by every page of the same list.
// Format: pagedlist:page:endpoint:q1=v1:q2=v2
func (k Key) List() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	keys := make([]string, 0, len(k.Query))
	for key := range k.Query {
		if key == "page" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values := append([]string(nil), k.Query[key]...)
		sort.Strings(values)
		parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(values, ",")))
	}

	return strings.Join(parts, ":")
}

// String generates a deterministic key.
// Format: pagedlist:page:endpoint:q1=v1:q2=v2:page=N
//
// Example:
//
//	pagedlist:page:discover/movie:sort_by=popularity.desc:page=2
func (k Key) String() string {
	return fmt.Sprintf("%s:page=%d", k.List(), k.Page)
}

// pagePattern matches the keys of every page of the list.
func (k Key) pagePattern() string {
	return k.List() + ":page=*"
}

// pageFromKey extracts the page number from a key built by String.
func pageFromKey(key string) (int, bool) {
	i := strings.LastIndex(key, ":page=")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(key[i+len(":page="):])
	if err != nil {
		return 0, false
	}
	return n, true
}
