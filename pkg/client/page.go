package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
)

// PageRequest identifies one page of a paged upstream endpoint.
type PageRequest struct {
	// Path is the endpoint path relative to the base URL (e.g. "/discover/movie").
	Path string

	// Query holds the endpoint parameters. A "page" parameter is ignored.
	Query url.Values

	// Page is the 1-based page number.
	Page int
}

// Page is one decoded page envelope. Results are left raw for the caller to
// decode into its item type.
type Page struct {
	Number       int             `json:"page"`
	TotalResults int             `json:"total_results"`
	TotalPages   int             `json:"total_pages"`
	Results      json.RawMessage `json:"results"`

	// FromCache reports whether the page was served from the cache.
	FromCache bool `json:"-"`
}

var emptyResults = json.RawMessage("[]")

// decodePage parses a page envelope. A missing or null result list decodes
// as an empty list.
func decodePage(data []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode page envelope: %w", err)
	}
	if len(page.Results) == 0 || bytes.Equal(page.Results, []byte("null")) {
		page.Results = emptyResults
	}
	if page.TotalResults < 0 || page.TotalPages < 0 {
		return nil, fmt.Errorf("decode page envelope: negative totals (%d results, %d pages)",
			page.TotalResults, page.TotalPages)
	}
	return &page, nil
}
