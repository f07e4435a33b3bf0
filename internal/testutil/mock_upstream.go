// Package testutil provides testing utilities for pagedlist.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock upstream response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockUpstream is a configurable mock discovery API for testing.
//
// Without a scripted response for the requested page, it serves a generated
// page from a catalogue of TotalResults movies split into pages of PageSize.
type MockUpstream struct {
	server *httptest.Server

	mu        sync.RWMutex
	handlers  map[string]func(w http.ResponseWriter, r *http.Request)
	scripted  map[int][]MockResponse
	pageSize  int
	total     int
	requests  int
	pageCalls map[int]int
	lastQuery map[string]string
	lastHdr   http.Header
}

// NewMockUpstream creates a mock upstream with total movies in pages of pageSize.
func NewMockUpstream(total, pageSize int) *MockUpstream {
	mock := &MockUpstream{
		handlers:  make(map[string]func(w http.ResponseWriter, r *http.Request)),
		scripted:  make(map[int][]MockResponse),
		pageSize:  pageSize,
		total:     total,
		pageCalls: make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		mock.mu.Lock()
		mock.requests++
		mock.pageCalls[page]++
		mock.lastHdr = r.Header.Clone()
		mock.lastQuery = make(map[string]string)
		for key := range r.URL.Query() {
			mock.lastQuery[key] = r.URL.Query().Get(key)
		}
		handler, hasHandler := mock.handlers[r.URL.Path]
		var scripted *MockResponse
		if queue := mock.scripted[page]; len(queue) > 0 {
			scripted = &queue[0]
			mock.scripted[page] = queue[1:]
		}
		mock.mu.Unlock()

		switch {
		case scripted != nil:
			writeResponse(w, *scripted)
		case hasHandler:
			handler(w, r)
		default:
			mock.defaultHandler(w, page)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockUpstream) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// EnqueuePageResponse scripts the next responses for a page number. Scripted
// responses are served once each, in order, before falling back to the
// generated page.
func (m *MockUpstream) EnqueuePageResponse(page int, resp ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted[page] = append(m.scripted[page], resp...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockUpstream) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests
}

// GetPageRequestCount returns the number of requests made for a page.
func (m *MockUpstream) GetPageRequestCount(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pageCalls[page]
}

// LastQuery returns the first value of a query parameter of the last request.
func (m *MockUpstream) LastQuery(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery[key]
}

// LastHeader returns a header of the last request.
func (m *MockUpstream) LastHeader(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHdr.Get(key)
}

// Movie is the upstream representation of a discovered movie.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	VoteCount   int     `json:"vote_count"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
}

// PageBody renders the envelope of a page out of total movies.
func PageBody(page, pageSize, total int) string {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	results := []Movie{}
	for i := (page - 1) * pageSize; i < page*pageSize && i < total; i++ {
		results = append(results, Movie{
			ID:          i + 1,
			Title:       fmt.Sprintf("Movie %d", i+1),
			VoteCount:   1000 - i,
			VoteAverage: 7.5,
			ReleaseDate: "2024-01-01",
		})
	}

	data, _ := json.Marshal(map[string]any{
		"page":          page,
		"total_results": total,
		"total_pages":   totalPages,
		"results":       results,
	})
	return string(data)
}

func (m *MockUpstream) defaultHandler(w http.ResponseWriter, page int) {
	if page < 1 {
		writeResponse(w, NewClientErrorResponse())
		return
	}
	writeResponse(w, NewHealthyResponse(PageBody(page, m.pageSize, m.total)))
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewHealthyResponse creates a standard 200 OK response with rate limit headers.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "100",
			"X-RateLimit-Reset":     "60",
			"Cache-Control":         "public, max-age=300",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status_message": "Request count over limit"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "15",
			"X-RateLimit-Reset":     "1",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status_message": "Internal error"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "95",
			"X-RateLimit-Reset":     "60",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewClientErrorResponse creates a 422 response for invalid parameters.
func NewClientErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       `{"status_message": "page must be less than or equal to 500"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "95",
			"X-RateLimit-Reset":     "60",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 response whose body is not a page envelope.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>maintenance</html>`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "95",
			"X-RateLimit-Reset":     "60",
		},
	}
}
