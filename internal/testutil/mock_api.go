// Package testutil provides testing utilities for the PulsePass client.
package testutil

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Default page size applied when a request carries no usable limit.
const defaultLimit = 20

// MockResponse defines the behavior for a fixed mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Request is one request seen by the mock server.
type Request struct {
	Path   string
	Query  url.Values
	Header http.Header
}

// MockAPI is a configurable paginated API server for testing.
//
// Endpoints registered with SetItems are served the way the real API serves
// its list endpoints: page and limit select a window, an artista_id query
// parameter filters on the item's artista_id field, and the envelope carries
// success, data and pagination.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	items    map[string][]map[string]any
	failures map[string]map[int]int
	headers  map[string]string
	etags    bool
	requests []Request

	// Tracking
	ConditionalCount int
}

// NewMockAPI creates and starts a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]http.HandlerFunc),
		items:    make(map[string][]map[string]any),
		failures: make(map[string]map[int]int),
		headers:  make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, Request{
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		for key, value := range mock.headers {
			w.Header().Set(key, value)
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.listHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears recorded requests and counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.ConditionalCount = 0
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
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
	})
}

// SetItems registers the records served by a paginated list endpoint.
func (m *MockAPI) SetItems(path string, items []map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[path] = items
}

// FailPage makes a page of a list endpoint fail. A status of 0 drops the
// connection without a response.
func (m *MockAPI) FailPage(path string, page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures[path] == nil {
		m.failures[path] = make(map[int]int)
	}
	m.failures[path][page] = status
}

// SetHeader adds a header to every response.
func (m *MockAPI) SetHeader(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[key] = value
}

// EnableETags makes list endpoints send an ETag and answer a matching
// If-None-Match with 304.
func (m *MockAPI) EnableETags() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.etags = true
}

// Requests returns a copy of every request seen so far.
func (m *MockAPI) Requests() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Request(nil), m.requests...)
}

// RequestCount returns the number of requests made to path.
func (m *MockAPI) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, req := range m.requests {
		if req.Path == path {
			count++
		}
	}
	return count
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// listHandler serves a window of the registered items.
func (m *MockAPI) listHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := positiveInt(query.Get("page"), 1)
	limit := positiveInt(query.Get("limit"), defaultLimit)

	m.mu.RLock()
	items, exists := m.items[r.URL.Path]
	status, failing := m.failures[r.URL.Path][page]
	etags := m.etags
	m.mu.RUnlock()

	if !exists {
		writeJSON(w, http.StatusNotFound, `{"success":false,"error":"not found"}`)
		return
	}

	if failing {
		if status == 0 {
			dropConnection(w)
			return
		}
		writeJSON(w, status, fmt.Sprintf(`{"success":false,"error":"%s"}`, http.StatusText(status)))
		return
	}

	if artistID := query.Get("artista_id"); artistID != "" {
		items = filterByArtist(items, artistID)
	}

	body := PageBody(items, page, limit)

	if etags {
		sum := sha1.Sum([]byte(body))
		etag := `"` + hex.EncodeToString(sum[:]) + `"`
		w.Header().Set("ETag", etag)
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	writeJSON(w, http.StatusOK, body)
}

// PageBody renders one page of items in the API's envelope.
func PageBody(items []map[string]any, page, limit int) string {
	total := len(items)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	data := items[start:end]
	if data == nil {
		data = []map[string]any{}
	}

	body, _ := json.Marshal(map[string]any{
		"success": true,
		"data":    data,
		"pagination": map[string]any{
			"page":          page,
			"limit":         limit,
			"total_records": total,
			"total_pages":   totalPages,
			"has_next":      page < totalPages,
			"has_prev":      page > 1,
		},
	})
	return string(body)
}

// NewItems builds n records with sequential ids starting at 1.
func NewItems(n int) []map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{"id": i + 1}
	}
	return items
}

// NewHealthyResponse creates a 200 OK response with rate-limit headers.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "100",
			"X-RateLimit-Reset":     "60",
			"ETag":                  `"test-etag-123"`,
			"Expires":               time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"success":false,"error":"rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfter),
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"success":false,"error":"internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func dropConnection(w http.ResponseWriter) {
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	conn, _, err := hijacker.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}

func filterByArtist(items []map[string]any, artistID string) []map[string]any {
	var out []map[string]any
	for _, item := range items {
		if fmt.Sprint(item["artista_id"]) == artistID {
			out = append(out, item)
		}
	}
	return out
}

func positiveInt(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
