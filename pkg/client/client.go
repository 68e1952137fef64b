// Package client provides the HTTP client for the PulsePass API with
// optional Redis-backed caching and rate limiting.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pulsepass/pulsepass-client/pkg/cache"
	"github.com/pulsepass/pulsepass-client/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulsepass_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulsepass_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulsepass_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// maxErrorBody bounds how much of a failed response is kept in an APIError.
const maxErrorBody = 512

// Client is the PulsePass API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, e.g. "http://localhost:5000"
	BaseURL string

	// User-Agent header sent on every request
	UserAgent string

	// Redis client for caching and rate limit state.
	// Nil disables both.
	Redis *redis.Client

	// Timeout for a single HTTP request
	Timeout time.Duration

	// Retry policy for failed requests
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	// Zero means a single attempt
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}

	// Initialize logger
	logger := log.With().Str("component", "api-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		config:  cfg,
		logger:  logger,
	}

	// Create rate limit tracker and cache manager
	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, logger)
		c.cache = cache.NewManager(cfg.Redis)
	} else {
		logger.Debug().Msg("No Redis configured - caching and rate limiting disabled")
	}

	return c, nil
}

// Do performs an HTTP request with rate limiting, caching, and error handling.
//
// 4xx responses other than 429 are returned to the caller as-is. Server,
// rate-limit and network failures go through the retry policy and are
// returned as errors once it gives up.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Rate Limit
	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Rate limit check failed")
			return nil, fmt.Errorf("rate limit check: %w", err)
		}
		if !allowed {
			c.logger.Warn().
				Str("endpoint", endpoint).
				Msg("Request blocked by rate limiter")
			requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, endpoint)
		}
	}

	// Step 2: Check Cache
	cacheKey := cache.Key{
		Endpoint: endpoint,
		Query:    req.URL.Query(),
	}
	useCache := c.cache != nil && req.Method == http.MethodGet

	var cachedEntry *cache.Entry
	if useCache {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cachedEntry = entry
	}

	// Step 3: Make Conditional Request if cache hit
	if cache.CanRevalidate(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("query", req.URL.RawQuery).
		Msg("Executing API request")

	// Step 4: Execute HTTP Request with Retry Logic
	var resp *http.Response
	err := retryWithBackoff(ctx, c.config.Retry, func() error {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)

		// Network errors
		if reqErr != nil {
			errClass := classify(nil, reqErr)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			return &APIError{
				ErrorClass: errClass,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		// Update rate limit state from headers
		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromResponse(ctx, resp.StatusCode, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		// Success, 304 or redirect
		errClass := classify(resp, nil)
		if errClass == "" {
			return nil
		}

		errorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("API request error")

		// 4xx goes back to the caller untouched
		if !shouldRetry(errClass) {
			return nil
		}

		// Drain the body so the connection can be reused on the next attempt

		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    readErrorBody(resp),
		}
		resp = nil
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	// Step 5: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().
			Str("endpoint", endpoint).
			Dur("age", cachedEntry.Age()).
			Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		// Update TTL from the fresh Expires header
		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 6: Update Cache on success
	if useCache && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// Get performs a GET request to an API endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// FetchPage fetches one page of a list endpoint and returns its body.
// Any non-2xx response is returned as an *APIError.
func (c *Client) FetchPage(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	return c.GetBody(ctx, endpoint, query)
}

// GetBody performs a GET and returns the body of a 2xx response.
func (c *Client) GetBody(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	resp, err := c.Get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Anything but 2xx is a failed request, 304 without a cache entry included
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classify(resp, nil),
			Message:    readErrorBody(resp),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	return body, nil
}

// readErrorBody drains and closes resp.Body, keeping a short prefix for
// the error message.
func readErrorBody(resp *http.Response) string {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	io.Copy(io.Discard, resp.Body)

	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return resp.Status
}

// Invalidate drops every cached page of endpoint. Without Redis it is a no-op.
func (c *Client) Invalidate(ctx context.Context, endpoint string) (int, error) {
	if c.cache == nil {
		return 0, nil
	}
	n, err := c.cache.Purge(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("invalidate %s: %w", endpoint, err)
	}
	c.logger.Info().Str("endpoint", endpoint).Int("entries", n).Msg("Cache invalidated")
	return n, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the cache manager, or nil without Redis.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}

// RateLimiter returns the rate limit tracker, or nil without Redis.
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}
