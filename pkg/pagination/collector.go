package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pulsepass/pulsepass-client/pkg/logging"
	"github.com/rs/zerolog"
)

// Prometheus metrics for collection runs.
var (
	collectorPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsepass_collector_pages_total",
		Help: "Total pages fetched by the paginated collector",
	})

	collectorPageFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsepass_collector_page_failures_total",
		Help: "Total page fetches that ended a collection early",
	})

	collectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulsepass_collections_total",
		Help: "Total collection runs by outcome",
	}, []string{"outcome"})

	collectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pulsepass_collection_duration_seconds",
		Help:    "Duration of a full collection run in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})

	collectionItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pulsepass_collection_items",
		Help:    "Number of items aggregated per collection run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

// Collection outcomes used as metric labels.
const (
	OutcomeComplete = "complete"
	OutcomePartial  = "partial"
	OutcomeCapped   = "capped"
)

// Config holds collector configuration.
type Config struct {
	// PageSize is sent as the limit query parameter.
	PageSize int
	// MaxPages bounds the number of pages fetched in one run.
	MaxPages int
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns the page size used by the artist listings.
func DefaultConfig() Config {
	return Config{
		PageSize: 20,
		MaxPages: 1000,
		Timeout:  15 * time.Second,
	}
}

// PageFetcher fetches the raw body of one page.
// Implementations return an error for transport failures and non-2xx statuses.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, query url.Values) ([]byte, error)
}

// PageError records which page ended a collection early.
type PageError struct {
	Page int
	Err  error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PageError) Unwrap() error {
	return e.Err
}

// Result is the aggregate of one collection run.
type Result struct {
	// Items in server order, page by page.
	Items []Item
	// Pages is the number of pages successfully fetched.
	Pages int
	// Capped is set when MaxPages stopped the run.
	Capped bool
	// Skipped counts items CollectAs could not decode.
	Skipped int
	// Err is the failure that ended the run early, if any.
	Err error
}

// Partial reports whether the server may hold items that were not collected.
func (r Result) Partial() bool {
	return r.Err != nil || r.Capped
}

// Collector aggregates paginated list endpoints.
// It keeps no state between runs and is safe for concurrent use.
type Collector struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewCollector creates a new collector.
func NewCollector(fetcher PageFetcher, config Config) *Collector {
	if config.PageSize <= 0 {
		config.PageSize = 20
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 1000
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Collector{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("collector"),
	}
}

// Config returns the effective configuration.
func (c *Collector) Config() Config {
	return c.config
}

// Collect fetches endpoint page by page until the server reports no next
// page and returns every item in order. params are sent unchanged on every
// request; page and limit are always set by the collector.
//
// Collect never fails: an early stop is reported through Result.Err and the
// items gathered up to that point are kept.
func (c *Collector) Collect(ctx context.Context, endpoint string, params url.Values) Result {
	start := time.Now()
	logger := logging.ForRun(c.logger, endpoint)

	logger.Debug().
		Int("page_size", c.config.PageSize).
		Int("max_pages", c.config.MaxPages).
		Msg("Starting collection")

	result := Result{Items: []Item{}}
	hasNext := true

	for page := 1; hasNext; page++ {
		if result.Pages >= c.config.MaxPages {
			result.Capped = true
			logger.Warn().
				Int("max_pages", c.config.MaxPages).
				Int("collected", len(result.Items)).
				Msg("Page cap reached - returning collected items")
			break
		}

		resp, err := c.fetchPage(ctx, endpoint, pageQuery(params, page, c.config.PageSize))
		if err != nil {
			collectorPageFailuresTotal.Inc()
			result.Err = &PageError{Page: page, Err: err}
			logger.Warn().
				Err(err).
				Int("page", page).
				Int("collected", len(result.Items)).
				Msg("Page fetch failed - returning partial results")
			break
		}

		collectorPagesTotal.Inc()
		result.Pages++

		items := resp.Items()
		result.Items = append(result.Items, items...)
		hasNext = resp.HasNext()

		logger.Debug().
			Int("page", page).
			Int("items", len(items)).
			Bool("success", resp.Success).
			Bool("has_next", hasNext).
			Msg("Page collected")
	}

	outcome := OutcomeComplete
	switch {
	case result.Capped:
		outcome = OutcomeCapped
	case result.Err != nil:
		outcome = OutcomePartial
	}
	collectionsTotal.WithLabelValues(outcome).Inc()
	collectionDuration.Observe(time.Since(start).Seconds())
	collectionItems.Observe(float64(len(result.Items)))

	logger.Info().
		Int("pages", result.Pages).
		Int("items", len(result.Items)).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Msg("Collection complete")

	return result
}

// fetchPage fetches and decodes a single page with the per-page timeout.
func (c *Collector) fetchPage(ctx context.Context, endpoint string, query url.Values) (*PageResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := c.fetcher.FetchPage(pageCtx, endpoint, query)
	if err != nil {
		return nil, err
	}

	return DecodePage(body)
}

// pageQuery copies params and sets page and limit.
func pageQuery(params url.Values, page, limit int) url.Values {
	query := make(url.Values, len(params)+2)
	for key, values := range params {
		query[key] = append([]string(nil), values...)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	return query
}

// CollectAs runs c.Collect and decodes every item into T. Items that do not
// decode are skipped and counted in Result.Skipped.
func CollectAs[T any](ctx context.Context, c *Collector, endpoint string, params url.Values) ([]T, Result) {
	result := c.Collect(ctx, endpoint, params)

	out := make([]T, 0, len(result.Items))
	for i, raw := range result.Items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			result.Skipped++
			c.logger.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int("index", i).
				Msg("Skipping undecodable item")
			continue
		}
		out = append(out, v)
	}

	return out, result
}
