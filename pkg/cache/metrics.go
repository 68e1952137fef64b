package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts entries served from Redis.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsepass_cache_hits_total",
		Help: "Total number of response cache hits",
	})

	// CacheMisses counts lookups that found no live entry.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsepass_cache_misses_total",
		Help: "Total number of response cache misses",
	})

	// CacheSize tracks the bytes written to Redis.
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulsepass_cache_size_bytes",
		Help: "Bytes written to the response cache",
	})

	// ConditionalRequestsSent counts requests sent with If-None-Match or If-Modified-Since.
	ConditionalRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsepass_cache_conditional_requests_total",
		Help: "Total number of conditional requests sent",
	})

	// NotModifiedResponses counts 304 answers served from cache.
	NotModifiedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsepass_cache_not_modified_total",
		Help: "Total number of 304 Not Modified responses served from cache",
	})

	// CacheErrors counts failed cache operations.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulsepass_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"}) // "get", "set", "delete", "purge"
)
