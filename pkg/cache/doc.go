// Package cache stores PulsePass API responses in Redis and revalidates them
// with conditional requests.
//
// Entries live for as long as the response's Expires header allows
// (DefaultTTL when the header is missing or unparsable). An entry carrying an
// ETag or Last-Modified value lets the next request go out as a conditional
// GET; a 304 answer is then served from the stored body.
//
// # Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint: "/api/conciertos",
//		Query:    url.Values{"artista_id": {"7"}, "page": {"1"}, "limit": {"50"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API
//	}
//
//	if cache.CanRevalidate(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # Metrics
//
//   - pulsepass_cache_hits_total
//   - pulsepass_cache_misses_total
//   - pulsepass_cache_size_bytes
//   - pulsepass_cache_conditional_requests_total
//   - pulsepass_cache_not_modified_total
//   - pulsepass_cache_errors_total{operation}
//
// Every page of a collection is still requested on each run; the cache only
// lets the server answer 304 instead of resending an unchanged page.
package cache
