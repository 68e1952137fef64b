//go:build integration

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pulsepass/pulsepass-client/internal/testutil"
	"github.com/pulsepass/pulsepass-client/pkg/cache"
	"github.com/pulsepass/pulsepass-client/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_FullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetItems("/api/artistas", testutil.NewItems(5))
	mock.EnableETags()
	mock.SetHeader("X-RateLimit-Remaining", "90")
	mock.SetHeader("X-RateLimit-Reset", "60")

	cfg := DefaultConfig(mock.URL(), "PulsePassTest/1.0 (integration)")
	cfg.Redis = redisClient
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	query := url.Values{"page": {"1"}, "limit": {"20"}}

	t.Log("Request 1: Initial request")
	first, err := client.FetchPage(ctx, "/api/artistas", query)
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}

	t.Log("Request 2: Conditional request")
	second, err := client.FetchPage(ctx, "/api/artistas", query)
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("Request 2 body = %s, want %s", second, first)
	}
	if mock.GetConditionalCount() != 1 {
		t.Errorf("conditionalRequests = %d, want 1", mock.GetConditionalCount())
	}

	cachedEntry, err := client.Cache().Get(ctx, cache.Key{Endpoint: "/api/artistas", Query: query})
	if err != nil {
		t.Fatalf("Cache lookup failed: %v", err)
	}
	if cachedEntry.ETag == "" {
		t.Error("Cached entry has no ETag")
	}

	state, err := client.RateLimiter().GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() failed: %v", err)
	}
	if state.Remaining != 90 {
		t.Errorf("Remaining = %d, want 90", state.Remaining)
	}
}

func TestIntegration_RateLimitIntegration(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/api/artistas", testutil.NewRateLimitResponse(30))

	cfg := DefaultConfig(mock.URL(), "PulsePassTest/1.0")
	cfg.Redis = redisClient
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()

	_, err = client.FetchPage(ctx, "/api/artistas", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorClass != ErrorClassRateLimit {
		t.Fatalf("first request error = %v, want rate_limit APIError", err)
	}

	_, err = client.FetchPage(ctx, "/api/artistas", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("second request error = %v, want ErrRateLimited", err)
	}
	if mock.RequestCount("/api/artistas") != 1 {
		t.Errorf("requests = %d, want 1", mock.RequestCount("/api/artistas"))
	}

	state, err := client.RateLimiter().GetState(ctx)
	if err != nil {
		t.Fatalf("Failed to get rate limit state: %v", err)
	}
	if state.Remaining != 0 || !state.NeedsCriticalBlock() {
		t.Errorf("state = %+v, want exhausted", state)
	}
}

func TestIntegration_SharedRateLimitState(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	ctx := context.Background()
	redisClient.Set(ctx, ratelimit.RedisKeyRemaining, 1, 0)
	redisClient.Set(ctx, ratelimit.RedisKeyResetTimestamp, time.Now().Add(60*time.Second).Unix(), 0)

	cfg := DefaultConfig("http://example.invalid", "PulsePassTest/1.0")
	cfg.Redis = redisClient
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if _, err := client.Get(ctx, "/api/artistas", nil); !errors.Is(err, ErrRateLimited) {
		t.Errorf("error = %v, want ErrRateLimited", err)
	}
}

func TestIntegration_CacheExpiration(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Expires", time.Now().Add(3*time.Second).Format(http.TimeFormat))
		w.Header().Set("ETag", `"short-lived"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL, "PulsePassTest/1.0")
	cfg.Redis = redisClient
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()

	resp1, err := client.Get(ctx, "/api/artistas", nil)
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	resp1.Body.Close()

	cacheKey := cache.Key{Endpoint: "/api/artistas"}
	entry, err := client.Cache().Get(ctx, cacheKey)
	if err != nil {
		t.Fatalf("Cache lookup failed: %v", err)
	}
	if entry.IsExpired() {
		t.Error("Entry should not be expired yet")
	}

	time.Sleep(4 * time.Second)

	entry2, err := client.Cache().Get(ctx, cacheKey)
	if !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("Expected cache miss after expiration, got: %v (entry: %v)", err, entry2)
	}
}
