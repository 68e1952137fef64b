//go:build integration

package catalog

import (
	"context"
	"net/http"
	"testing"

	"github.com/pulsepass/pulsepass-client/internal/testutil"
	"github.com/pulsepass/pulsepass-client/pkg/client"
	"github.com/pulsepass/pulsepass-client/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container for the duration of the test.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "start Redis container")

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, rdb.Ping(ctx).Err())

	t.Cleanup(func() {
		rdb.Close()
		container.Terminate(ctx)
	})
	return rdb
}

func newCachedService(t *testing.T, mock *testutil.MockAPI, rdb *redis.Client) *Service {
	t.Helper()

	cfg := client.DefaultConfig(mock.URL(), "PulsePassTest/1.0")
	cfg.Redis = rdb
	c, err := client.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return NewService(c, pagination.DefaultConfig())
}

// Second collection revalidates every page and is served from cache.
func TestIntegration_ArtistsRevalidated(t *testing.T) {
	rdb := setupRedis(t)

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.EnableETags()
	mock.SetItems(ArtistsEndpoint, artistItems(45))

	svc := newCachedService(t, mock, rdb)
	ctx := context.Background()

	first, result := svc.Artists(ctx)
	require.NoError(t, result.Err)
	assert.Equal(t, 45, first.Len())
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 0, mock.GetConditionalCount())

	second, result := svc.Artists(ctx)
	require.NoError(t, result.Err)
	assert.Equal(t, first.All(), second.All())
	assert.Equal(t, 3, mock.GetConditionalCount(), "every page should be revalidated")
}

func TestIntegration_ConcertsPerArtistCachedSeparately(t *testing.T) {
	rdb := setupRedis(t)

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.EnableETags()
	mock.SetItems(ConcertsEndpoint, []map[string]any{
		{"id": 1, "artista_id": 1, "nombre_evento": "A"},
		{"id": 2, "artista_id": 2, "nombre_evento": "B"},
		{"id": 3, "artista_id": 2, "nombre_evento": "C"},
	})

	svc := newCachedService(t, mock, rdb)
	ctx := context.Background()

	one, _ := svc.ConcertsByArtist(ctx, 1)
	two, _ := svc.ConcertsByArtist(ctx, 2)
	assert.Len(t, one, 1)
	assert.Len(t, two, 2)
	assert.Equal(t, 0, mock.GetConditionalCount())

	two, _ = svc.ConcertsByArtist(ctx, 2)
	assert.Len(t, two, 2)
	assert.Equal(t, 1, mock.GetConditionalCount())
}

// A 429 mid-collection records the budget and blocks the next run.
func TestIntegration_RateLimitEndsCollection(t *testing.T) {
	rdb := setupRedis(t)

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetItems(ArtistsEndpoint, artistItems(45))
	mock.SetHandler(ArtistsEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testutil.PageBody(artistItems(45), 1, ArtistPageSize)))
	})

	svc := newCachedService(t, mock, rdb)
	ctx := context.Background()

	idx, result := svc.Artists(ctx)
	assert.Equal(t, ArtistPageSize, idx.Len())
	assert.Equal(t, 1, result.Pages)
	require.Error(t, result.Err)

	var apiErr *client.APIError
	require.ErrorAs(t, result.Err, &apiErr)
	assert.Equal(t, client.ErrorClassRateLimit, apiErr.ErrorClass)

	idx, result = svc.Artists(ctx)
	assert.Equal(t, 0, idx.Len())
	assert.ErrorIs(t, result.Err, client.ErrRateLimited)
}
