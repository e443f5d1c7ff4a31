package history_test

import (
	"context"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"petzi-webhook/internal/history"
)

// startRedis spins up a throwaway Redis container. Gated behind an env var so
// the suite stays runnable without Docker.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()

	if os.Getenv("REDIS_INTEGRATION") == "" {
		t.Skip("set REDIS_INTEGRATION=1 to run Redis integration tests")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCacheRoundTrip(t *testing.T) {
	client := startRedis(t)
	cache := history.NewCache(client)
	ctx := context.Background()

	_, ok := cache.GetDailyCounts(ctx)
	assert.False(t, ok, "empty cache must miss")

	counts := []history.DayCount{
		{Day: "2024-09-01", Count: 3},
		{Day: "2024-09-02", Count: 1},
	}
	cache.SetDailyCounts(ctx, counts)

	got, ok := cache.GetDailyCounts(ctx)
	require.True(t, ok)
	assert.Equal(t, counts, got)

	cache.InvalidateDailyCounts(ctx)
	_, ok = cache.GetDailyCounts(ctx)
	assert.False(t, ok, "invalidated cache must miss")
}
