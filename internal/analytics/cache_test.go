package analytics_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ntrioooo/job-tracker/internal/analytics"
	"github.com/ntrioooo/job-tracker/internal/store"
	"github.com/ntrioooo/job-tracker/internal/tracker"
)

func snapshot() store.Snapshot {
	return store.NewSnapshot("user-1", []tracker.Application{
		{ID: "a", Status: tracker.StatusInterview, AppliedDate: "2024-01-15"},
		{ID: "b", Status: tracker.StatusApplied, AppliedDate: "2024-02-01"},
	})
}

// startRedis runs a throwaway Redis container, skipping when Docker is
// unavailable.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() || os.Getenv("SKIP_CONTAINER_TESTS") != "" {
		t.Skip("container tests disabled")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestDirect_Summarize(t *testing.T) {
	s := analytics.Direct{}.Summarize(context.Background(), snapshot())
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, "50.0", s.InterviewRate)
}

func TestCachedAggregator_FallsBackWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	agg := analytics.NewCachedAggregator(rdb, time.Minute, zap.NewNop())
	s := agg.Summarize(context.Background(), snapshot())

	assert.Equal(t, analytics.Aggregate(snapshot().Applications), s)
}

func TestCachedAggregator_StoresByVersion(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	agg := analytics.NewCachedAggregator(rdb, time.Minute, zap.NewNop())

	snap := snapshot()
	first := agg.Summarize(ctx, snap)

	key := fmt.Sprintf("tracker:analytics:%s:%s", snap.UserID, snap.Version)
	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	second := agg.Summarize(ctx, snap)
	assert.Equal(t, first, second)

	// A changed collection gets a new version and a fresh summary.
	changed := store.NewSnapshot("user-1", append(snap.Applications, tracker.Application{
		ID: "c", Status: tracker.StatusOffered, AppliedDate: "2024-03-01",
	}))
	require.NotEqual(t, snap.Version, changed.Version)
	third := agg.Summarize(ctx, changed)
	assert.Equal(t, 3, third.Total)
	assert.Equal(t, "33.3", third.OfferRate)
}
