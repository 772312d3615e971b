package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/resilience"
)

// exerciseHistoryStore checks the behavior every backend shares
func exerciseHistoryStore(t *testing.T, s HistoryStore, projectID string) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, projectID)
	require.NoError(t, err)
	assert.False(t, ok, "unknown project has no previous score")

	for _, score := range []float64{41.5, 63.2, 80} {
		require.NoError(t, s.Put(ctx, projectID, score))
	}

	score, ok, err := s.Get(ctx, projectID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 80.0, score)

	history, err := s.History(ctx, projectID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 80.0, history[0].Score)
	assert.Equal(t, 63.2, history[1].Score)
	assert.Equal(t, projectID, history[0].ProjectID)
	assert.False(t, history[0].RecordedAt.IsZero())

	all, err := s.History(ctx, projectID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := s.History(ctx, projectID+"-other", 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, bad := range []float64{-1, 100.1, math.NaN()} {
		assert.ErrorIs(t, s.Put(ctx, projectID, bad), ErrInvalidScore)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseHistoryStore(t, NewMemoryStore(), "proj_a")
}

func TestMemoryStore_HistoryIsCapped(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < memoryHistoryCap+20; i++ {
		require.NoError(t, s.Put(ctx, "p", float64(i%100)))
	}

	history, err := s.History(ctx, "p", 1000)
	require.NoError(t, err)
	assert.Len(t, history, memoryHistoryCap)
}

func TestMemoryStore_ConcurrentWriters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, fmt.Sprintf("p%d", i%4), float64(i)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		_, ok, err := s.Get(ctx, fmt.Sprintf("p%d", i))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)

	exerciseHistoryStore(t, s, "proj_a")
	require.NoError(t, s.Close())

	// Scores survive a reopen.
	reopened, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	score, ok, err := reopened.Get(context.Background(), "proj_a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 80.0, score)
	assert.Contains(t, reopened.PoolStats(), "open_connections")
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	projectID := "test-" + uuid.NewString()
	t.Cleanup(func() {
		client.Del(context.Background(),
			fmt.Sprintf(redisScoreKey, projectID),
			fmt.Sprintf(redisHistoryKey, projectID))
	})

	exerciseHistoryStore(t, NewRedisStore(client), projectID)
}

type failingStore struct {
	HistoryStore
	calls int
}

func (f *failingStore) Get(context.Context, string) (float64, bool, error) {
	f.calls++
	return 0, false, errors.New("dial tcp: connection refused")
}

func TestGuardedStore(t *testing.T) {
	t.Run("passes through while closed", func(t *testing.T) {
		g := Guard(NewMemoryStore(), resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{}))
		exerciseHistoryStore(t, g, "proj_a")
		assert.Equal(t, resilience.StateClosed, g.Breaker().State())
	})

	t.Run("fails fast once open", func(t *testing.T) {
		inner := &failingStore{HistoryStore: NewMemoryStore()}
		g := Guard(inner, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 2,
			RecoveryTimeout:  time.Hour,
		}))
		ctx := context.Background()

		for i := 0; i < 2; i++ {
			_, _, err := g.Get(ctx, "p")
			require.Error(t, err)
		}
		_, _, err := g.Get(ctx, "p")
		assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
		assert.Equal(t, 2, inner.calls)
	})

	t.Run("invalid scores do not trip the breaker", func(t *testing.T) {
		g := Guard(NewMemoryStore(), resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1}))
		assert.ErrorIs(t, g.Put(context.Background(), "p", 120), ErrInvalidScore)
		assert.Equal(t, resilience.StateClosed, g.Breaker().State())
		assert.NoError(t, g.Close())
	})
}
