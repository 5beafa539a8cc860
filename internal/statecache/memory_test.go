package statecache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facuhernandez/melitrack/internal/statecache"
	domain "github.com/facuhernandez/melitrack/pkg/types"
)

func TestMemoryCache_AuthState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := statecache.NewMemoryCache()

	t.Run("set and take", func(t *testing.T) {
		require.NoError(t, c.SetAuthState(ctx, "state-1", "user-1", time.Minute))

		userID, err := c.TakeAuthState(ctx, "state-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	})

	t.Run("take is one-shot", func(t *testing.T) {
		require.NoError(t, c.SetAuthState(ctx, "state-2", "user-2", time.Minute))

		_, err := c.TakeAuthState(ctx, "state-2")
		require.NoError(t, err)

		_, err = c.TakeAuthState(ctx, "state-2")
		require.ErrorIs(t, err, statecache.ErrStateNotFound)
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := c.TakeAuthState(ctx, "never-issued")
		require.ErrorIs(t, err, statecache.ErrStateNotFound)
	})
}

func TestMemoryCache_AuthStateExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	currentTime := now

	c := statecache.NewMemoryCache(
		statecache.WithMemoryNowFunc(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return currentTime
		}),
	)

	require.NoError(t, c.SetAuthState(ctx, "state-exp", "user-1", 15*time.Minute))

	mu.Lock()
	currentTime = now.Add(16 * time.Minute)
	mu.Unlock()

	_, err := c.TakeAuthState(ctx, "state-exp")
	require.ErrorIs(t, err, statecache.ErrStateNotFound)
}

func TestMemoryCache_Status(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := statecache.NewMemoryCache()

	t.Run("miss before set", func(t *testing.T) {
		_, ok, err := c.GetStatus(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, c.SetStatus(ctx, "user-1", domain.StatusConnected, time.Minute))

		status, ok, err := c.GetStatus(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.StatusConnected, status)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, c.SetStatus(ctx, "user-2", domain.StatusPending, time.Minute))
		require.NoError(t, c.ClearStatus(ctx, "user-2"))

		_, ok, err := c.GetStatus(ctx, "user-2")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMemoryCache_StatusExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	currentTime := now

	c := statecache.NewMemoryCache(
		statecache.WithMemoryNowFunc(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return currentTime
		}),
	)

	require.NoError(t, c.SetStatus(ctx, "user-1", domain.StatusConnected, 15*time.Minute))

	mu.Lock()
	currentTime = now.Add(time.Hour)
	mu.Unlock()

	_, ok, err := c.GetStatus(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := statecache.NewMemoryCache()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.SetStatus(ctx, "user-1", domain.StatusConnected, time.Minute)
			_, _, _ = c.GetStatus(ctx, "user-1")
		}()
	}
	wg.Wait()
}
