package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facuhernandez/melitrack/internal/meli"
	"github.com/facuhernandez/melitrack/internal/statecache"
)

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	eng := NewEngine(newFakeStore(), &fakeClient{}, &fakeOAuth{}, statecache.NewMemoryCache())

	assert.Equal(t, defaultPageSize, eng.pageSize)
	assert.Equal(t, defaultOrderLookback, eng.orderLookback)
	assert.Equal(t, defaultStateTTL, eng.stateTTL)
	assert.Equal(t, 5*time.Second, eng.staggerOffset)
	assert.NotNil(t, eng.log)
	assert.NotNil(t, eng.nowFunc)
}

func TestNewEngine_WithOptions(t *testing.T) {
	t.Parallel()

	l := quietLogger()
	now := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)

	eng := NewEngine(newFakeStore(), &fakeClient{}, &fakeOAuth{}, statecache.NewMemoryCache(),
		WithLogger(l),
		WithPageSize(25),
		WithOrderLookback(30*24*time.Hour),
		WithStateTTL(5*time.Minute),
		WithRequestTimeout(10*time.Second),
		WithTokenTimeout(3*time.Second),
		WithStaggerOffset(time.Second),
		WithNowFunc(func() time.Time { return now }),
	)

	assert.Equal(t, 25, eng.pageSize)
	assert.Equal(t, 30*24*time.Hour, eng.orderLookback)
	assert.Equal(t, 5*time.Minute, eng.stateTTL)
	assert.Equal(t, 10*time.Second, eng.requestTimeout)
	assert.Equal(t, 3*time.Second, eng.tokenTimeout)
	assert.Equal(t, time.Second, eng.staggerOffset)
	assert.Same(t, l, eng.log)
	assert.Equal(t, now, eng.nowFunc())
}

func TestSyncAllCatalogs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.UpsertAccount(ctx, connectedAccount("user-a", time.Now().Add(time.Hour))))
	require.NoError(t, fs.UpsertAccount(ctx, connectedAccount("user-b", time.Now().Add(time.Hour))))

	synced := make(map[string]bool)
	client := &fakeClient{
		searchItemIDs: func(_ context.Context, _, sellerID string, _, _ int) (*meli.ItemSearchResult, error) {
			synced[sellerID] = true
			return &meli.ItemSearchResult{}, nil
		},
	}
	eng := newSyncEngine(fs, client)

	require.NoError(t, eng.SyncAllCatalogs(ctx))
	// Both accounts share the stub seller id; two passes happened.
	assert.True(t, synced["123456789"])
}

func TestSyncAllOrders_ContinuesPastUserFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.UpsertAccount(ctx, connectedAccount("user-a", time.Now().Add(time.Hour))))
	require.NoError(t, fs.UpsertAccount(ctx, connectedAccount("user-b", time.Now().Add(time.Hour))))

	var calls int
	client := &fakeClient{
		searchOrders: func(context.Context, string, string, time.Time, int, int) (*meli.OrderSearchResult, error) {
			calls++
			return &meli.OrderSearchResult{}, nil
		},
	}
	eng := newSyncEngine(fs, client)

	require.NoError(t, eng.SyncAllOrders(ctx))
	assert.Equal(t, 2, calls)
}
