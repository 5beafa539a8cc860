package statecache

import (
	"context"
	"sync"
	"time"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache implements Cache with an in-process map. State is lost on
// restart and not shared across instances; expired entries are dropped
// lazily on read.
type MemoryCache struct {
	mu       sync.Mutex
	states   map[string]memoryEntry
	statuses map[string]memoryEntry
	nowFunc  func() time.Time
}

// MemoryOption configures the MemoryCache.
type MemoryOption func(*MemoryCache)

// WithMemoryNowFunc overrides the time function for testing.
func WithMemoryNowFunc(f func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.nowFunc = f
	}
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		states:   make(map[string]memoryEntry),
		statuses: make(map[string]memoryEntry),
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAuthState stores an OAuth state with a TTL.
func (c *MemoryCache) SetAuthState(
	_ context.Context,
	state, userID string,
	ttl time.Duration,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.states[state] = memoryEntry{
		value:     userID,
		expiresAt: c.nowFunc().Add(ttl),
	}
	return nil
}

// TakeAuthState consumes an OAuth state one-shot.
func (c *MemoryCache) TakeAuthState(_ context.Context, state string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.states[state]
	if !ok {
		return "", ErrStateNotFound
	}
	delete(c.states, state)

	if c.nowFunc().After(entry.expiresAt) {
		return "", ErrStateNotFound
	}
	return entry.value, nil
}

// SetStatus caches the connection status for a user.
func (c *MemoryCache) SetStatus(
	_ context.Context,
	userID string,
	status domain.ConnectionStatus,
	ttl time.Duration,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.statuses[userID] = memoryEntry{
		value:     string(status),
		expiresAt: c.nowFunc().Add(ttl),
	}
	return nil
}

// GetStatus returns the cached connection status, with a miss indicator.
func (c *MemoryCache) GetStatus(
	_ context.Context,
	userID string,
) (domain.ConnectionStatus, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.statuses[userID]
	if !ok {
		return "", false, nil
	}
	if c.nowFunc().After(entry.expiresAt) {
		delete(c.statuses, userID)
		return "", false, nil
	}
	return domain.ConnectionStatus(entry.value), true, nil
}

// ClearStatus drops the cached status for a user.
func (c *MemoryCache) ClearStatus(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.statuses, userID)
	return nil
}

// Close is a no-op for the in-memory cache.
func (c *MemoryCache) Close() error {
	return nil
}

var _ Cache = (*MemoryCache)(nil)
