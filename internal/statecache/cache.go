// Package statecache provides short-lived shared state for the OAuth flow
// and connection status caching. Two implementations exist: Redis for
// multi-instance deployments and an in-memory map for single instances
// and tests.
package statecache

import (
	"context"
	"errors"
	"time"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// ErrStateNotFound is returned when an OAuth state is missing or expired.
var ErrStateNotFound = errors.New("oauth state not found")

// Cache defines the shared-state operations used by the OAuth flow and
// the status endpoint.
type Cache interface {
	// SetAuthState stores the CSRF state issued at connect time, mapped
	// to the local user, with a TTL.
	SetAuthState(ctx context.Context, state, userID string, ttl time.Duration) error

	// TakeAuthState consumes a state one-shot: it returns the user the
	// state was issued for and deletes it, or ErrStateNotFound.
	TakeAuthState(ctx context.Context, state string) (string, error)

	// SetStatus caches the connection status for a user with a TTL.
	SetStatus(ctx context.Context, userID string, status domain.ConnectionStatus, ttl time.Duration) error

	// GetStatus returns the cached connection status for a user. The
	// second return is false on a cache miss.
	GetStatus(ctx context.Context, userID string) (domain.ConnectionStatus, bool, error)

	// ClearStatus drops the cached status so the next read recomputes it.
	ClearStatus(ctx context.Context, userID string) error

	// Close releases any underlying resources.
	Close() error
}
