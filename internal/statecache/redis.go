package statecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

const (
	authStateKeyPrefix = "melitrack:oauth:state:"
	statusKeyPrefix    = "melitrack:status:"
)

// RedisCache implements Cache using Redis. Suitable for distributed
// deployments where multiple instances share OAuth state.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed cache and verifies connectivity.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheWithClient wraps an existing Redis client. Useful for
// tests or when sharing a client across components.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// SetAuthState stores an OAuth state with a TTL.
func (c *RedisCache) SetAuthState(
	ctx context.Context,
	state, userID string,
	ttl time.Duration,
) error {
	if err := c.client.Set(ctx, authStateKeyPrefix+state, userID, ttl).Err(); err != nil {
		return fmt.Errorf("storing oauth state: %w", err)
	}
	return nil
}

// TakeAuthState atomically reads and deletes an OAuth state via GETDEL.
func (c *RedisCache) TakeAuthState(ctx context.Context, state string) (string, error) {
	userID, err := c.client.GetDel(ctx, authStateKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consuming oauth state: %w", err)
	}
	return userID, nil
}

// SetStatus caches the connection status for a user.
func (c *RedisCache) SetStatus(
	ctx context.Context,
	userID string,
	status domain.ConnectionStatus,
	ttl time.Duration,
) error {
	if err := c.client.Set(ctx, statusKeyPrefix+userID, string(status), ttl).Err(); err != nil {
		return fmt.Errorf("caching connection status: %w", err)
	}
	return nil
}

// GetStatus returns the cached connection status, with a miss indicator.
func (c *RedisCache) GetStatus(
	ctx context.Context,
	userID string,
) (domain.ConnectionStatus, bool, error) {
	val, err := c.client.Get(ctx, statusKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading connection status: %w", err)
	}
	return domain.ConnectionStatus(val), true, nil
}

// ClearStatus drops the cached status for a user.
func (c *RedisCache) ClearStatus(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, statusKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("clearing connection status: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
