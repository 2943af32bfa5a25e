package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/poyrazK/hora/internal/core/ports"
	"github.com/poyrazK/hora/internal/infrastructure/metrics"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisSessionCache holds one existence-only entry per live session. The
// value is irrelevant; presence of the key within its TTL is the liveness
// signal.
type RedisSessionCache struct {
	client *redis.Client
}

func NewRedisSessionCache(addr, password string, db int) *RedisSessionCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisSessionCache{client: rdb}
}

// Put writes the liveness entry with a TTL equal to the remaining time to
// session expiry. Redis refuses non-positive expirations, so an already
// expired session is an error rather than an immortal key.
func (c *RedisSessionCache) Put(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sessionID)
	}
	err := c.client.Set(ctx, sessionKeyPrefix+sessionID, "1", ttl).Err()
	if err != nil {
		metrics.CacheOperations.WithLabelValues("put", "error").Inc()
		return err
	}
	metrics.CacheOperations.WithLabelValues("put", "ok").Inc()
	return nil
}

func (c *RedisSessionCache) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := c.client.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		metrics.CacheOperations.WithLabelValues("exists", "error").Inc()
		return false, err
	}
	if n > 0 {
		metrics.CacheOperations.WithLabelValues("exists", "hit").Inc()
		return true, nil
	}
	metrics.CacheOperations.WithLabelValues("exists", "miss").Inc()
	return false, nil
}

// Delete is idempotent: removing an absent key succeeds.
func (c *RedisSessionCache) Delete(ctx context.Context, sessionID string) error {
	err := c.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
	if err != nil {
		metrics.CacheOperations.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.CacheOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (c *RedisSessionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client connections.
func (c *RedisSessionCache) Close() error {
	return c.client.Close()
}

var _ ports.SessionCache = (*RedisSessionCache)(nil)
