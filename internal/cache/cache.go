// Package cache provides the read-through listing cache. The client is an
// injected capability with an explicit lifecycle; cache unavailability is
// never fatal to a request.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent or the cache is unavailable.
var ErrMiss = errors.New("cache: miss")

// Cache is the capability consumed by services: get, set with TTL, and
// prefix-scoped invalidation.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// RedisCache implements Cache on a Redis connection.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

// Get returns the cached value, or ErrMiss when absent or unreachable.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val, nil
}

// Set stores the value with a TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// DeleteByPrefix removes every key under the prefix. Pagination means many
// keys can describe overlapping result sets, so invalidation is always the
// whole scope, never a single page.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Close releases the underlying connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Disabled is a no-op Cache used when Redis is not configured or could not
// be reached at startup. Every read is a miss, so callers fall through to
// the store.
type Disabled struct{}

func (Disabled) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (Disabled) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Disabled) DeleteByPrefix(context.Context, string) error             { return nil }
func (Disabled) Close() error                                             { return nil }
