package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Redis implements Store backed by a Redis server, letting multiple
// instances share warmed analytics results
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed cache store and verifies connectivity
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	if addr == "" {
		return nil, goerr.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect to redis",
			goerr.V("addr", addr),
			goerr.V("db", db))
	}

	ctxlog.From(ctx).Info("Redis cache initialized successfully",
		"addr", addr,
		"db", db,
	)

	return &Redis{client: client}, nil
}

// Get returns the cached value or ErrMiss when the key is absent
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, goerr.New("cache key is empty")
	}

	value, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, goerr.Wrap(ErrMiss, "key not cached", goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from redis", goerr.V("key", key))
	}

	return value, nil
}

// Set stores a value with the given TTL
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return goerr.New("cache key is empty")
	}
	if ttl <= 0 {
		return goerr.New("cache TTL must be positive", goerr.V("ttl", ttl))
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to write to redis", goerr.V("key", key))
	}
	return nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close redis client")
	}
	return nil
}

var _ Store = (*Redis)(nil) // Compile-time interface check
