package cache

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = goerr.New("cache miss")

// Store is a byte-oriented TTL cache used to keep analytics responses
// warm between requests
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
