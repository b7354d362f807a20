package redis

import (
	"context"
	"time"
)

// Client is the Redis surface the services depend on: plain key-value with
// TTLs for cached analysis reports.
type Client interface {
	// Set sets a key to a value with an optional TTL (0 means no expiry)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get gets the value of a key; ErrNotFound when the key is absent
	Get(ctx context.Context, key string) (string, error)

	// Del removes keys
	Del(ctx context.Context, keys ...string) error

	// Ping verifies the connection
	Ping(ctx context.Context) error

	// Close closes the connection
	Close() error
}
