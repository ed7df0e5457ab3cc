package cache

import (
	"context"
	"time"
)

// Cache is a TTL key-value store holding JSON values.
// A corrupt stored value is reported as a miss, not an error.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
