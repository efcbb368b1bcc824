// Package cache is a small string key/value cache with two backends:
// redis when an address is configured, an in-process expiring LRU otherwise.
package cache

import (
	"context"
	"fmt"
	"time"
)

type Cache interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Key(operation, key string) string
}

func generateKey(prefix, operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, operation, key)
}
