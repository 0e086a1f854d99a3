// Package cache defines the read-through cache used in front of plan
// documents and usage aggregates. Implementations live in
// internal/adapters/cache; which one runs is a config decision.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
// Callers treat a miss as "go compute it", never as a failure.
var ErrCacheMiss = errors.New("cache miss")

// CacheService is the storage-agnostic cache contract. Values are
// marshaled by the implementation; Get unmarshals into dest.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores value under key. A non-positive ttl means the entry
	// never expires.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
}

// Key builds a namespaced cache key, e.g. Key("plan", id).
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
