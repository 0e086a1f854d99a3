// Package memory is the cache backend used when redis is not
// configured: a JSON-encoded map with per-entry expiry. Good enough
// for a single instance; run redis for anything shared.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/poolchaos/personalfit-api/internal/store/cache"
)

// sweepThreshold is the entry count that triggers an expired-entry
// sweep on the next write. Plan keys are per-ID, so an instance that
// serves many distinct plans would otherwise grow without bound.
const sweepThreshold = 4096

type entry struct {
	payload   []byte
	expiresAt time.Time // zero means never
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemoryCache() cache.CacheService {
	return &MemoryCache{entries: make(map[string]entry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return cache.ErrCacheMiss
	}
	if e.expired(time.Now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return cache.ErrCacheMiss
	}

	return json.Unmarshal(e.payload, dest)
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	e := entry{payload: payload}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= sweepThreshold {
		c.sweepLocked(time.Now())
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
}
