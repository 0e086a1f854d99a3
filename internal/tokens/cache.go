package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// encoderCache owns the tokenizer handles the estimator works with,
// keyed by encoding name so models sharing an encoding share a handle.
// A stored nil marks an encoding that already failed to load, so the
// load is not retried on every call.
type encoderCache struct {
	mu      sync.RWMutex
	entries map[string]*tiktoken.Tiktoken
}

func newEncoderCache() *encoderCache {
	return &encoderCache{entries: make(map[string]*tiktoken.Tiktoken)}
}

// acquire returns the handle for the encoding, loading it on first
// use. ok is false when the encoding cannot be provided.
func (c *encoderCache) acquire(encoding string) (enc *tiktoken.Tiktoken, ok bool) {
	if encoding == "" {
		return nil, false
	}

	c.mu.RLock()
	enc, hit := c.entries[encoding]
	c.mu.RUnlock()
	if hit {
		return enc, enc != nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, hit = c.entries[encoding]; hit {
		return enc, enc != nil
	}

	loaded, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		c.entries[encoding] = nil
		return nil, false
	}
	c.entries[encoding] = loaded
	return loaded, true
}

// release drops every handle. The cache is unusable afterwards until
// entries is reassigned; the estimator guards that with its own lock.
func (c *encoderCache) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*tiktoken.Tiktoken)
}
