package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/careerscout/careerscout/internal/observability"
)

// MemoryCache is the in-memory exact cache used in dev mode and tests.
// Expired entries are dropped lazily on read and swept by a background loop.
type MemoryCache struct {
	mu      sync.RWMutex
	data    map[string]memoryEntry
	metrics *observability.Metrics

	done chan struct{}
	once sync.Once
}

type memoryEntry struct {
	value     json.RawMessage
	expiresAt time.Time
}

// NewMemoryCache creates a memory cache with a periodic cleanup loop.
func NewMemoryCache(metrics *observability.Metrics) *MemoryCache {
	c := &MemoryCache{
		data:    make(map[string]memoryEntry),
		metrics: metrics,
		done:    make(chan struct{}),
	}
	go c.cleanupLoop(time.Minute)
	return c
}

// Lookup returns the cached value, treating expired entries as absent.
func (c *MemoryCache) Lookup(_ context.Context, key string) Result {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.metrics.CacheMiss(observability.TierExact, KeyPrefix(key))
		return Result{Status: StatusMiss}
	}
	c.metrics.CacheHit(observability.TierExact, KeyPrefix(key))
	return Result{Status: StatusHit, Value: entry.value}
}

// Set stores the value with an absolute expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value json.RawMessage, ttl time.Duration) error {
	c.mu.Lock()
	c.data[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	c.metrics.CacheWrite(observability.TierExact, KeyPrefix(key))
	return nil
}

// Close stops the cleanup loop.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.data {
				if now.After(e.expiresAt) {
					delete(c.data, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

var _ ExactCache = (*MemoryCache)(nil)
