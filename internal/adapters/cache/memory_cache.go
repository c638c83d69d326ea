package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MemoryCache is an in-memory implementation of the ExtractionCache interface
type MemoryCache struct {
	store  *gocache.Cache
	logger *zap.Logger
}

// NewMemoryCache creates a new in-memory cache. A zero ttl keeps entries for the life of the process.
func NewMemoryCache(logger *zap.Logger, ttl, cleanupFreq time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCache{
		store:  gocache.New(ttl, cleanupFreq),
		logger: logger,
	}
}

// Get retrieves a cached extraction
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	value, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Put stores a cached extraction
func (c *MemoryCache) Put(_ context.Context, key string, value []byte) error {
	c.store.SetDefault(key, append([]byte(nil), value...))
	return nil
}

// Delete removes a cache entry
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(_ context.Context) error {
	before := c.store.ItemCount()
	c.store.DeleteExpired()
	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", before-c.store.ItemCount()))
	return nil
}

// Len returns the number of cached entries, including ones not yet cleaned up
func (c *MemoryCache) Len() int {
	return c.store.ItemCount()
}

// Stop releases the cache. The go-cache janitor stops once the cache is unreachable.
func (c *MemoryCache) Stop() {
	c.store.Flush()
}
