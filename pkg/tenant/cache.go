package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache sits in front of the Registry on the request hot path. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get retrieves a cached tenant by database name.
	Get(ctx context.Context, database string) (*Tenant, bool)

	// Set stores a tenant with the given TTL.
	Set(ctx context.Context, database string, t *Tenant, ttl time.Duration)

	// Delete removes a tenant, used on profile or status updates.
	Delete(ctx context.Context, database string)

	// Close releases any resources held by the cache.
	Close() error
}

// DefaultCacheSize is the default maximum number of cached tenants.
const DefaultCacheSize = 1000

// DefaultCacheTTL is the default lifetime of a cached tenant record.
const DefaultCacheTTL = 5 * time.Minute

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// inMemoryCache is the default cache: bounded map with LRU eviction and a
// background sweep of expired entries.
type inMemoryCache struct {
	mu      sync.Mutex
	items   map[string]cacheItem
	lru     []string
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

// NewInMemoryCache creates an in-memory cache with the default size limit.
func NewInMemoryCache() Cache {
	return NewInMemoryCacheWithSize(DefaultCacheSize)
}

// NewInMemoryCacheWithSize creates an in-memory cache with a custom limit.
func NewInMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	c := &inMemoryCache{
		items:   make(map[string]cacheItem),
		lru:     make([]string, 0, maxSize),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *inMemoryCache) Get(ctx context.Context, database string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[database]
	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, database)
		c.removeLRU(database)
		return nil, false
	}

	c.updateLRU(database)
	return item.tenant, true
}

func (c *inMemoryCache) Set(ctx context.Context, database string, t *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[database]; !ok && len(c.items) >= c.maxSize {
		if len(c.lru) > 0 {
			evict := c.lru[0]
			delete(c.items, evict)
			c.lru = c.lru[1:]
		}
	}

	c.items[database] = cacheItem{tenant: t, expiresAt: time.Now().Add(ttl)}
	c.updateLRU(database)
}

func (c *inMemoryCache) Delete(ctx context.Context, database string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, database)
	c.removeLRU(database)
}

func (c *inMemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

func (c *inMemoryCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *inMemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for database, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, database)
			c.removeLRU(database)
		}
	}
}

func (c *inMemoryCache) updateLRU(database string) {
	c.removeLRU(database)
	c.lru = append(c.lru, database)
}

func (c *inMemoryCache) removeLRU(database string) {
	for i, k := range c.lru {
		if k == database {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

// noOpCache disables caching; every lookup goes to the registry.
type noOpCache struct{}

// NewNoOpCache creates a cache that caches nothing.
func NewNoOpCache() Cache {
	return noOpCache{}
}

func (noOpCache) Get(ctx context.Context, database string) (*Tenant, bool) { return nil, false }
func (noOpCache) Set(ctx context.Context, database string, t *Tenant, ttl time.Duration) {
}
func (noOpCache) Delete(ctx context.Context, database string) {}
func (noOpCache) Close() error                                { return nil }
