package tenant

import (
	"context"
	"sync"
	"time"
)

// CachedRegistry decorates a Registry with read-through caching keyed by
// database name. Writes that change a tenant record evict its cache entry so
// the next lookup sees the update instead of waiting out the TTL. Middleware
// wraps the registry it receives in one of these; construct it directly to
// share a single cache between the middleware and programmatic callers.
type CachedRegistry struct {
	inner Registry
	cache Cache
	ttl   time.Duration

	// Eviction is keyed by tenant id but the cache is keyed by database
	// name, so every cached record is indexed here. The index never
	// consults the inner registry: a lookup there can fail and a failed
	// lookup must not leave a stale record being served.
	mu   sync.Mutex
	byID map[int64]string
}

// NewCachedRegistry wraps inner with the given cache. A nil cache falls back
// to the in-memory default; a non-positive ttl falls back to
// DefaultCacheTTL.
func NewCachedRegistry(inner Registry, cache Cache, ttl time.Duration) *CachedRegistry {
	if cache == nil {
		cache = NewInMemoryCache()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRegistry{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		byID:  make(map[int64]string),
	}
}

func (r *CachedRegistry) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return r.inner.FindBySlug(ctx, slug)
}

func (r *CachedRegistry) FindByID(ctx context.Context, id int64) (*Tenant, error) {
	return r.inner.FindByID(ctx, id)
}

func (r *CachedRegistry) FindByDatabase(ctx context.Context, database string) (*Tenant, error) {
	if cached, ok := r.cache.Get(ctx, database); ok {
		return cached, nil
	}
	t, err := r.inner.FindByDatabase(ctx, database)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.byID[t.ID] = database
	r.mu.Unlock()
	r.cache.Set(ctx, database, t, r.ttl)
	return t, nil
}

func (r *CachedRegistry) ListActive(ctx context.Context) ([]*Tenant, error) {
	return r.inner.ListActive(ctx)
}

func (r *CachedRegistry) Insert(ctx context.Context, t *Tenant) (*Tenant, error) {
	return r.inner.Insert(ctx, t)
}

func (r *CachedRegistry) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if err := r.inner.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CachedRegistry) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error {
	if err := r.inner.UpdateProfile(ctx, id, update); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

// TouchAccess is not cached and does not evict; last_accessed_at staleness
// within one TTL is acceptable.
func (r *CachedRegistry) TouchAccess(ctx context.Context, id int64) error {
	return r.inner.TouchAccess(ctx, id)
}

func (r *CachedRegistry) evict(ctx context.Context, id int64) {
	r.mu.Lock()
	database, ok := r.byID[id]
	if ok {
		delete(r.byID, id)
	}
	r.mu.Unlock()

	if ok {
		r.cache.Delete(ctx, database)
	}
}
