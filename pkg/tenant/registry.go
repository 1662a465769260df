package tenant

import (
	"context"
	"sync"
	"time"
)

// StaticRegistry is a fixed, in-memory Registry. It suits tests, demos
// and deployments whose tenant set is known at startup.
type StaticRegistry struct {
	mu     sync.RWMutex
	bySlug map[string]*Tenant
	byID   map[string]*Tenant
}

// NewStaticRegistry creates a registry holding the given tenants.
func NewStaticRegistry(tenants ...*Tenant) *StaticRegistry {
	r := &StaticRegistry{
		bySlug: make(map[string]*Tenant, len(tenants)),
		byID:   make(map[string]*Tenant, len(tenants)),
	}
	for _, t := range tenants {
		r.Add(t)
	}
	return r
}

// Add registers a tenant. Later additions with the same slug or ID
// replace earlier ones.
func (r *StaticRegistry) Add(t *Tenant) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySlug[t.Slug] = t
	r.byID[t.ID] = t
}

func (r *StaticRegistry) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bySlug[slug]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

func (r *StaticRegistry) GetByID(ctx context.Context, id string) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

// CachedRegistry decorates a Registry with a Cache so repeated lookups
// for the same slug or ID skip the backing store. Not-found results are
// not cached: an unknown slug stays a cheap registry miss rather than a
// stale negative entry.
type CachedRegistry struct {
	next  Registry
	cache Cache
	ttl   time.Duration
}

// NewCachedRegistry wraps next with the given cache. A zero or negative
// ttl falls back to 5 minutes.
func NewCachedRegistry(next Registry, cache Cache, ttl time.Duration) *CachedRegistry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRegistry{next: next, cache: cache, ttl: ttl}
}

func (r *CachedRegistry) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	if t, ok := r.cache.Get(ctx, "slug:"+slug); ok {
		return t, nil
	}

	t, err := r.next.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, "slug:"+slug, t, r.ttl)
	r.cache.Set(ctx, "id:"+t.ID, t, r.ttl)
	return t, nil
}

func (r *CachedRegistry) GetByID(ctx context.Context, id string) (*Tenant, error) {
	if t, ok := r.cache.Get(ctx, "id:"+id); ok {
		return t, nil
	}

	t, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, "id:"+id, t, r.ttl)
	r.cache.Set(ctx, "slug:"+t.Slug, t, r.ttl)
	return t, nil
}

// Invalidate drops both cache entries for a tenant, e.g. after its
// registry record changed.
func (r *CachedRegistry) Invalidate(ctx context.Context, t *Tenant) {
	if t == nil {
		return
	}
	r.cache.Delete(ctx, "slug:"+t.Slug)
	r.cache.Delete(ctx, "id:"+t.ID)
}
