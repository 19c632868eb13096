package site

import (
	"context"
	"sync"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG PROVIDER
// The engine consumes sites through this interface; implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Catalog provides read access to the site catalog.
type Catalog interface {
	// Sites returns all sites in the catalog.
	Sites(ctx context.Context) ([]Site, error)

	// SiteByID returns a single site.
	// Returns shared.ErrSiteNotFound if the site does not exist.
	SiteByID(ctx context.Context, id shared.SiteID) (*Site, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATIC CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// StaticCatalog serves a fixed slice of sites. Used in tests and in
// development mode when no database is configured.
type StaticCatalog struct {
	sites []Site
	byID  map[shared.SiteID]*Site
}

// NewStaticCatalog creates a catalog over the given sites.
func NewStaticCatalog(sites []Site) *StaticCatalog {
	byID := make(map[shared.SiteID]*Site, len(sites))
	for i := range sites {
		byID[sites[i].ID] = &sites[i]
	}
	return &StaticCatalog{sites: sites, byID: byID}
}

// Sites implements Catalog.
func (c *StaticCatalog) Sites(_ context.Context) ([]Site, error) {
	out := make([]Site, len(c.sites))
	copy(out, c.sites)
	return out, nil
}

// SiteByID implements Catalog.
func (c *StaticCatalog) SiteByID(_ context.Context, id shared.SiteID) (*Site, error) {
	s, ok := c.byID[id]
	if !ok {
		return nil, shared.ErrSiteNotFound
	}
	copied := *s
	return &copied, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHED CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// CachedCatalog wraps another catalog and serves a cached copy of the site
// list for a TTL. The catalog changes only when the sync worker runs, so a
// coarse TTL is enough.
type CachedCatalog struct {
	inner Catalog
	ttl   time.Duration

	mu        sync.RWMutex
	sites     []Site
	byID      map[shared.SiteID]*Site
	fetchedAt time.Time
}

// NewCachedCatalog creates a caching wrapper around inner.
func NewCachedCatalog(inner Catalog, ttl time.Duration) *CachedCatalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedCatalog{inner: inner, ttl: ttl}
}

// Sites implements Catalog.
func (c *CachedCatalog) Sites(ctx context.Context) ([]Site, error) {
	if sites, ok := c.cached(); ok {
		return sites, nil
	}
	return c.refresh(ctx)
}

// SiteByID implements Catalog.
func (c *CachedCatalog) SiteByID(ctx context.Context, id shared.SiteID) (*Site, error) {
	if _, ok := c.cached(); !ok {
		if _, err := c.refresh(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.byID[id]
	if !ok {
		return nil, shared.ErrSiteNotFound
	}
	copied := *s
	return &copied, nil
}

// Invalidate drops the cached copy so the next read refreshes.
func (c *CachedCatalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}

func (c *CachedCatalog) cached() ([]Site, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sites == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil, false
	}
	out := make([]Site, len(c.sites))
	copy(out, c.sites)
	return out, true
}

func (c *CachedCatalog) refresh(ctx context.Context) ([]Site, error) {
	sites, err := c.inner.Sites(ctx)
	if err != nil {
		// Serve stale data over failing the read if we have any.
		c.mu.RLock()
		stale := c.sites
		c.mu.RUnlock()
		if stale != nil {
			out := make([]Site, len(stale))
			copy(out, stale)
			return out, nil
		}
		return nil, err
	}

	byID := make(map[shared.SiteID]*Site, len(sites))
	for i := range sites {
		byID[sites[i].ID] = &sites[i]
	}

	c.mu.Lock()
	c.sites = sites
	c.byID = byID
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	out := make([]Site, len(sites))
	copy(out, sites)
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUPING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// GroupByCity buckets sites by city.
func GroupByCity(sites []Site) map[City][]Site {
	out := make(map[City][]Site)
	for _, s := range sites {
		out[s.City] = append(out[s.City], s)
	}
	return out
}

// GroupByEra buckets sites by era.
func GroupByEra(sites []Site) map[Era][]Site {
	out := make(map[Era][]Site)
	for _, s := range sites {
		out[s.Era] = append(out[s.Era], s)
	}
	return out
}
