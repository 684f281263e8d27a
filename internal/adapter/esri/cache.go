package esri

import (
	"context"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
	"github.com/couchcryptid/hazard-impact-service/internal/observability"
)

// CachedLoader wraps a GridLoader with an in-memory LRU cache keyed by the
// cleaned request path. Grids are immutable, so cached instances are shared
// between requests. Failed loads are not cached.
type CachedLoader struct {
	inner   domain.GridLoader
	cache   *lru.Cache[string, *domain.Grid]
	metrics *observability.Metrics
}

// NewCachedLoader creates a cache decorator holding at most maxEntries grids.
// Sizes below 1 are raised to 1.
func NewCachedLoader(inner domain.GridLoader, maxEntries int, metrics *observability.Metrics) *CachedLoader {
	cache, _ := lru.New[string, *domain.Grid](max(maxEntries, 1))
	return &CachedLoader{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}
}

func (c *CachedLoader) Load(ctx context.Context, path string) (*domain.Grid, error) {
	key := filepath.Clean(path)
	if g, ok := c.cache.Get(key); ok {
		c.metrics.GridCache.WithLabelValues("hit").Inc()
		return g, nil
	}
	c.metrics.GridCache.WithLabelValues("miss").Inc()

	g, err := c.inner.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, g)
	return g, nil
}
