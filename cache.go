package spacetraveling

import (
	"context"
	"sync"
	"time"
)

// PostCache is an in-memory PageLoader over a ContentSource with TTL. The
// server uses it so on-demand pages and rebuilds triggered close together do
// not refetch the whole repository.
type PostCache struct {
	mu       sync.RWMutex
	paths    *StaticPaths
	fetched  time.Time
	props    map[string]cachedProps
	ttl      time.Duration
	source   ContentSource
	fallback bool
}

type cachedProps struct {
	props   PageProps
	fetched time.Time
}

// NewPostCache creates a PostCache backed by the given source.
func NewPostCache(src ContentSource, ttl time.Duration, fallback bool) *PostCache {
	return &PostCache{
		source:   src,
		ttl:      ttl,
		fallback: fallback,
		props:    make(map[string]cachedProps),
	}
}

func (c *PostCache) valid() bool {
	return c.paths != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.paths = nil
	c.props = make(map[string]cachedProps)
	c.mu.Unlock()
}

// Paths returns the enumerated post paths, refreshing them once expired.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) Paths(ctx context.Context) (StaticPaths, error) {
	c.mu.RLock()
	if c.valid() {
		paths := *c.paths
		c.mu.RUnlock()
		return paths, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return *c.paths, nil
	}
	paths, err := GetStaticPaths(ctx, c.source, c.fallback)
	if err != nil {
		return StaticPaths{}, err
	}
	c.paths = &paths
	c.fetched = time.Now()
	return paths, nil
}

// Props returns the page props for slug from the cache, loading them on a
// miss. Not-found results are not cached.
func (c *PostCache) Props(ctx context.Context, slug string) (PageProps, error) {
	c.mu.RLock()
	entry, ok := c.props[slug]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetched) < c.ttl {
		return entry.props, nil
	}

	props, err := GetStaticProps(ctx, c.source, PathParams{Slug: slug}, "")
	if err != nil {
		return PageProps{}, err
	}
	c.mu.Lock()
	c.props[slug] = cachedProps{props: props, fetched: time.Now()}
	c.mu.Unlock()
	return props, nil
}
