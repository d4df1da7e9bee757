// Package facets caches the dataset-scope metadata that populates filter
// controls: available tags, licenses, the folder/category map, and the
// numeric slider maxima. The cache is refreshed on demand, never on filter
// changes.
package facets

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"caddvault/internal/domain"
	"caddvault/internal/eventbus"
	"caddvault/internal/store"
)

// Cache holds the current facet metadata. Readers always see either the
// previous complete value or the next complete value, never a torn mix.
type Cache struct {
	mu     sync.RWMutex
	facets domain.FacetMetadata
	loaded bool

	reader store.FacetReader
	bus    eventbus.EventBus
}

// NewCache creates an empty cache over the given facet reader.
func NewCache(reader store.FacetReader, bus eventbus.EventBus) *Cache {
	return &Cache{reader: reader, bus: bus}
}

// Current returns the cached metadata and whether a refresh has ever
// succeeded.
func (c *Cache) Current() (domain.FacetMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.facets, c.loaded
}

// Refresh fetches all facet reads in parallel and replaces the cached value
// atomically. A failed refresh leaves the previous value intact and returns
// the error. Refresh is idempotent; overlapping calls each assemble a full
// staging value and the last writer wins.
func (c *Cache) Refresh(ctx context.Context) (domain.FacetMetadata, error) {
	var staging domain.FacetMetadata

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tags, err := c.reader.DistinctTags(gctx)
		staging.Tags = tags
		return err
	})
	g.Go(func() error {
		licenses, err := c.reader.DistinctLicenses(gctx)
		staging.Licenses = licenses
		return err
	})
	g.Go(func() error {
		categories, err := c.reader.FolderCategories(gctx)
		staging.Categories = categories
		return err
	})
	g.Go(func() error {
		max, err := c.reader.MaxStars(gctx)
		staging.MaxStars = max
		return err
	})
	g.Go(func() error {
		max, err := c.reader.MaxCitations(gctx)
		staging.MaxCitations = max
		return err
	})
	g.Go(func() error {
		total, err := c.reader.CountPackages(gctx)
		staging.TotalPackages = total
		return err
	})

	if err := g.Wait(); err != nil {
		if c.bus != nil {
			c.bus.Publish(eventbus.FacetsRefreshFailedEvent{Err: err})
		}
		return domain.FacetMetadata{}, err
	}

	staging.Folders = folderNames(staging.Categories)

	c.mu.Lock()
	c.facets = staging
	c.loaded = true
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.Publish(eventbus.FacetsRefreshedEvent{Facets: staging})
	}
	return staging, nil
}

func folderNames(categories map[string][]string) []string {
	out := make([]string, 0, len(categories))
	for folder := range categories {
		out = append(out, folder)
	}
	// Folder order feeds directly into the filter controls.
	sort.Strings(out)
	return out
}
