// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lawstore

import (
	"context"
	"sync"
)

// Categories is the master list of law category identifiers. Model
// output is validated against this list; anything else falls back to
// types.DefaultCategoryID.
var Categories = []string{
	"CONSTITUTIONAL",
	"FISCAL",
	"LABOR",
	"HEALTH",
	"ENVIRONMENTAL",
	"JUDICIAL",
	"ADMINISTRATIVE",
	"CIVIL",
	"CRIMINAL",
	"SOCIAL_SECURITY",
}

// ValidCategory reports whether id is on the master list.
func ValidCategory(id string) bool {
	for _, c := range Categories {
		if c == id {
			return true
		}
	}
	return false
}

// ReferenceCache serves the reference data that prompts embed: the
// category master list and the tag vocabulary already present in the
// store. Tags load lazily on first use and stick until Invalidate, so
// a batch run pays the store query once.
type ReferenceCache struct {
	store Store

	mu     sync.Mutex
	tags   []string
	loaded bool
}

// NewReferenceCache wraps store with a tag-vocabulary cache.
func NewReferenceCache(store Store) *ReferenceCache {
	return &ReferenceCache{store: store}
}

// Categories returns a copy of the master category list.
func (c *ReferenceCache) Categories() []string {
	out := make([]string, len(Categories))
	copy(out, Categories)
	return out
}

// Tags returns every distinct tag in the store, loading on first call.
func (c *ReferenceCache) Tags(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		tags, err := c.store.DistinctTags(ctx)
		if err != nil {
			return nil, err
		}
		c.tags = tags
		c.loaded = true
	}

	out := make([]string, len(c.tags))
	copy(out, c.tags)
	return out, nil
}

// Invalidate drops the cached vocabulary so the next Tags call reloads
// it. Call after writing new tags to the store.
func (c *ReferenceCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = nil
	c.loaded = false
}
