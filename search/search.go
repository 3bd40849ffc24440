// Package search abstracts the reference-gathering backends (internal
// document retrieval and web search) used to enrich context before
// analysis. Gathering is strictly best-effort: a failed or absent backend
// degrades to empty context, never to a failed run.
package search

import (
	"context"
	"sync"
)

// Result is the gathered reference material for one query.
type Result struct {
	Context string   `json:"context"`
	URLs    []string `json:"urls,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

// Client answers a free-text query with reference material.
type Client interface {
	Search(ctx context.Context, query string) (Result, error)
}

// Noop is the client used when no backend is configured. It returns an
// empty result and no error.
type Noop struct{}

func (Noop) Search(context.Context, string) (Result, error) { return Result{}, nil }

// Cache is a read-through memoization layer over a Client. Refinement
// passes re-gather context for the same topic, so repeated queries within
// a process hit the cache instead of the backend.
type Cache struct {
	inner Client

	mu      sync.RWMutex
	entries map[string]Result
}

// NewCache wraps inner with an unbounded per-process cache.
func NewCache(inner Client) *Cache {
	return &Cache{inner: inner, entries: make(map[string]Result)}
}

// Search implements Client. Errors are not cached, so a transient backend
// failure does not poison later queries.
func (c *Cache) Search(ctx context.Context, query string) (Result, error) {
	c.mu.RLock()
	res, ok := c.entries[query]
	c.mu.RUnlock()
	if ok {
		return res, nil
	}

	res, err := c.inner.Search(ctx, query)
	if err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	c.entries[query] = res
	c.mu.Unlock()
	return res, nil
}

// Len reports the number of cached queries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
