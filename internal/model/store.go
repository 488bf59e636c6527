package model

import (
	"context"
	"sync"
)

// ArtifactStore is the single current-model slot. Save replaces the previous
// artifact atomically; Load returns domain.ErrModelNotFound when the slot is empty.
type ArtifactStore interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// PerformanceLog receives one line per training run.
type PerformanceLog interface {
	Append(ctx context.Context, line string) error
}

// CachedStore keeps the last artifact read or written in memory. Its own
// Save replaces the cached copy, so a retrain through the same CachedStore
// is visible immediately. Artifacts written by another process are not
// observed until Invalidate is called; it is a per-process snapshot.
type CachedStore struct {
	inner ArtifactStore

	mu     sync.Mutex
	cached []byte
}

// NewCachedStore wraps an ArtifactStore with a single-slot cache.
func NewCachedStore(inner ArtifactStore) *CachedStore {
	return &CachedStore{inner: inner}
}

func (c *CachedStore) Save(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.inner.Save(ctx, data); err != nil {
		c.cached = nil
		return err
	}
	c.cached = append([]byte(nil), data...)
	return nil
}

func (c *CachedStore) Load(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached == nil {
		data, err := c.inner.Load(ctx)
		if err != nil {
			return nil, err
		}
		c.cached = data
	}
	return append([]byte(nil), c.cached...), nil
}

// Invalidate drops the cached artifact so the next Load reads the store.
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}
