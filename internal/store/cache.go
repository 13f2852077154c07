package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"firdesk/internal/models"

	"github.com/patrickmn/go-cache"
)

// CachedStore serves full-collection reads from memory so polling clients do
// not hit the backend on every request. Every mutation invalidates the entry.
type CachedStore struct {
	inner RecordStore
	cache *cache.Cache

	// generation changes on every invalidation; a Load that raced a write does
	// not repopulate the cache with what it read before the write landed
	mu         sync.Mutex
	generation uint64
}

// NewCachedStore wraps inner with a read cache holding entries for ttl.
// ttl must be positive; a zero ttl would keep entries forever.
func NewCachedStore(inner RecordStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Name returns the inner store's name
func (c *CachedStore) Name() string {
	return c.inner.Name()
}

// Load returns the cached collection, reading through on a miss
func (c *CachedStore) Load(ctx context.Context) []models.Report {
	if value, found := c.cache.Get(c.inner.Name()); found {
		if records, ok := value.([]models.Report); ok {
			return slices.Clone(records)
		}
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	records := c.inner.Load(ctx)

	c.mu.Lock()
	if c.generation == gen {
		c.cache.Set(c.inner.Name(), slices.Clone(records), cache.DefaultExpiration)
	}
	c.mu.Unlock()
	return records
}

// Append writes through and invalidates
func (c *CachedStore) Append(ctx context.Context, record models.Report) error {
	defer c.Invalidate()
	return c.inner.Append(ctx, record)
}

// Remove writes through and invalidates
func (c *CachedStore) Remove(ctx context.Context, match func(models.Report) bool) (int, error) {
	defer c.Invalidate()
	return c.inner.Remove(ctx, match)
}

// Invalidate drops the cached collection
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Delete(c.inner.Name())
}
