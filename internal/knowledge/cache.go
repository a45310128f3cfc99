// internal/knowledge/cache.go
package knowledge

import (
	"context"
	"sync"
	"time"

	"admissions-workers/internal/models"
)

// CachedSource memoizes another Source for ttl. Failed loads are not cached.
type CachedSource struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	snapshot *models.KnowledgeContext
	loadedAt time.Time
}

func NewCachedSource(source Source, ttl time.Duration) *CachedSource {
	return &CachedSource{source: source, ttl: ttl, now: time.Now}
}

func (c *CachedSource) Load(ctx context.Context) (*models.KnowledgeContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && c.now().Sub(c.loadedAt) < c.ttl {
		return c.snapshot, nil
	}

	kb, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.snapshot = kb
	c.loadedAt = c.now()
	return kb, nil
}

// Invalidate drops the cached snapshot.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}
