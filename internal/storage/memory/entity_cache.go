package memory

import (
	"sync"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/storage"
)

// EntityCache is an in-memory implementation of storage.EntityCache.
// It grows monotonically; upserts replace records whole.
type EntityCache struct {
	mu    sync.RWMutex
	data  map[string]*domain.EntityRecord // keyed by id
	order []string                        // first-insertion order
}

// NewEntityCache creates a new, empty entity cache.
func NewEntityCache() *EntityCache {
	return &EntityCache{
		data: make(map[string]*domain.EntityRecord),
	}
}

// Upsert replaces the full record for rec.ID.
func (c *EntityCache) Upsert(rec *domain.EntityRecord) error {
	if rec == nil || rec.ID == "" {
		return storage.ErrInvalidInput
	}

	// Store a copy to prevent external mutation
	recCopy := rec.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[rec.ID]; !exists {
		c.order = append(c.order, rec.ID)
	}
	c.data[rec.ID] = recCopy
	return nil
}

// Get returns a copy of the record for id.
func (c *EntityCache) Get(id string) (*domain.EntityRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, exists := c.data[id]
	if !exists {
		return nil, false
	}
	return rec.Clone(), true
}

// Has reports whether id is tracked.
func (c *EntityCache) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.data[id]
	return exists
}

// GetAll returns copies of every record keyed by id.
func (c *EntityCache) GetAll() map[string]*domain.EntityRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]*domain.EntityRecord, len(c.data))
	for id, rec := range c.data {
		result[id] = rec.Clone()
	}
	return result
}

// List returns copies of every record in first-insertion order.
func (c *EntityCache) List() []*domain.EntityRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*domain.EntityRecord, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.data[id].Clone())
	}
	return result
}

// Len returns the number of tracked ids.
func (c *EntityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// Verify interface compliance at compile time.
var _ storage.EntityCache = (*EntityCache)(nil)
