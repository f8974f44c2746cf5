package blogpanel

import (
	"sync"
	"time"
)

// publishedCache is an in-memory cache of published records with TTL, backing
// the public list endpoint so every anonymous read does not hit SQLite.
type publishedCache struct {
	mu      sync.RWMutex
	records []BlogRecord
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

func newPublishedCache(s *Store, ttl time.Duration) *publishedCache {
	return &publishedCache{store: s, ttl: ttl}
}

func (c *publishedCache) valid() bool {
	return c.records != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
// Called after every create/update.
func (c *publishedCache) Invalidate() {
	c.mu.Lock()
	c.records = nil
	c.mu.Unlock()
}

// List returns published records after ensuring the cache is fresh. It tries
// a read lock first; only takes a write lock if a reload is needed.
func (c *publishedCache) List() ([]BlogRecord, error) {
	c.mu.RLock()
	if c.valid() {
		records := c.records
		c.mu.RUnlock()
		return records, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.records, nil
	}
	records, err := c.store.ListPublished()
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []BlogRecord{}
	}
	c.records = records
	c.fetched = time.Now()
	return c.records, nil
}
