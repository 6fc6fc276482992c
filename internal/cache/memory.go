package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/pathshala-ai/pathshala/models"
)

// MemoryCache is a bounded in-process cache with clock-style eviction:
// entries re-read since insertion get one reprieve before being evicted,
// which approximates least-recently-inserted-without-reuse at O(1)
// amortized cost.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type memEntry struct {
	key     string
	results []models.RetrievalResult
	used    bool
}

// NewMemoryCache creates a cache bounded to capacity entries. A
// non-positive capacity falls back to DefaultCapacity.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the memoized results for key, marking the entry as reused.
func (c *MemoryCache) Get(_ context.Context, key Key) ([]models.RetrievalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*memEntry)
	entry.used = true
	return entry.results, true
}

// Put inserts an immutable copy of results, evicting if over capacity.
// Re-putting an existing key is a no-op: entries never mutate.
func (c *MemoryCache) Put(_ context.Context, key Key, results []models.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks := key.String()
	if _, ok := c.entries[ks]; ok {
		return
	}

	copied := make([]models.RetrievalResult, len(results))
	copy(copied, results)
	c.entries[ks] = c.order.PushBack(&memEntry{key: ks, results: copied})

	for len(c.entries) > c.capacity {
		c.evictOne()
	}
}

// evictOne pops from the front of the insertion order, giving reused
// entries a single second chance. Caller holds the lock.
func (c *MemoryCache) evictOne() {
	for {
		front := c.order.Front()
		if front == nil {
			return
		}
		entry := front.Value.(*memEntry)
		if entry.used {
			entry.used = false
			c.order.MoveToBack(front)
			continue
		}
		c.order.Remove(front)
		delete(c.entries, entry.key)
		return
	}
}

// InvalidateAll drops every entry. Called after corpus ingestion.
func (c *MemoryCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// Len reports the resident entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
