package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// LRU is a least-recently-used cache bounded by a total cost. It is safe for
// concurrent use.
type LRU[K comparable, V any] struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	cost      func(V) int64
	items     map[K]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
	cost  int64
}

// NewLRU creates a cache holding entries up to capacity total cost. A nil
// cost function counts every entry as 1.
func NewLRU[K comparable, V any](capacity int64, cost func(V) int64) *LRU[K, V] {
	if cost == nil {
		cost = func(V) int64 { return 1 }
	}
	return &LRU[K, V]{
		capacity:  capacity,
		cost:      cost,
		items:     make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get returns the cached value for key.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry[K, V]).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set caches value under key. Values costing more than the capacity are not
// cached.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	itemCost := c.cost(value)

	if ent, ok := c.items[key]; ok {
		e := ent.Value.(*entry[K, V])
		c.size += itemCost - e.cost
		e.value = value
		e.cost = itemCost
		c.evictList.MoveToFront(ent)
		c.evict()
		return
	}

	if itemCost > c.capacity {
		return
	}

	for c.size+itemCost > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}

	c.items[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value, cost: itemCost})
	c.size += itemCost
}

// Invalidate removes entries matching the predicate.
func (c *LRU[K, V]) Invalidate(predicate func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for key, element := range c.items {
		if predicate(key) {
			toRemove = append(toRemove, element)
		}
	}

	for _, e := range toRemove {
		c.removeElement(e)
	}
}

func (c *LRU[K, V]) evict() {
	for c.size > c.capacity && c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

func (c *LRU[K, V]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry[K, V])
	delete(c.items, kv.key)
	c.size -= kv.cost
}

// Stats returns the number of hits and misses.
func (c *LRU[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the total cost of the cached entries.
func (c *LRU[K, V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}
