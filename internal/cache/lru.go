package cache

import (
	"container/list"
	"sync"
	"time"
)

const defaultCapacity = 64

// LRU is a bounded map that evicts the least recently read key and,
// when a ttl is set, treats items older than ttl as absent.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	index    map[K]*list.Element
	order    *list.List // front is most recent
	stats    Stats
}

type slot[K comparable, V any] struct {
	key    K
	value  V
	stored time.Time
}

// NewLRU creates an LRU holding at most capacity items. A ttl of zero or
// less keeps items until they are evicted.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		index:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *LRU[K, V]) stale(s *slot[K, V], now time.Time) bool {
	return c.ttl > 0 && now.Sub(s.stored) > c.ttl
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		s := el.Value.(*slot[K, V])
		if !c.stale(s, c.now()) {
			c.order.MoveToFront(el)
			c.stats.Hits++
			return s.value, true
		}
		c.drop(el)
	}
	c.stats.Misses++
	var zero V
	return zero, false
}

// Put stores value under key, evicting the oldest item when full.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.index[key]; ok {
		s := el.Value.(*slot[K, V])
		s.value, s.stored = value, now
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(&slot[K, V]{key: key, value: value, stored: now})
	for c.order.Len() > c.capacity {
		c.drop(c.order.Back())
		c.stats.Evictions++
	}
}

// Remove deletes key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
}

// Purge empties the cache. Counters are kept.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.index)
	c.order.Init()
}

// Sweep drops every stale item and reports how many there were.
func (c *LRU[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	// Stale items collect at the back, but a refreshed Put can reorder them.
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.stale(el.Value.(*slot[K, V]), now) {
			c.drop(el)
			n++
		}
		el = prev
	}
	return n
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Stats returns a copy of the counters with the current size.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.index)
	return s
}

func (c *LRU[K, V]) drop(el *list.Element) {
	delete(c.index, el.Value.(*slot[K, V]).key)
	c.order.Remove(el)
}
