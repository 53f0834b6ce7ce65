// Package dedup provides the bounded LRU set used to suppress repeated
// wind alerts from METAR collectives.
package dedup

import (
	"container/list"
	"sync"
)

// DefaultSize is the capacity used when a non-positive size is given.
const DefaultSize = 10000

// LRU is a thread-safe set of recently seen keys. It satisfies
// nws.Deduper.
type LRU struct {
	maxEntries int

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

// New creates an LRU holding at most maxEntries keys.
func New(maxEntries int) *LRU {
	if maxEntries <= 0 {
		maxEntries = DefaultSize
	}
	return &LRU{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

// Seen reports whether key is already present. An absent key is added and
// the least recently used key is evicted when over capacity.
func (c *LRU) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.order.MoveToFront(e)
		return true
	}
	c.entries[key] = c.order.PushFront(key)
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(string))
	}
	return false
}

// Len returns the number of keys held.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
