// Package cache implements the bounded LRU+TTL+content-hash cache (§4.H):
// a doubly-linked list threaded through a hash map, with hash-snapshot
// validation performed lazily on Get rather than via a background reaper.
package cache

import (
	"container/list"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// entry is the internal node stored in the LRU list.
type entry struct {
	key           string
	value         interface{}
	insertedAt    time.Time
	ttl           time.Duration
	fileHashes    map[string]uint64 // tracked path -> hash at insert time
}

// Cache is a thread-safe, bounded LRU with TTL and file-content-hash
// invalidation. The zero value is not usable; construct with New.
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
	now      func() time.Time
	hashFile func(path string) (uint64, bool)
}

// New constructs a Cache with the given bounded capacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 128
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
		hashFile: hashFileContent,
	}
}

// hashFileContent fingerprints a file's raw bytes with xxhash64, a fast
// non-cryptographic hash; it does not compute SHA-256. A hash collision
// would let a changed file read as unchanged and serve a stale entry.
func hashFileContent(path string) (uint64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(data), true
}

// Get returns the cached value iff the entry exists, has not expired,
// and every tracked file's current hash still matches the hash snapshot
// taken at Put time. Any mismatch evicts the entry. A hit marks the
// entry most-recently-used.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)

	if c.now().Sub(e.insertedAt) >= e.ttl {
		c.evictLocked(el)
		return nil, false
	}
	for path, wantHash := range e.fileHashes {
		gotHash, ok := c.hashFile(path)
		if !ok || gotHash != wantHash {
			c.evictLocked(el)
			return nil, false
		}
	}

	c.order.MoveToFront(el)
	return e.value, true
}

// Put inserts or replaces key's value, snapshotting a content hash for
// each tracked path at call time. Least-recently-used eviction kicks in
// once capacity is exceeded.
func (c *Cache) Put(key string, value interface{}, trackedPaths []string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hashes := make(map[string]uint64, len(trackedPaths))
	for _, p := range trackedPaths {
		if h, ok := c.hashFile(p); ok {
			hashes[p] = h
		}
	}

	e := &entry{
		key:        key,
		value:      value,
		insertedAt: c.now(),
		ttl:        ttl,
		fileHashes: hashes,
	}

	if el, ok := c.items[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(e)
	c.items[key] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.evictLocked(oldest)
	}
}

// evictLocked removes el from both the list and the index. Caller must
// hold c.mu.
func (c *Cache) evictLocked(el *list.Element) {
	e := el.Value.(*entry)
	delete(c.items, e.key)
	c.order.Remove(el)
}

// Len reports the number of live entries, for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
