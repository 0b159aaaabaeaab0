package distance

import (
	"container/list"
	"sync"
	"sync/atomic"

	"itinerary-planner/internal/models"
)

// DefaultCacheCapacity bounds the in-memory estimate cache
const DefaultCacheCapacity = 2000

// CacheKey identifies an origin/destination/mode triple at fixed precision
type CacheKey string

// MakeCacheKey creates a unique key for a coordinate pair and travel mode
func MakeCacheKey(origin, dest models.Coordinates, mode models.TravelMode) CacheKey {
	return CacheKey(models.DistanceCacheKey(origin, dest, mode))
}

// CacheStats is a point-in-time view of cache counters
type CacheStats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

type cacheItem struct {
	key      CacheKey
	estimate Estimate
}

// MemoryCache is a size-bounded estimate cache with FIFO eviction.
// The oldest inserted key is evicted first; overwriting a key keeps its position.
type MemoryCache struct {
	capacity int
	mu       sync.RWMutex
	order    *list.List
	index    map[CacheKey]*list.Element

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewMemoryCache creates a cache holding at most capacity entries
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[CacheKey]*list.Element, capacity),
	}
}

// Get returns the cached estimate for key
func (c *MemoryCache) Get(key CacheKey) (Estimate, bool) {
	c.mu.RLock()
	elem, ok := c.index[key]
	var est Estimate
	if ok {
		est = elem.Value.(*cacheItem).estimate
	}
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return est, ok
}

// Set stores an estimate, evicting the oldest entries beyond capacity.
// It returns the number of evicted entries.
func (c *MemoryCache) Set(key CacheKey, est Estimate) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		elem.Value.(*cacheItem).estimate = est
		return 0
	}

	c.index[key] = c.order.PushBack(&cacheItem{key: key, estimate: est})

	evicted := 0
	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*cacheItem).key)
		evicted++
	}
	if evicted > 0 {
		c.evictions.Add(uint64(evicted))
	}
	return evicted
}

// Clear removes every entry; counters are kept
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.index = make(map[CacheKey]*list.Element, c.capacity)
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// Capacity returns the configured bound
func (c *MemoryCache) Capacity() int {
	return c.capacity
}

// Stats returns the current counters
func (c *MemoryCache) Stats() CacheStats {
	return CacheStats{
		Size:      c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
