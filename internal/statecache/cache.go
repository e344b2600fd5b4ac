// Package statecache provides the bounded, prefix-addressed store that sits
// in front of the scoring model. Entries are evicted least-recently-used
// first and a miss yields a caller-supplied default value.
package statecache

import (
	"context"
	"sync"

	"github.com/jellydator/ttlcache/v3"
)

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Capacity  int    `json:"capacity"`
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	onEvict func(key string)
}

// WithEvictionHook registers fn to be called with the key of every entry
// dropped because capacity was exceeded. fn may run on another goroutine and
// must not call back into the cache.
func WithEvictionHook(fn func(key string)) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

// Cache is a capacity-bounded LRU map from string keys to values of type V.
// A capacity of zero disables caching entirely.
//
// All methods are safe for concurrent use. A single mutex serialises every
// operation so recency updates and evictions are linearizable.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	def      V
	items    *ttlcache.Cache[string, V]
	opts     options

	hits      uint64
	misses    uint64
	evictions uint64
}

// New returns a cache holding at most capacity entries. Lookups of absent
// keys return def.
func New[V any](capacity int, def V, opts ...Option) *Cache[V] {
	if capacity < 0 {
		capacity = 0
	}
	c := &Cache[V]{
		capacity: capacity,
		def:      def,
	}
	for _, opt := range opts {
		opt(&c.opts)
	}
	if capacity > 0 {
		c.items = ttlcache.New(
			ttlcache.WithCapacity[string, V](uint64(capacity)),
		)
		if fn := c.opts.onEvict; fn != nil {
			c.items.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, V]) {
				if reason == ttlcache.EvictionReasonCapacityReached {
					fn(item.Key())
				}
			})
		}
	}
	return c
}

// Get returns the value stored under key and marks it most recently used.
// When key is absent the default is returned and the cache is unchanged.
func (c *Cache[V]) Get(key string) V {
	v, _ := c.Lookup(key)
	return v
}

// Lookup is like Get but also reports whether key was present.
func (c *Cache[V]) Lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items == nil {
		c.misses++
		return c.def, false
	}
	item := c.items.Get(key)
	if item == nil {
		c.misses++
		return c.def, false
	}
	c.hits++
	return item.Value(), true
}

// Contains reports whether key is present without touching its recency.
func (c *Cache[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items != nil && c.items.Has(key)
}

// Put stores value under key and marks it most recently used. Inserting a new
// key into a full cache evicts the least recently used entry first.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items == nil {
		return
	}
	if !c.items.Has(key) && c.items.Len() >= c.capacity {
		c.evictions++
	}
	c.items.Set(key, value, ttlcache.NoTTL)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		return 0
	}
	return c.items.Len()
}

// Capacity returns the maximum number of entries.
func (c *Cache[V]) Capacity() int {
	return c.capacity
}

// Purge drops every entry. Counters are kept.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items != nil {
		c.items.DeleteAll()
	}
}

// Stats returns the current counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if c.items != nil {
		s.Entries = c.items.Len()
	}
	return s
}
