// Package cache provides a small generic key/value cache with per-entry expiry.
package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// store is the backing map. The bounded variant evicts the least recently used key.
type store[K comparable, V any] interface {
	Add(key K, value entry[V]) bool
	Get(key K) (entry[V], bool)
	Remove(key K) bool
	Len() int
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// TTL is a concurrency-safe cache whose entries expire a fixed duration after they are written.
// Expired entries are removed lazily when they are read; there is no background sweep.
type TTL[K comparable, V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items store[K, V]
}

// NewTTL creates a TTL cache. A size of zero or less means the cache is unbounded.
func NewTTL[K comparable, V any](size int, ttl time.Duration, opts ...Option) *TTL[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	var items store[K, V]
	if size > 0 {
		// NewLRU only fails for non-positive sizes.
		lru, _ := simplelru.NewLRU[K, entry[V]](size, nil)
		items = lru
	} else {
		items = make(mapStore[K, V])
	}

	return &TTL[K, V]{
		ttl:   ttl,
		now:   o.now,
		items: items,
	}
}

// Get returns the value for key if present and not expired.
// An expired entry is deleted and reported as absent.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.items.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry and restarting its expiry.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Add(key, entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Len returns the number of stored entries, including expired ones not yet read.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.items.Len()
}

type mapStore[K comparable, V any] map[K]entry[V]

func (m mapStore[K, V]) Add(key K, value entry[V]) bool {
	m[key] = value
	return false
}

func (m mapStore[K, V]) Get(key K) (entry[V], bool) {
	e, ok := m[key]
	return e, ok
}

func (m mapStore[K, V]) Remove(key K) bool {
	_, ok := m[key]
	delete(m, key)
	return ok
}

func (m mapStore[K, V]) Len() int {
	return len(m)
}
