package settings

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is a string-keyed map that collapses concurrent misses for a key into
// one load. A load that started before a write to the cache is returned to
// its callers but not stored.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]V
	gens  map[string]uint64
	epoch uint64
	group singleflight.Group
}

func NewCache[V any]() *Cache[V] {
	return &Cache[V]{items: make(map[string]V), gens: make(map[string]uint64)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.items[key] = v
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	delete(c.items, key)
}

func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	n := len(c.items)
	c.items = make(map[string]V)
	c.gens = make(map[string]uint64)
	return n
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[V]) Load(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		epoch, gen := c.epoch, c.gens[key]
		c.mu.RUnlock()

		v, err := load()
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		if c.epoch == epoch && c.gens[key] == gen {
			c.items[key] = v
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
