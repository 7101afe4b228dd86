// Copyright 2024 The lrucache Authors
// This file is part of the lrucache library.
//
// The lrucache library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The lrucache library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the lrucache library. If not, see <http://www.gnu.org/licenses/>.

package lru

import (
	"sync"
	"time"
)

// Cache is a Store guarded by a mutex, for use from multiple goroutines.
// Release callbacks run with the lock held.
type Cache[V any] struct {
	store *Store[V]
	mu    sync.Mutex
}

// NewCache creates a locked store with the given configuration.
func NewCache[V any](config Config, opts ...Option[V]) *Cache[V] {
	return &Cache[V]{store: New(config, opts...)}
}

// Set stores a value, see Store.Set.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Set(key, value)
}

// Get retrieves a value, see Store.Get.
func (c *Cache[V]) Get(key string) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Get(key)
}

// Peek retrieves a value without marking it as used.
func (c *Cache[V]) Peek(key string) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Peek(key)
}

// Contains reports whether a live entry exists for key.
func (c *Cache[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Contains(key)
}

// Remove drops an entry, returning whether it was present.
func (c *Cache[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Remove(key)
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Len()
}

// Keys returns all keys, from least to most recently used.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Keys()
}

// Clear releases every value and empties the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Clear()
}

// Close releases every remaining value.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Close()
}

// Stats returns a snapshot of the cache's occupancy and counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Stats()
}

func (c *Cache[V]) MaxAge() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.MaxAge()
}

func (c *Cache[V]) MaxElements() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.MaxElements()
}

// SetMaxAge changes the time-to-live, see Store.SetMaxAge.
func (c *Cache[V]) SetMaxAge(maxAge time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.SetMaxAge(maxAge)
}

// SetMaxElements changes the capacity bound, see Store.SetMaxElements.
func (c *Cache[V]) SetMaxElements(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.SetMaxElements(n)
}

// Sweep drops expired entries from the least recently used end.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Sweep()
}
