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

// Package lru implements a string-keyed LRU cache with optional entry
// time-to-live.
package lru

import (
	"time"

	"github.com/lrunative/lrucache/common/mclock"
	"github.com/lrunative/lrucache/log"
)

// sweepInterval is the number of writes between two expiry sweeps. Only writes
// made while a maximum age is set count towards it.
const sweepInterval = 10

type entry[V any] struct {
	key   string
	value V
	ts    mclock.AbsTime    // last write, or last read under TouchAll
	elem  *listElem[string] // position in the recency list, nil once dropped

	hash  uint64    // cached key hash
	chain *entry[V] // next entry in the same index bucket
}

// Store is an LRU cache bounded by entry count and, optionally, by entry age.
//
// Every entry lives in the hash index and in the recency list at the same time;
// the list element is stored on the entry and all removals go through drop, so
// the two structures cannot diverge. Expired entries are dropped lazily by Get
// and by a sweep from the least recently used end that runs every
// sweepInterval writes.
//
// This type is not safe for concurrent use, see Cache for a locked variant.
// The zero value is not valid, instances must be created using New.
type Store[V any] struct {
	index *hashIndex[V]
	list  *list[string]

	maxElements int
	maxAge      time.Duration
	policy      ReadPolicy

	clock   mclock.Clock
	release ReleaseFunc[V]
	writes  uint64
	stats   statsCounter
}

// New creates a store with the given configuration. Invalid settings are
// replaced by their defaults.
func New[V any](config Config, opts ...Option[V]) *Store[V] {
	config = config.sanitize()
	s := &Store[V]{
		index:       newHashIndex[V](config.MaxLoadFactor, config.SizeHint),
		list:        newList[string](),
		maxElements: config.MaxElements,
		maxAge:      config.MaxAge,
		policy:      config.ReadPolicy,
		clock:       mclock.System{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves the value stored under key. An entry older than the max age is
// dropped and reported as absent.
func (s *Store[V]) Get(key string) (value V, ok bool) {
	e := s.index.find(key)
	if e == nil {
		s.stats.misses++
		return value, false
	}
	now := s.clock.Now()
	if s.expired(e, now) {
		s.drop(e, Expired)
		s.stats.expirations++
		s.stats.misses++
		return value, false
	}
	switch s.policy {
	case TouchAll:
		e.ts = now
		s.list.moveToBack(e.elem)
	case TouchRecency:
		s.list.moveToBack(e.elem)
	}
	s.stats.hits++
	return e.value, true
}

// Set stores value under key, making it the most recently used entry. A previous
// value under the same key is released. If the store is full, the least recently
// used entry is evicted first.
func (s *Store[V]) Set(key string, value V) {
	now := s.clock.Now()
	if e := s.index.find(key); e != nil {
		old := e.value
		e.value = value
		e.ts = now
		s.list.moveToBack(e.elem)
		s.releaseValue(key, old, Replaced)
	} else {
		if s.maxElements > 0 && s.index.len() >= s.maxElements {
			s.evictOldest()
		}
		e = &entry[V]{key: key, value: value, ts: now}
		e.elem = s.list.pushBack(key)
		s.index.insert(e)
	}
	// Writes are only counted while entries can expire.
	if s.maxAge > 0 {
		s.writes++
		if s.writes%sweepInterval == 0 {
			s.sweep(now)
		}
	}
}

// Remove drops the entry stored under key, returning whether it was present.
func (s *Store[V]) Remove(key string) bool {
	e := s.index.find(key)
	if e == nil {
		return false
	}
	s.drop(e, Removed)
	return true
}

// Peek retrieves the value stored under key without marking it as used. Expired
// entries are reported as absent but left for Get or the sweep to drop.
func (s *Store[V]) Peek(key string) (value V, ok bool) {
	e := s.index.find(key)
	if e == nil || s.expired(e, s.clock.Now()) {
		return value, false
	}
	return e.value, true
}

// Contains reports whether a live entry is stored under key, without marking
// it as used.
func (s *Store[V]) Contains(key string) bool {
	_, ok := s.Peek(key)
	return ok
}

// Keys returns all keys, from least to most recently used. Expired entries that
// have not been dropped yet are included.
func (s *Store[V]) Keys() []string {
	keys := make([]string, 0, s.index.len())
	return s.list.appendTo(keys)
}

// Len returns the number of entries, including expired ones not dropped yet.
func (s *Store[V]) Len() int {
	return s.index.len()
}

// Clear releases every value and empties the store. Counters are kept.
func (s *Store[V]) Clear() {
	s.purge(Cleared)
}

// Close releases every remaining value. The store is left empty and usable.
func (s *Store[V]) Close() {
	s.purge(Closed)
}

// Stats returns a snapshot of the store's occupancy and counters.
func (s *Store[V]) Stats() Stats {
	return Stats{
		Size:          s.index.len(),
		Buckets:       s.index.bucketCount(),
		LoadFactor:    s.index.loadFactor(),
		MaxLoadFactor: s.index.maxLoadFactor,
		Evictions:     s.stats.evictions,
		Expirations:   s.stats.expirations,
		Hits:          s.stats.hits,
		Misses:        s.stats.misses,
	}
}

// MaxAge returns the configured time-to-live, 0 if expiry is disabled.
func (s *Store[V]) MaxAge() time.Duration {
	return s.maxAge
}

// MaxElements returns the capacity bound, 0 if the store is unbounded.
func (s *Store[V]) MaxElements() int {
	return s.maxElements
}

// SetMaxAge changes the time-to-live and immediately sweeps entries that are
// too old under the new setting. Non-positive values disable expiry.
func (s *Store[V]) SetMaxAge(maxAge time.Duration) {
	if maxAge < 0 {
		maxAge = 0
	}
	s.maxAge = maxAge
	s.sweep(s.clock.Now())
}

// SetMaxElements changes the capacity bound, evicting least recently used
// entries until the store fits. Non-positive values make the store unbounded.
func (s *Store[V]) SetMaxElements(n int) {
	if n < 0 {
		n = 0
	}
	s.maxElements = n
	for n > 0 && s.index.len() > n {
		s.evictOldest()
	}
}

// Sweep drops expired entries from the least recently used end until it meets a
// live one, returning the number of entries dropped.
func (s *Store[V]) Sweep() int {
	return s.sweep(s.clock.Now())
}

func (s *Store[V]) expired(e *entry[V], now mclock.AbsTime) bool {
	return s.maxAge > 0 && now.Sub(e.ts) > s.maxAge
}

func (s *Store[V]) sweep(now mclock.AbsTime) int {
	if s.maxAge == 0 {
		return 0
	}
	var swept int
	for front := s.list.front(); front != nil; front = s.list.front() {
		e := s.index.find(front.v)
		if !s.expired(e, now) {
			break
		}
		s.drop(e, Expired)
		s.stats.expirations++
		swept++
	}
	if swept > 0 {
		log.Trace("Swept expired cache entries", "count", swept, "remaining", s.index.len())
	}
	return swept
}

func (s *Store[V]) evictOldest() {
	front := s.list.front()
	if front == nil {
		return
	}
	s.drop(s.index.find(front.v), Evicted)
	s.stats.evictions++
}

// drop unlinks e from both the index and the recency list, then releases its
// value.
func (s *Store[V]) drop(e *entry[V], reason Reason) {
	s.index.erase(e)
	s.list.remove(e.elem)
	e.elem = nil
	s.releaseValue(e.key, e.value, reason)
}

// purge empties the store, releasing values from least to most recently used
// once both structures are reset.
func (s *Store[V]) purge(reason Reason) {
	if s.index.len() == 0 {
		return
	}
	var dropped []*entry[V]
	if s.release != nil {
		dropped = make([]*entry[V], 0, s.index.len())
		for el := s.list.front(); el != nil && el != &s.list.root; el = el.next {
			dropped = append(dropped, s.index.find(el.v))
		}
	}
	s.index.reset()
	s.list.init()
	for _, e := range dropped {
		s.releaseValue(e.key, e.value, reason)
	}
}

func (s *Store[V]) releaseValue(key string, value V, reason Reason) {
	if s.release != nil {
		s.release(key, value, reason)
	}
}
