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
	"math"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

const (
	minBuckets = 8
	maxBuckets = 1 << 26 // upper bound for pre-sizing from a hint
)

// hashIndex maps keys to their entries using separate chaining. The chain links
// live in the entries themselves, so the index owns no per-key allocations.
//
// The bucket count is always a power of two. The table grows whenever an
// insertion would push the load factor above maxLoadFactor and never shrinks.
type hashIndex[V any] struct {
	buckets       []*entry[V]
	size          int
	maxLoadFactor float64
}

func newHashIndex[V any](maxLoadFactor float64, sizeHint int) *hashIndex[V] {
	ix := &hashIndex[V]{
		buckets:       make([]*entry[V], minBuckets),
		maxLoadFactor: maxLoadFactor,
	}
	ix.reserve(sizeHint)
	return ix
}

func (ix *hashIndex[V]) slot(hash uint64) int {
	return int(hash & uint64(len(ix.buckets)-1))
}

// find returns the entry stored under key, or nil.
func (ix *hashIndex[V]) find(key string) *entry[V] {
	hash := xxhash.Sum64String(key)
	for e := ix.buckets[ix.slot(hash)]; e != nil; e = e.chain {
		if e.hash == hash && e.key == key {
			return e
		}
	}
	return nil
}

// insert adds e to the index. The key must not already be present.
func (ix *hashIndex[V]) insert(e *entry[V]) {
	if float64(ix.size+1) > float64(len(ix.buckets))*ix.maxLoadFactor {
		ix.rehash(ix.bucketsFor(ix.size + 1))
	}
	e.hash = xxhash.Sum64String(e.key)
	slot := ix.slot(e.hash)
	e.chain = ix.buckets[slot]
	ix.buckets[slot] = e
	ix.size++
}

// erase unlinks e from its bucket chain. It is a no-op if e is not indexed.
func (ix *hashIndex[V]) erase(e *entry[V]) {
	for p := &ix.buckets[ix.slot(e.hash)]; *p != nil; p = &(*p).chain {
		if *p == e {
			*p = e.chain
			e.chain = nil
			ix.size--
			return
		}
	}
}

func (ix *hashIndex[V]) len() int {
	return ix.size
}

func (ix *hashIndex[V]) bucketCount() int {
	return len(ix.buckets)
}

func (ix *hashIndex[V]) loadFactor() float64 {
	return float64(ix.size) / float64(len(ix.buckets))
}

// setMaxLoadFactor updates the growth threshold, rehashing right away if the
// current load already exceeds it.
func (ix *hashIndex[V]) setMaxLoadFactor(f float64) {
	ix.maxLoadFactor = f
	if ix.loadFactor() > f {
		ix.rehash(ix.bucketsFor(ix.size))
	}
}

// reserve grows the table so that n entries fit without exceeding the max
// load factor.
func (ix *hashIndex[V]) reserve(n int) {
	if n <= 0 {
		return
	}
	want := ix.bucketsFor(n)
	if want > maxBuckets {
		want = maxBuckets
	}
	if want > len(ix.buckets) {
		ix.rehash(want)
	}
}

// bucketsFor returns the power-of-two bucket count needed to hold n entries.
func (ix *hashIndex[V]) bucketsFor(n int) int {
	need := math.Ceil(float64(n) / ix.maxLoadFactor)
	count := minBuckets
	if need > minBuckets {
		count = 1 << bits.Len(uint(need)-1)
	}
	if count < len(ix.buckets) {
		count = len(ix.buckets)
	}
	return count
}

func (ix *hashIndex[V]) rehash(count int) {
	if count == len(ix.buckets) {
		return
	}
	old := ix.buckets
	ix.buckets = make([]*entry[V], count)
	for _, head := range old {
		for e := head; e != nil; {
			next := e.chain
			slot := ix.slot(e.hash)
			e.chain = ix.buckets[slot]
			ix.buckets[slot] = e
			e = next
		}
	}
}

// each calls fn for every indexed entry in bucket order. fn must not mutate
// the index.
func (ix *hashIndex[V]) each(fn func(e *entry[V])) {
	for _, head := range ix.buckets {
		for e := head; e != nil; e = e.chain {
			fn(e)
		}
	}
}

// reset drops all entries, keeping the bucket array.
func (ix *hashIndex[V]) reset() {
	clear(ix.buckets)
	ix.size = 0
}
