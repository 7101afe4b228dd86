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
	"fmt"
	"math/rand"
	"slices"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/lrunative/lrucache/common/mclock"
)

type release struct {
	key    string
	value  int
	reason Reason
}

// releaseLog records every value handed back by a store.
type releaseLog struct {
	released []release
}

func (l *releaseLog) fn(key string, value int, reason Reason) {
	l.released = append(l.released, release{key, value, reason})
}

func (l *releaseLog) count(reason Reason) int {
	var n int
	for _, r := range l.released {
		if r.reason == reason {
			n++
		}
	}
	return n
}

func newTestStore(config Config) (*Store[int], *mclock.Simulated, *releaseLog) {
	clock := new(mclock.Simulated)
	log := new(releaseLog)
	s := New[int](config, WithClock[int](clock), WithReleaseFunc(log.fn))
	return s, clock, log
}

// checkInvariants verifies that the index and the recency list hold exactly the
// same keys and that every entry points at its own list element.
func checkInvariants(t *testing.T, s *Store[int]) {
	t.Helper()

	if s.index.len() != s.list.len {
		t.Fatalf("index holds %d entries, list holds %d", s.index.len(), s.list.len)
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	for el := s.list.front(); el != nil && el != &s.list.root; el = el.next {
		if !seen.Add(el.v) {
			t.Fatalf("key %q listed twice", el.v)
		}
		e := s.index.find(el.v)
		if e == nil {
			t.Fatalf("listed key %q missing from index", el.v)
		}
		if e.elem != el {
			t.Fatalf("entry %q points at a stale list element", el.v)
		}
	}
	var indexed int
	s.index.each(func(e *entry[int]) {
		indexed++
		if !seen.Contains(e.key) {
			t.Fatalf("indexed key %q missing from list", e.key)
		}
	})
	if indexed != seen.Cardinality() {
		t.Fatalf("index walk found %d entries, list has %d", indexed, seen.Cardinality())
	}
	if s.maxElements > 0 && s.Len() > s.maxElements {
		t.Fatalf("size %d exceeds bound %d", s.Len(), s.maxElements)
	}
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s, _, rel := newTestStore(Config{MaxElements: 2})
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	if _, ok := s.Get("a"); ok {
		t.Fatal("a should have been evicted")
	}
	if v, ok := s.Get("b"); !ok || v != 2 {
		t.Fatalf("wrong value for b: %d, %v", v, ok)
	}
	if v, ok := s.Get("c"); !ok || v != 3 {
		t.Fatalf("wrong value for c: %d, %v", v, ok)
	}
	if ev := s.Stats().Evictions; ev != 1 {
		t.Fatalf("wrong eviction count %d", ev)
	}
	want := []release{{"a", 1, Evicted}}
	if !slices.Equal(rel.released, want) {
		t.Fatalf("wrong releases: %v", rel.released)
	}
	checkInvariants(t, s)
}

func TestStoreReadPolicies(t *testing.T) {
	tests := []struct {
		policy  ReadPolicy
		evicted string
	}{
		{TouchRecency, "b"},
		{TouchAll, "b"},
		{TouchNone, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			s, _, rel := newTestStore(Config{MaxElements: 2, ReadPolicy: tt.policy})
			s.Set("a", 1)
			s.Set("b", 2)
			s.Get("a")
			s.Set("c", 3)

			if len(rel.released) != 1 || rel.released[0].key != tt.evicted {
				t.Fatalf("expected %s evicted, released %v", tt.evicted, rel.released)
			}
			if s.Contains(tt.evicted) {
				t.Fatalf("%s still present", tt.evicted)
			}
			if v, ok := s.Get("c"); !ok || v != 3 {
				t.Fatalf("wrong value for c: %d, %v", v, ok)
			}
			checkInvariants(t, s)
		})
	}
}

func TestStoreLazyExpiry(t *testing.T) {
	s, clock, rel := newTestStore(Config{MaxAge: 100 * time.Millisecond})
	s.Set("a", 1)

	clock.Run(50 * time.Millisecond)
	if v, ok := s.Get("a"); !ok || v != 1 {
		t.Fatalf("wrong value before expiry: %d, %v", v, ok)
	}
	clock.Run(100 * time.Millisecond)
	if _, ok := s.Get("a"); ok {
		t.Fatal("expired entry returned")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry still stored, size %d", s.Len())
	}
	stats := s.Stats()
	if stats.Expirations != 1 || stats.Evictions != 0 {
		t.Fatalf("wrong counters: %+v", stats)
	}
	if rel.count(Expired) != 1 {
		t.Fatalf("wrong releases: %v", rel.released)
	}
	checkInvariants(t, s)
}

func TestStoreExpiryBoundary(t *testing.T) {
	s, clock, _ := newTestStore(Config{MaxAge: 100 * time.Millisecond})
	s.Set("a", 1)

	clock.Run(100 * time.Millisecond)
	if _, ok := s.Get("a"); !ok {
		t.Fatal("entry exactly at max age should still be live")
	}
	clock.Run(time.Nanosecond)
	if _, ok := s.Get("a"); ok {
		t.Fatal("entry past max age returned")
	}
}

func TestStoreTouchAllRefreshesAge(t *testing.T) {
	s, clock, _ := newTestStore(Config{MaxAge: 100 * time.Millisecond, ReadPolicy: TouchAll})
	s.Set("a", 1)

	clock.Run(80 * time.Millisecond)
	if _, ok := s.Get("a"); !ok {
		t.Fatal("entry missing before expiry")
	}
	clock.Run(80 * time.Millisecond)
	if _, ok := s.Get("a"); !ok {
		t.Fatal("read did not restart the entry's age")
	}
}

func TestStoreOverwrite(t *testing.T) {
	s, clock, rel := newTestStore(Config{MaxAge: 100 * time.Millisecond})
	s.Set("a", 1)
	clock.Run(80 * time.Millisecond)
	s.Set("a", 2)
	clock.Run(80 * time.Millisecond)

	if v, ok := s.Get("a"); !ok || v != 2 {
		t.Fatalf("wrong value after overwrite: %d, %v", v, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("wrong size %d", s.Len())
	}
	want := []release{{"a", 1, Replaced}}
	if !slices.Equal(rel.released, want) {
		t.Fatalf("wrong releases: %v", rel.released)
	}
	checkInvariants(t, s)
}

func TestStoreOverwriteDoesNotEvict(t *testing.T) {
	s, _, _ := newTestStore(Config{MaxElements: 2})
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("a", 3)

	if s.Len() != 2 || s.Stats().Evictions != 0 {
		t.Fatalf("overwrite evicted: %+v", s.Stats())
	}
	// a is now the most recent entry, so b goes next.
	s.Set("c", 4)
	if s.Contains("b") || !s.Contains("a") {
		t.Fatalf("wrong entry evicted, keys %v", s.Keys())
	}
}

func TestStoreSetMaxElements(t *testing.T) {
	s, _, rel := newTestStore(Config{})
	s.Set("a", 1)
	s.Set("b", 2)
	s.SetMaxElements(1)

	if s.Len() != 1 {
		t.Fatalf("wrong size %d", s.Len())
	}
	if _, ok := s.Get("a"); ok {
		t.Fatal("a should have been evicted")
	}
	if v, ok := s.Get("b"); !ok || v != 2 {
		t.Fatalf("wrong value for b: %d, %v", v, ok)
	}
	if rel.count(Evicted) != 1 || s.Stats().Evictions != 1 {
		t.Fatalf("wrong eviction accounting: %v", rel.released)
	}

	// Lifting the bound must not evict anything.
	s.SetMaxElements(0)
	for i := 0; i < 10; i++ {
		s.Set(fmt.Sprint(i), i)
	}
	if s.Len() != 11 {
		t.Fatalf("unbounded store holds %d entries", s.Len())
	}
	checkInvariants(t, s)
}

func TestStoreClear(t *testing.T) {
	s, _, rel := newTestStore(Config{MaxElements: 2})
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)
	before := s.Stats().Evictions

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("wrong size after clear %d", s.Len())
	}
	for _, key := range []string{"a", "b", "c"} {
		if _, ok := s.Get(key); ok {
			t.Fatalf("%s present after clear", key)
		}
	}
	if ev := s.Stats().Evictions; ev != before {
		t.Fatalf("clear changed eviction count %d -> %d", before, ev)
	}
	want := []release{{"a", 1, Evicted}, {"b", 2, Cleared}, {"c", 3, Cleared}}
	if !slices.Equal(rel.released, want) {
		t.Fatalf("wrong releases: %v", rel.released)
	}
	checkInvariants(t, s)

	// The store stays usable.
	s.Set("d", 4)
	if v, ok := s.Get("d"); !ok || v != 4 {
		t.Fatalf("wrong value after clear: %d, %v", v, ok)
	}
	checkInvariants(t, s)
}

func TestStoreRemove(t *testing.T) {
	s, _, rel := newTestStore(Config{})
	s.Set("a", 1)
	s.Set("b", 2)

	if !s.Remove("a") {
		t.Fatal("remove of present key reported absent")
	}
	before := s.Stats()
	if s.Remove("a") {
		t.Fatal("second remove reported present")
	}
	if s.Remove("missing") {
		t.Fatal("remove of unknown key reported present")
	}
	if after := s.Stats(); after != before {
		t.Fatalf("idempotent remove changed stats: %+v -> %+v", before, after)
	}
	if len(rel.released) != 1 || rel.released[0] != (release{"a", 1, Removed}) {
		t.Fatalf("wrong releases: %v", rel.released)
	}
	checkInvariants(t, s)
}

func TestStoreReleasePaths(t *testing.T) {
	s, clock, rel := newTestStore(Config{MaxElements: 3, MaxAge: time.Second})

	s.Set("replaced", 1)
	s.Set("replaced", 2) // replaced: 1
	s.Set("removed", 3)
	s.Remove("removed") // removed: 3
	s.Set("evicted", 4)
	s.Set("x", 5)
	s.Set("y", 6) // evicted: replaced=2
	s.Set("z", 7) // evicted: evicted=4

	clock.Run(2 * time.Second)
	s.Get("x") // expired: 5
	s.Set("w", 8)
	s.Clear() // cleared: y=6, z=7, w=8
	s.Set("v", 9)
	s.Close() // closed: 9

	want := []release{
		{"replaced", 1, Replaced},
		{"removed", 3, Removed},
		{"replaced", 2, Evicted},
		{"evicted", 4, Evicted},
		{"x", 5, Expired},
		{"y", 6, Cleared},
		{"z", 7, Cleared},
		{"w", 8, Cleared},
		{"v", 9, Closed},
	}
	if !slices.Equal(rel.released, want) {
		t.Fatalf("wrong releases:\nhave %v\nwant %v", rel.released, want)
	}
	// Every value ever stored was released exactly once.
	values := make(map[int]int)
	for _, r := range rel.released {
		values[r.value]++
	}
	for v := 1; v <= 9; v++ {
		if values[v] != 1 {
			t.Fatalf("value %d released %d times", v, values[v])
		}
	}
	checkInvariants(t, s)
}

func TestStoreSweepThrottle(t *testing.T) {
	s, clock, _ := newTestStore(Config{MaxAge: 10 * time.Millisecond})
	for i := 0; i < 5; i++ {
		s.Set(fmt.Sprintf("old%d", i), i)
	}
	clock.Run(20 * time.Millisecond)

	// Writes six to nine don't trigger a sweep.
	for i := 0; i < 4; i++ {
		s.Set(fmt.Sprintf("new%d", i), i)
	}
	if s.Len() != 9 {
		t.Fatalf("sweep ran early, size %d", s.Len())
	}
	// The tenth write sweeps the expired prefix.
	s.Set("new4", 4)
	if s.Len() != 5 {
		t.Fatalf("sweep did not run on the tenth write, size %d", s.Len())
	}
	stats := s.Stats()
	if stats.Expirations != 5 || stats.Evictions != 0 {
		t.Fatalf("wrong counters: %+v", stats)
	}
	for _, key := range s.Keys() {
		if key[:3] != "new" {
			t.Fatalf("expired key %s survived the sweep", key)
		}
	}
	checkInvariants(t, s)
}

func TestStoreSweepCountsOnlyExpiringWrites(t *testing.T) {
	s, clock, _ := newTestStore(Config{})
	for i := 0; i < 7; i++ {
		s.Set(fmt.Sprintf("old%d", i), i)
	}
	s.SetMaxAge(10 * time.Millisecond)
	clock.Run(20 * time.Millisecond)

	// The writes made without a maximum age don't bring the sweep forward.
	for i := 0; i < 9; i++ {
		s.Set(fmt.Sprintf("new%d", i), i)
	}
	if s.Len() != 16 {
		t.Fatalf("sweep ran early, size %d", s.Len())
	}
	s.Set("new9", 9)
	if s.Len() != 10 {
		t.Fatalf("sweep did not run on the tenth expiring write, size %d", s.Len())
	}
	if stats := s.Stats(); stats.Expirations != 7 {
		t.Fatalf("wrong expirations: have %d, want 7", stats.Expirations)
	}
	checkInvariants(t, s)
}

func TestStoreSweepStopsAtLiveEntry(t *testing.T) {
	s, clock, _ := newTestStore(Config{MaxAge: 100 * time.Millisecond})
	s.Set("a", 1)
	clock.Run(60 * time.Millisecond)
	s.Set("b", 2)
	s.Get("a") // recency only, a keeps its old timestamp
	clock.Run(50 * time.Millisecond)

	if n := s.Sweep(); n != 0 {
		t.Fatalf("sweep passed a live entry, dropped %d", n)
	}
	if s.Len() != 2 {
		t.Fatalf("wrong size %d", s.Len())
	}
	// The expired entry behind it is still caught on access.
	if _, ok := s.Get("a"); ok {
		t.Fatal("expired entry returned")
	}
	checkInvariants(t, s)
}

func TestStoreSetMaxAgeForcesSweep(t *testing.T) {
	s, clock, rel := newTestStore(Config{})
	s.Set("a", 1)
	s.Set("b", 2)
	clock.Run(50 * time.Millisecond)
	s.Set("c", 3)

	s.SetMaxAge(30 * time.Millisecond)
	if s.Len() != 1 || !s.Contains("c") {
		t.Fatalf("wrong entries after max age change: %v", s.Keys())
	}
	if rel.count(Expired) != 2 || s.Stats().Expirations != 2 {
		t.Fatalf("wrong expiry accounting: %v", rel.released)
	}
	if s.MaxAge() != 30*time.Millisecond {
		t.Fatalf("wrong max age %v", s.MaxAge())
	}
	checkInvariants(t, s)
}

func TestStoreNoExpiryWithoutMaxAge(t *testing.T) {
	s, clock, _ := newTestStore(Config{})
	for i := 0; i < 20; i++ {
		s.Set(fmt.Sprint(i), i)
	}
	clock.Run(24 * time.Hour)
	if n := s.Sweep(); n != 0 {
		t.Fatalf("sweep without max age dropped %d", n)
	}
	if v, ok := s.Get("0"); !ok || v != 0 {
		t.Fatalf("entry lost without max age: %d, %v", v, ok)
	}
}

func TestStorePeek(t *testing.T) {
	s, clock, _ := newTestStore(Config{MaxElements: 2, MaxAge: 100 * time.Millisecond})
	s.Set("a", 1)
	s.Set("b", 2)

	if v, ok := s.Peek("a"); !ok || v != 1 {
		t.Fatalf("wrong peek result: %d, %v", v, ok)
	}
	// Peek does not count as use, so a is still evicted first.
	s.Set("c", 3)
	if s.Contains("a") {
		t.Fatal("peek refreshed recency")
	}

	clock.Run(200 * time.Millisecond)
	if _, ok := s.Peek("b"); ok {
		t.Fatal("peek returned an expired entry")
	}
	if s.Len() != 2 {
		t.Fatalf("peek dropped an entry, size %d", s.Len())
	}
	if stats := s.Stats(); stats.Hits != 0 || stats.Misses != 0 {
		t.Fatalf("peek touched counters: %+v", stats)
	}
}

func TestStoreKeys(t *testing.T) {
	s, _, _ := newTestStore(Config{})
	for _, key := range []string{"a", "b", "c", "d"} {
		s.Set(key, 0)
	}
	s.Get("b")
	s.Set("a", 1)

	want := []string{"c", "d", "b", "a"}
	if keys := s.Keys(); !slices.Equal(keys, want) {
		t.Fatalf("wrong key order %v, want %v", keys, want)
	}
}

func TestStoreHitsAndMisses(t *testing.T) {
	s, clock, _ := newTestStore(Config{MaxAge: time.Second})
	s.Set("a", 1)
	s.Get("a")
	s.Get("a")
	s.Get("b")
	clock.Run(2 * time.Second)
	s.Get("a")

	stats := s.Stats()
	if stats.Hits != 2 || stats.Misses != 2 {
		t.Fatalf("wrong counters: %+v", stats)
	}
}

func TestStoreStats(t *testing.T) {
	s, _, _ := newTestStore(Config{MaxLoadFactor: 0.5, SizeHint: 100})
	stats := s.Stats()
	if stats.Buckets != 256 {
		t.Fatalf("wrong pre-sized bucket count %d", stats.Buckets)
	}
	if stats.MaxLoadFactor != 0.5 {
		t.Fatalf("wrong max load factor %v", stats.MaxLoadFactor)
	}
	for i := 0; i < 64; i++ {
		s.Set(fmt.Sprint(i), i)
	}
	stats = s.Stats()
	if stats.Size != 64 || stats.LoadFactor != 0.25 {
		t.Fatalf("wrong occupancy: %+v", stats)
	}
	if s.Stats() != stats {
		t.Fatal("stats is not side effect free")
	}
}

func TestStoreSanitizesConfig(t *testing.T) {
	s := New[int](Config{MaxElements: -1, MaxAge: -time.Second, MaxLoadFactor: -2, SizeHint: -5, ReadPolicy: 9})
	if s.MaxElements() != 0 || s.MaxAge() != 0 {
		t.Fatalf("bounds not sanitized: %d %v", s.MaxElements(), s.MaxAge())
	}
	if s.policy != DefaultConfig.ReadPolicy {
		t.Fatalf("read policy not sanitized: %v", s.policy)
	}
	if lf := s.Stats().MaxLoadFactor; lf != DefaultConfig.MaxLoadFactor {
		t.Fatalf("load factor not sanitized: %v", lf)
	}
}

func TestStoreRandomOperations(t *testing.T) {
	s, clock, rel := newTestStore(Config{MaxElements: 16, MaxAge: 50 * time.Millisecond})
	rng := rand.New(rand.NewSource(1))

	stored := 0
	for i := 0; i < 5000; i++ {
		key := fmt.Sprint(rng.Intn(40))
		switch op := rng.Intn(10); {
		case op < 5:
			stored++
			s.Set(key, stored)
		case op < 8:
			s.Get(key)
		case op < 9:
			s.Remove(key)
		default:
			switch rng.Intn(4) {
			case 0:
				s.SetMaxElements(rng.Intn(20))
			case 1:
				s.SetMaxAge(time.Duration(rng.Intn(80)) * time.Millisecond)
			case 2:
				s.Sweep()
			case 3:
				clock.Run(time.Duration(rng.Intn(30)) * time.Millisecond)
			}
		}
		checkInvariants(t, s)
	}
	s.Close()
	if len(rel.released) != stored {
		t.Fatalf("stored %d values, released %d", stored, len(rel.released))
	}
	values := mapset.NewThreadUnsafeSet[int]()
	for _, r := range rel.released {
		if !values.Add(r.value) {
			t.Fatalf("value %d released twice", r.value)
		}
	}
}
