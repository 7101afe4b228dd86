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
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheConcurrentAccess(t *testing.T) {
	var released atomic.Int64
	c := NewCache(Config{MaxElements: 64}, WithReleaseFunc(func(string, int, Reason) {
		released.Add(1)
	}))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				key := fmt.Sprintf("%d-%d", w, i%100)
				c.Set(key, i)
				c.Get(key)
				if i%7 == 0 {
					c.Remove(key)
				}
				c.Stats()
			}
		}(w)
	}
	wg.Wait()

	if n := c.Len(); n > 64 {
		t.Fatalf("bound exceeded: %d entries", n)
	}
	stored := c.Len()
	c.Close()
	if released.Load() != 8*1000 {
		t.Fatalf("released %d of %d values (%d were still stored)", released.Load(), 8*1000, stored)
	}
}

func TestCacheDelegates(t *testing.T) {
	c := NewCache[string](Config{})
	c.Set("a", "x")
	c.Set("b", "y")
	c.SetMaxElements(1)
	c.SetMaxAge(time.Minute)

	if c.MaxElements() != 1 || c.MaxAge() != time.Minute {
		t.Fatalf("settings not applied: %d %v", c.MaxElements(), c.MaxAge())
	}
	if c.Contains("a") {
		t.Fatal("a not evicted")
	}
	if v, ok := c.Peek("b"); !ok || v != "y" {
		t.Fatalf("wrong value %q, %v", v, ok)
	}
	if keys := c.Keys(); len(keys) != 1 || keys[0] != "b" {
		t.Fatalf("wrong keys %v", keys)
	}
	if n := c.Sweep(); n != 0 {
		t.Fatalf("swept live entries: %d", n)
	}
	c.Clear()
	if _, ok := c.Get("b"); ok || c.Len() != 0 {
		t.Fatal("cache not empty after clear")
	}
}
