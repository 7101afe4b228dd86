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

package metrics

import (
	"strings"
	"testing"

	"github.com/lrunative/lrucache/common/lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheCollector(t *testing.T) {
	cache := lru.NewCache[int](lru.Config{MaxElements: 2})
	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("c", 3)
	cache.Get("c")
	cache.Get("a")

	collector := NewCacheCollector("test", cache)
	assert.Equal(t, 8, testutil.CollectAndCount(collector))

	expected := `
# HELP lrucache_entries Number of entries held by the cache
# TYPE lrucache_entries gauge
lrucache_entries{cache="test"} 2
# HELP lrucache_evictions_total Entries evicted to honor the capacity bound
# TYPE lrucache_evictions_total counter
lrucache_evictions_total{cache="test"} 1
# HELP lrucache_hits_total Lookups that returned a value
# TYPE lrucache_hits_total counter
lrucache_hits_total{cache="test"} 1
# HELP lrucache_misses_total Lookups that found no live entry
# TYPE lrucache_misses_total counter
lrucache_misses_total{cache="test"} 1
`
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"lrucache_entries", "lrucache_evictions_total", "lrucache_hits_total", "lrucache_misses_total")
	require.NoError(t, err)
}

func TestCacheCollectorRegistry(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCacheCollector("one", lru.NewCache[int](lru.DefaultConfig))))
	require.NoError(t, reg.Register(NewCacheCollector("two", lru.NewCache[int](lru.DefaultConfig))))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 8)
	for _, family := range families {
		assert.Len(t, family.GetMetric(), 2, family.GetName())
	}
	// Registering the same cache name twice is rejected.
	assert.Error(t, reg.Register(NewCacheCollector("one", lru.NewCache[int](lru.DefaultConfig))))
}

func TestDefaultRegistry(t *testing.T) {
	reg := NewRegistry()
	cache := lru.NewCache[int](lru.DefaultConfig)
	cache.Set("a", 1)
	require.NoError(t, reg.Register(NewCacheCollector("default", cache)))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["lrucache_entries"])
	assert.True(t, names["go_goroutines"])
}
