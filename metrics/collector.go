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

// Package metrics exports cache statistics to Prometheus.
package metrics

import (
	"github.com/lrunative/lrucache/common/lru"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by this package.
const Namespace = "lrucache"

// StatsSource is anything able to report a statistics snapshot, such as a
// locked lru.Cache or a host.Cache. The source must be safe to call from the
// scraping goroutine.
type StatsSource interface {
	Stats() lru.Stats
}

// CacheCollector reads a cache's statistics on every scrape. Sizes are exported
// as gauges, the cumulative counters as counters.
type CacheCollector struct {
	source StatsSource

	size          *prometheus.Desc
	buckets       *prometheus.Desc
	loadFactor    *prometheus.Desc
	maxLoadFactor *prometheus.Desc
	evictions     *prometheus.Desc
	expirations   *prometheus.Desc
	hits          *prometheus.Desc
	misses        *prometheus.Desc
}

// NewCacheCollector creates a collector for source. The name is attached to
// every sample as the cache label, so several caches can share a registry.
func NewCacheCollector(name string, source StatsSource) *CacheCollector {
	labels := prometheus.Labels{"cache": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(Namespace, "", metric), help, nil, labels)
	}
	return &CacheCollector{
		source:        source,
		size:          desc("entries", "Number of entries held by the cache"),
		buckets:       desc("buckets", "Bucket count of the cache's hash index"),
		loadFactor:    desc("load_factor", "Entries per bucket of the cache's hash index"),
		maxLoadFactor: desc("max_load_factor", "Load factor above which the hash index grows"),
		evictions:     desc("evictions_total", "Entries evicted to honor the capacity bound"),
		expirations:   desc("expirations_total", "Entries dropped after outliving the max age"),
		hits:          desc("hits_total", "Lookups that returned a value"),
		misses:        desc("misses_total", "Lookups that found no live entry"),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.buckets
	ch <- c.loadFactor
	ch <- c.maxLoadFactor
	ch <- c.evictions
	ch <- c.expirations
	ch <- c.hits
	ch <- c.misses
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(stats.Size))
	ch <- prometheus.MustNewConstMetric(c.buckets, prometheus.GaugeValue, float64(stats.Buckets))
	ch <- prometheus.MustNewConstMetric(c.loadFactor, prometheus.GaugeValue, stats.LoadFactor)
	ch <- prometheus.MustNewConstMetric(c.maxLoadFactor, prometheus.GaugeValue, stats.MaxLoadFactor)
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(stats.Evictions))
	ch <- prometheus.MustNewConstMetric(c.expirations, prometheus.CounterValue, float64(stats.Expirations))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(stats.Misses))
}
