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
	"github.com/prometheus/client_golang/prometheus"
)

// Enabled is checked by the command line before a metrics server is started.
var Enabled = false

// DefaultRegistry is the registry served by the metrics endpoints. It carries
// the Go runtime and process collectors next to every registered cache.
var DefaultRegistry = NewRegistry()

// NewRegistry returns a registry preloaded with the runtime collectors.
func NewRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(prometheus.NewGoCollector())
	r.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: Namespace}))
	return r
}

// Register attaches a cache collector for source to the default registry.
func Register(name string, source StatsSource) error {
	return DefaultRegistry.Register(NewCacheCollector(name, source))
}

// Unregister detaches a collector registered with Register.
func Unregister(c prometheus.Collector) bool {
	return DefaultRegistry.Unregister(c)
}
