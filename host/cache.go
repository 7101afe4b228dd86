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

// Package host exposes an lru store to dynamically typed callers. Every call is
// checked for argument count and type before the store is entered.
package host

import (
	"fmt"
	"sort"

	"github.com/lrunative/lrucache/common/lru"
	"github.com/lrunative/lrucache/log"
)

// Releaser is implemented by values holding a resource that must be handed back
// once the cache lets go of them.
type Releaser interface {
	Release()
}

// Cache is a store of opaque host values keyed by string. It is safe for
// concurrent use.
type Cache struct {
	cache *lru.Cache[any]
}

// Names of the options recognised by New.
const (
	OptMaxElements   = "maxElements"
	OptMaxAge        = "maxAge"
	OptMaxLoadFactor = "maxLoadFactor"
	OptSize          = "size"
	OptReadPolicy    = "readPolicy"
)

// New creates a cache from a host options object. Options that are missing or
// of the wrong type keep their defaults. Values implementing Releaser are
// released whenever the cache drops them.
func New(options map[string]any, opts ...lru.Option[any]) *Cache {
	config := ConfigFromOptions(options)
	opts = append([]lru.Option[any]{lru.WithReleaseFunc(releaseValue)}, opts...)
	return &Cache{cache: lru.NewCache(config, opts...)}
}

// NewFromConfig creates a cache from an already parsed configuration.
func NewFromConfig(config lru.Config, opts ...lru.Option[any]) *Cache {
	opts = append([]lru.Option[any]{lru.WithReleaseFunc(releaseValue)}, opts...)
	return &Cache{cache: lru.NewCache(config, opts...)}
}

// ConfigFromOptions converts a host options object into a store configuration.
func ConfigFromOptions(options map[string]any) lru.Config {
	config := lru.DefaultConfig
	for name, value := range options {
		var ok bool
		switch name {
		case OptMaxElements:
			var n uint32
			if n, ok = toUint32(value); ok {
				config.MaxElements = int(n)
			}
		case OptMaxAge:
			var n uint32
			if n, ok = toUint32(value); ok {
				config.MaxAge, _ = toMillis(n)
			}
		case OptMaxLoadFactor:
			var f float64
			if f, ok = toNumber(value); ok && f > 0 {
				config.MaxLoadFactor = f
			} else {
				ok = false
			}
		case OptSize:
			var n uint32
			if n, ok = toUint32(value); ok {
				config.SizeHint = int(n)
			}
		case OptReadPolicy:
			var s string
			if s, ok = value.(string); ok {
				ok = config.ReadPolicy.UnmarshalText([]byte(s)) == nil
			}
		default:
			log.Debug("Ignoring unknown cache option", "name", name)
			continue
		}
		if !ok {
			log.Debug("Ignoring invalid cache option", "name", name, "value", value)
		}
	}
	return config
}

func releaseValue(key string, value any, reason lru.Reason) {
	if r, ok := value.(Releaser); ok {
		r.Release()
	}
	log.Trace("Released cache value", "key", key, "reason", reason)
}

// Methods lists the operations accepted by Call.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type method struct {
	arity int
	call  func(c *Cache, name string, args []any) (any, error)
}

var methods = map[string]method{
	"get":            {1, (*Cache).get},
	"set":            {2, (*Cache).set},
	"remove":         {1, (*Cache).remove},
	"clear":          {0, (*Cache).clear},
	"size":           {0, (*Cache).size},
	"stats":          {0, (*Cache).stats},
	"setMaxAge":      {1, (*Cache).setMaxAge},
	"setMaxElements": {1, (*Cache).setMaxElements},
}

// Call invokes the named cache operation. Argument errors are reported as
// *ArgumentError without touching the cache. A get on a missing key returns
// nil without error.
func (c *Cache) Call(name string, args ...any) (any, error) {
	m, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	if len(args) != m.arity {
		return nil, arityError(name, m.arity)
	}
	return m.call(c, name, args)
}

func (c *Cache) get(name string, args []any) (any, error) {
	key, ok := toKey(args[0])
	if !ok {
		return nil, typeError(name, 1, "a string key", args[0])
	}
	value, _ := c.cache.Get(key)
	return value, nil
}

func (c *Cache) set(name string, args []any) (any, error) {
	key, ok := toKey(args[0])
	if !ok {
		return nil, typeError(name, 1, "a string key", args[0])
	}
	// A nil value would read back as a miss.
	if args[1] == nil {
		return nil, typeError(name, 2, "a value", args[1])
	}
	c.cache.Set(key, args[1])
	return nil, nil
}

func (c *Cache) remove(name string, args []any) (any, error) {
	key, ok := toKey(args[0])
	if !ok {
		return nil, typeError(name, 1, "a string key", args[0])
	}
	c.cache.Remove(key)
	return nil, nil
}

func (c *Cache) clear(string, []any) (any, error) {
	c.cache.Clear()
	return nil, nil
}

func (c *Cache) size(string, []any) (any, error) {
	return c.cache.Len(), nil
}

func (c *Cache) stats(string, []any) (any, error) {
	stats := c.cache.Stats()
	return map[string]any{
		"size":          stats.Size,
		"buckets":       stats.Buckets,
		"loadFactor":    stats.LoadFactor,
		"maxLoadFactor": stats.MaxLoadFactor,
		"evictions":     stats.Evictions,
		"expirations":   stats.Expirations,
		"hits":          stats.Hits,
		"misses":        stats.Misses,
	}, nil
}

func (c *Cache) setMaxAge(name string, args []any) (any, error) {
	age, ok := toMillis(args[0])
	if !ok {
		return nil, typeError(name, 1, "a number of milliseconds", args[0])
	}
	c.cache.SetMaxAge(age)
	return nil, nil
}

func (c *Cache) setMaxElements(name string, args []any) (any, error) {
	n, ok := toCount(args[0])
	if !ok {
		return nil, typeError(name, 1, "a number", args[0])
	}
	c.cache.SetMaxElements(n)
	return nil, nil
}

// Stats returns a snapshot of the underlying store's statistics.
func (c *Cache) Stats() lru.Stats {
	return c.cache.Stats()
}

// Close releases every value still held by the cache.
func (c *Cache) Close() {
	c.cache.Close()
}
