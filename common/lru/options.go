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

	"github.com/lrunative/lrucache/common/mclock"
)

// Reason tells a ReleaseFunc why the store let go of a value.
type Reason uint8

const (
	Evicted  Reason = iota // dropped to make room under the capacity bound
	Expired                // outlived the max age, found by Get or a sweep
	Removed                // explicit Remove
	Replaced               // overwritten by Set on the same key
	Cleared                // dropped by Clear
	Closed                 // dropped by Close
)

func (r Reason) String() string {
	switch r {
	case Evicted:
		return "evicted"
	case Expired:
		return "expired"
	case Removed:
		return "removed"
	case Replaced:
		return "replaced"
	case Cleared:
		return "cleared"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("Reason(%d)", uint8(r))
	}
}

// ReleaseFunc is invoked exactly once for every value the store gives up, after
// the entry has been unlinked. It must not call back into the store.
type ReleaseFunc[V any] func(key string, value V, reason Reason)

// Option configures optional collaborators of a Store.
type Option[V any] func(*Store[V])

// WithClock replaces the system monotonic clock, mostly for tests.
func WithClock[V any](clock mclock.Clock) Option[V] {
	return func(s *Store[V]) {
		s.clock = clock
	}
}

// WithReleaseFunc registers the callback taking ownership of dropped values.
func WithReleaseFunc[V any](fn ReleaseFunc[V]) Option[V] {
	return func(s *Store[V]) {
		s.release = fn
	}
}
