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

// Stats is a point-in-time snapshot of a store's occupancy and counters.
type Stats struct {
	Size          int     // Number of live entries
	Buckets       int     // Bucket count of the hash index
	LoadFactor    float64 // Size / Buckets
	MaxLoadFactor float64 // Load factor above which the index grows

	Evictions   uint64 // Entries dropped to honor the capacity bound
	Expirations uint64 // Entries dropped because they outlived the max age
	Hits        uint64 // Get calls that returned a value
	Misses      uint64 // Get calls that found nothing, or only an expired entry
}

// statsCounter accumulates the cumulative counters of a store. None of them
// are reset by Clear.
type statsCounter struct {
	evictions   uint64
	expirations uint64
	hits        uint64
	misses      uint64
}
