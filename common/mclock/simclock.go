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

package mclock

import (
	"sync"
	"time"
)

// Simulated implements a virtual Clock for reproducible time-sensitive tests. It
// only advances when Run or Sleep is called.
//
// The zero value is a valid clock starting at time zero.
type Simulated struct {
	now AbsTime
	mu  sync.RWMutex
}

// Run moves the clock forward by the given duration. Negative durations are ignored.
func (s *Simulated) Run(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}

// Set moves the clock to the given absolute time. The clock never goes backwards,
// times before the current time are ignored.
func (s *Simulated) Set(t AbsTime) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t > s.now {
		s.now = t
	}
}

// Now returns the current virtual time.
func (s *Simulated) Now() AbsTime {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.now
}

// Sleep advances the clock by d instead of blocking.
func (s *Simulated) Sleep(d time.Duration) {
	s.Run(d)
}
