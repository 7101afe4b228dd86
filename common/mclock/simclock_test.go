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
	"testing"
	"time"
)

var _ Clock = System{}
var _ Clock = new(Simulated)

func TestSimulatedRun(t *testing.T) {
	var c Simulated
	if now := c.Now(); now != 0 {
		t.Fatalf("zero clock at %v, want 0", now)
	}
	c.Run(150 * time.Millisecond)
	if ms := c.Now().Milliseconds(); ms != 150 {
		t.Fatalf("wrong time after Run: %dms, want 150ms", ms)
	}
	c.Run(-time.Second)
	if ms := c.Now().Milliseconds(); ms != 150 {
		t.Fatalf("negative Run moved the clock: %dms", ms)
	}
	c.Sleep(50 * time.Millisecond)
	if ms := c.Now().Milliseconds(); ms != 200 {
		t.Fatalf("wrong time after Sleep: %dms, want 200ms", ms)
	}
}

func TestSimulatedSet(t *testing.T) {
	var c Simulated
	c.Set(AbsTime(time.Second))
	if c.Now() != AbsTime(time.Second) {
		t.Fatalf("Set did not move clock: %v", c.Now())
	}
	c.Set(AbsTime(time.Millisecond))
	if c.Now() != AbsTime(time.Second) {
		t.Fatalf("Set moved clock backwards: %v", c.Now())
	}
}

func TestAbsTimeArithmetic(t *testing.T) {
	start := AbsTime(10 * time.Millisecond)
	end := start.Add(90 * time.Millisecond)
	if d := end.Sub(start); d != 90*time.Millisecond {
		t.Fatalf("Sub = %v, want 90ms", d)
	}
	if ms := end.Milliseconds(); ms != 100 {
		t.Fatalf("Milliseconds = %d, want 100", ms)
	}
}
