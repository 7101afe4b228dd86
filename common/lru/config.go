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
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lrunative/lrucache/log"
)

// ReadPolicy selects what a successful Get does to the entry it returns.
type ReadPolicy uint8

const (
	// TouchRecency moves the entry to the most recently used position but leaves
	// its timestamp alone, so reads never extend the entry's lifetime.
	TouchRecency ReadPolicy = iota

	// TouchAll moves the entry to the most recently used position and restarts
	// its time-to-live.
	TouchAll

	// TouchNone leaves the entry untouched. Only insertions and overwrites
	// count as use.
	TouchNone
)

var errInvalidReadPolicy = errors.New("invalid read policy")

func (p ReadPolicy) String() string {
	switch p {
	case TouchRecency:
		return "recency"
	case TouchAll:
		return "all"
	case TouchNone:
		return "none"
	default:
		return fmt.Sprintf("ReadPolicy(%d)", uint8(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p ReadPolicy) MarshalText() ([]byte, error) {
	switch p {
	case TouchRecency, TouchAll, TouchNone:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("%w %d", errInvalidReadPolicy, p)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ReadPolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "recency":
		*p = TouchRecency
	case "all":
		*p = TouchAll
	case "none":
		*p = TouchNone
	default:
		return fmt.Errorf(`%w %q, want "recency", "all" or "none"`, errInvalidReadPolicy, text)
	}
	return nil
}

// Config contains the construction parameters of a Store.
type Config struct {
	MaxElements   int           // Capacity bound, 0 means unbounded
	MaxAge        time.Duration // Entry time-to-live, 0 disables expiry
	MaxLoadFactor float64       // Growth threshold of the hash index, 0 selects the default
	SizeHint      int           // Number of entries to pre-size the index for
	ReadPolicy    ReadPolicy    // Effect of a successful Get on the entry
}

// DefaultConfig contains the default settings: an unbounded cache without
// expiry whose reads refresh recency but not age.
var DefaultConfig = Config{
	MaxLoadFactor: 1.0,
	ReadPolicy:    TouchRecency,
}

var (
	errNegativeMaxElements = errors.New("max elements must not be negative")
	errNegativeMaxAge      = errors.New("max age must not be negative")
	errBadLoadFactor       = errors.New("max load factor must be a positive number")
	errNegativeSizeHint    = errors.New("size hint must not be negative")
)

// Validate reports the first invalid setting in the config.
func (c Config) Validate() error {
	switch {
	case c.MaxElements < 0:
		return fmt.Errorf("%w: %d", errNegativeMaxElements, c.MaxElements)
	case c.MaxAge < 0:
		return fmt.Errorf("%w: %v", errNegativeMaxAge, c.MaxAge)
	case c.MaxLoadFactor != 0 && !validLoadFactor(c.MaxLoadFactor):
		return fmt.Errorf("%w: %v", errBadLoadFactor, c.MaxLoadFactor)
	case c.SizeHint < 0:
		return fmt.Errorf("%w: %d", errNegativeSizeHint, c.SizeHint)
	}
	if _, err := c.ReadPolicy.MarshalText(); err != nil {
		return err
	}
	return nil
}

func validLoadFactor(f float64) bool {
	return f > 0 && !math.IsInf(f, 1) && !math.IsNaN(f)
}

// sanitize checks the provided user configurations and changes anything that's
// unreasonable or unworkable.
func (c Config) sanitize() Config {
	if c.MaxElements < 0 {
		log.Warn("Sanitizing invalid lru cache max elements", "provided", c.MaxElements, "updated", 0)
		c.MaxElements = 0
	}
	if c.MaxAge < 0 {
		log.Warn("Sanitizing invalid lru cache max age", "provided", c.MaxAge, "updated", time.Duration(0))
		c.MaxAge = 0
	}
	if c.MaxLoadFactor == 0 {
		c.MaxLoadFactor = DefaultConfig.MaxLoadFactor
	} else if !validLoadFactor(c.MaxLoadFactor) {
		log.Warn("Sanitizing invalid lru cache max load factor", "provided", c.MaxLoadFactor, "updated", DefaultConfig.MaxLoadFactor)
		c.MaxLoadFactor = DefaultConfig.MaxLoadFactor
	}
	if c.SizeHint < 0 {
		log.Warn("Sanitizing invalid lru cache size hint", "provided", c.SizeHint, "updated", 0)
		c.SizeHint = 0
	}
	if c.ReadPolicy > TouchNone {
		log.Warn("Sanitizing invalid lru cache read policy", "provided", c.ReadPolicy, "updated", DefaultConfig.ReadPolicy)
		c.ReadPolicy = DefaultConfig.ReadPolicy
	}
	return c
}
