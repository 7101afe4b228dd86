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
	"math"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		config Config
		err    error
	}{
		{DefaultConfig, nil},
		{Config{}, nil},
		{Config{MaxElements: 10, MaxAge: time.Minute, MaxLoadFactor: 0.75, SizeHint: 10, ReadPolicy: TouchNone}, nil},
		{Config{MaxElements: -1}, errNegativeMaxElements},
		{Config{MaxAge: -time.Second}, errNegativeMaxAge},
		{Config{MaxLoadFactor: -1}, errBadLoadFactor},
		{Config{MaxLoadFactor: math.NaN()}, errBadLoadFactor},
		{Config{MaxLoadFactor: math.Inf(1)}, errBadLoadFactor},
		{Config{SizeHint: -1}, errNegativeSizeHint},
		{Config{ReadPolicy: 3}, errInvalidReadPolicy},
	}
	for i, tt := range tests {
		err := tt.config.Validate()
		if !errors.Is(err, tt.err) {
			t.Errorf("test %d: have error %v, want %v", i, err, tt.err)
		}
	}
}

func TestReadPolicyText(t *testing.T) {
	for _, text := range []string{"recency", "all", "none"} {
		var p ReadPolicy
		if err := p.UnmarshalText([]byte(text)); err != nil {
			t.Fatalf("failed to parse %q: %v", text, err)
		}
		out, err := p.MarshalText()
		if err != nil || string(out) != text {
			t.Fatalf("policy %q encoded as %q, %v", text, out, err)
		}
	}
	var p ReadPolicy
	if err := p.UnmarshalText([]byte("sometimes")); !errors.Is(err, errInvalidReadPolicy) {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := ReadPolicy(7).MarshalText(); err == nil {
		t.Fatal("encoded an unknown policy")
	}
}
