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

package utils

import (
	"reflect"
	"testing"
	"time"

	"github.com/lrunative/lrucache/common/lru"
	"github.com/lrunative/lrucache/metrics"
	"github.com/urfave/cli/v2"
)

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"  ", nil},
		{"a,b", []string{"a", "b"}},
		{" a , , b ,", []string{"a", "b"}},
	}
	for _, test := range tests {
		if have := SplitAndTrim(test.input); !reflect.DeepEqual(have, test.want) {
			t.Errorf("SplitAndTrim(%q) = %q, want %q", test.input, have, test.want)
		}
	}
}

func runWithFlags(t *testing.T, args []string, fn func(ctx *cli.Context)) {
	t.Helper()
	app := cli.NewApp()
	app.Flags = append(append([]cli.Flag{}, CacheFlags...), MetricsFlags...)
	app.Action = func(ctx *cli.Context) error {
		fn(ctx)
		return nil
	}
	if err := app.Run(append([]string{"lrucache"}, args...)); err != nil {
		t.Fatalf("app failed: %v", err)
	}
}

func TestSetCacheConfig(t *testing.T) {
	runWithFlags(t, []string{
		"--cache.maxelements", "500",
		"--cache.maxage", "1m30s",
		"--cache.loadfactor", "0.5",
		"--cache.size", "200",
		"--cache.readpolicy", "none",
	}, func(ctx *cli.Context) {
		cfg := lru.DefaultConfig
		SetCacheConfig(ctx, &cfg)

		want := lru.Config{
			MaxElements:   500,
			MaxAge:        90 * time.Second,
			MaxLoadFactor: 0.5,
			SizeHint:      200,
			ReadPolicy:    lru.TouchNone,
		}
		if cfg != want {
			t.Errorf("config mismatch: have %+v, want %+v", cfg, want)
		}
	})
}

func TestSetCacheConfigKeepsUnsetFields(t *testing.T) {
	runWithFlags(t, []string{"--cache.maxelements", "7"}, func(ctx *cli.Context) {
		cfg := lru.Config{MaxAge: time.Second, MaxLoadFactor: 2, ReadPolicy: lru.TouchAll}
		SetCacheConfig(ctx, &cfg)

		want := lru.Config{MaxElements: 7, MaxAge: time.Second, MaxLoadFactor: 2, ReadPolicy: lru.TouchAll}
		if cfg != want {
			t.Errorf("config mismatch: have %+v, want %+v", cfg, want)
		}
	})
}

func TestSetMetricsConfig(t *testing.T) {
	runWithFlags(t, []string{
		"--metrics.addr", "0.0.0.0",
		"--metrics.port", "9100",
		"--metrics.corsdomain", "https://a.example, https://b.example",
	}, func(ctx *cli.Context) {
		cfg := metrics.DefaultConfig
		SetMetricsConfig(ctx, &cfg)

		if !cfg.Enabled {
			t.Error("metrics address did not enable metrics")
		}
		if cfg.HTTP != "0.0.0.0" || cfg.Port != 9100 {
			t.Errorf("endpoint mismatch: have %s:%d", cfg.HTTP, cfg.Port)
		}
		if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.CORS, want) {
			t.Errorf("cors mismatch: have %q, want %q", cfg.CORS, want)
		}
	})
}
