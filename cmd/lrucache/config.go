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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"reflect"
	"unicode"

	"github.com/lrunative/lrucache/cmd/utils"
	"github.com/lrunative/lrucache/common/lru"
	"github.com/lrunative/lrucache/host"
	"github.com/lrunative/lrucache/log"
	"github.com/lrunative/lrucache/metrics"
	"github.com/lrunative/lrucache/metrics/exp"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

var (
	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Export configuration values in a TOML format",
		ArgsUsage:   "<dumpfile (optional)>",
		Flags:       utils.CacheFlags,
		Description: `Export configuration values in TOML format (to stdout by default).`,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type lrucacheConfig struct {
	Cache   lru.Config
	Metrics metrics.Config
}

func loadConfig(file string, cfg *lrucacheConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// loadBaseConfig loads the lrucacheConfig based on the given command line
// parameters and config file.
func loadBaseConfig(ctx *cli.Context) lrucacheConfig {
	// Load defaults.
	cfg := lrucacheConfig{
		Cache:   lru.DefaultConfig,
		Metrics: metrics.DefaultConfig,
	}

	// Load config file.
	if file := ctx.String(utils.ConfigFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			utils.Fatalf("%v", err)
		}
	}

	// Apply flags.
	utils.SetCacheConfig(ctx, &cfg.Cache)
	utils.SetMetricsConfig(ctx, &cfg.Metrics)
	return cfg
}

// makeCache loads the configuration and creates the host cache the commands
// operate on, registering it for metrics reporting if enabled.
func makeCache(ctx *cli.Context) (*host.Cache, lrucacheConfig) {
	cfg := loadBaseConfig(ctx)
	cache := host.NewFromConfig(cfg.Cache)
	log.Debug("Created cache", "maxelements", cfg.Cache.MaxElements, "maxage", cfg.Cache.MaxAge,
		"loadfactor", cfg.Cache.MaxLoadFactor, "policy", cfg.Cache.ReadPolicy)

	startMetrics(cfg.Metrics, "main", cache)
	return cache, cfg
}

// startMetrics registers the cache with the default registry and starts the
// stand-alone metrics server when an address is configured.
func startMetrics(cfg metrics.Config, name string, source metrics.StatsSource) {
	if !cfg.Enabled {
		return
	}
	metrics.Enabled = true
	if err := metrics.Register(name, source); err != nil {
		log.Warn("Failed to register cache metrics", "cache", name, "err", err)
	}
	if cfg.HTTP != "" {
		address := net.JoinHostPort(cfg.HTTP, fmt.Sprintf("%d", cfg.Port))
		exp.Setup(address, metrics.DefaultRegistry, cfg.CORS)
	}
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := loadBaseConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	dump.Write(out)

	return nil
}
