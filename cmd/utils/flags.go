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

// Package utils contains internal helper functions for lrucache commands.
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/lrunative/lrucache/common/lru"
	"github.com/lrunative/lrucache/internal/flags"
	"github.com/lrunative/lrucache/log"
	"github.com/lrunative/lrucache/metrics"
	"github.com/urfave/cli/v2"
)

var readPolicy = lru.DefaultConfig.ReadPolicy

var (
	// Cache settings
	CacheMaxElementsFlag = &cli.IntFlag{
		Name:     "cache.maxelements",
		Usage:    "Maximum number of entries held by the cache (0 = unbounded)",
		Value:    lru.DefaultConfig.MaxElements,
		Category: flags.CacheCategory,
	}
	CacheMaxAgeFlag = &cli.DurationFlag{
		Name:     "cache.maxage",
		Usage:    "Maximum age of an entry before it expires (0 = never)",
		Value:    lru.DefaultConfig.MaxAge,
		Category: flags.CacheCategory,
	}
	CacheLoadFactorFlag = &cli.Float64Flag{
		Name:     "cache.loadfactor",
		Usage:    "Maximum load factor of the hash index before it grows",
		Value:    lru.DefaultConfig.MaxLoadFactor,
		Category: flags.CacheCategory,
	}
	CacheSizeHintFlag = &cli.IntFlag{
		Name:     "cache.size",
		Usage:    "Expected number of entries, used to pre-size the hash index",
		Value:    lru.DefaultConfig.SizeHint,
		Category: flags.CacheCategory,
	}
	CacheReadPolicyFlag = &flags.TextMarshalerFlag{
		Name:     "cache.readpolicy",
		Usage:    "What a successful read refreshes (recency|all|none)",
		Value:    &readPolicy,
		Category: flags.CacheCategory,
	}

	// Metrics settings
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting",
		Category: flags.MetricsCategory,
	}
	// MetricsHTTPFlag defines the endpoint for a stand-alone metrics HTTP endpoint.
	// Since the pprof service enables sensitive/vulnerable behavior, this allows a user
	// to enable a public-OK metrics endpoint without having to worry about ALSO exposing
	// other profiling behavior or information.
	MetricsHTTPFlag = &cli.StringFlag{
		Name:     "metrics.addr",
		Usage:    "Enable stand-alone metrics HTTP server listening interface.",
		Category: flags.MetricsCategory,
	}
	MetricsPortFlag = &cli.IntFlag{
		Name:     "metrics.port",
		Usage:    "Metrics HTTP server listening port.\nPlease note that --metrics.addr must be set to start the server.",
		Value:    metrics.DefaultConfig.Port,
		Category: flags.MetricsCategory,
	}

	MetricsCORSFlag = &cli.StringFlag{
		Name:     "metrics.corsdomain",
		Usage:    "Comma separated list of domains from which to accept cross origin requests to the metrics server (browser enforced)",
		Category: flags.MetricsCategory,
	}

	// Misc settings
	ConfigFileFlag = &flags.PathFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}
	DataDirFlag = &flags.PathFlag{
		Name:     "datadir",
		Usage:    "Data directory for the console history",
		Value:    flags.PathString(DefaultDataDir()),
		Category: flags.MiscCategory,
	}
)

// DefaultDataDir is the default data directory to use for the console history.
func DefaultDataDir() string {
	if home := flags.HomeDir(); home != "" {
		return filepath.Join(home, ".lrucache")
	}
	return ""
}

var (
	// CacheFlags is the flag group of all cache settings.
	CacheFlags = []cli.Flag{
		CacheMaxElementsFlag,
		CacheMaxAgeFlag,
		CacheLoadFactorFlag,
		CacheSizeHintFlag,
		CacheReadPolicyFlag,
	}
	// MetricsFlags is the flag group of all metrics settings.
	MetricsFlags = []cli.Flag{
		MetricsEnabledFlag,
		MetricsHTTPFlag,
		MetricsPortFlag,
		MetricsCORSFlag,
	}
)

// SetCacheConfig applies cache-related command line flags to the config.
func SetCacheConfig(ctx *cli.Context, cfg *lru.Config) {
	if ctx.IsSet(CacheMaxElementsFlag.Name) {
		cfg.MaxElements = ctx.Int(CacheMaxElementsFlag.Name)
	}
	if ctx.IsSet(CacheMaxAgeFlag.Name) {
		cfg.MaxAge = ctx.Duration(CacheMaxAgeFlag.Name)
	}
	if ctx.IsSet(CacheLoadFactorFlag.Name) {
		cfg.MaxLoadFactor = ctx.Float64(CacheLoadFactorFlag.Name)
	}
	if ctx.IsSet(CacheSizeHintFlag.Name) {
		cfg.SizeHint = ctx.Int(CacheSizeHintFlag.Name)
	}
	if ctx.IsSet(CacheReadPolicyFlag.Name) {
		cfg.ReadPolicy = *flags.GlobalTextMarshaler(ctx, CacheReadPolicyFlag.Name).(*lru.ReadPolicy)
	}
	if err := cfg.Validate(); err != nil {
		Fatalf("Invalid cache configuration: %v", err)
	}
}

// SetMetricsConfig applies metrics-related command line flags to the config.
func SetMetricsConfig(ctx *cli.Context, cfg *metrics.Config) {
	if ctx.IsSet(MetricsEnabledFlag.Name) {
		cfg.Enabled = ctx.Bool(MetricsEnabledFlag.Name)
	}
	if ctx.IsSet(MetricsHTTPFlag.Name) {
		cfg.HTTP = ctx.String(MetricsHTTPFlag.Name)
	}
	if ctx.IsSet(MetricsPortFlag.Name) {
		cfg.Port = ctx.Int(MetricsPortFlag.Name)
	}
	if ctx.IsSet(MetricsCORSFlag.Name) {
		cfg.CORS = SplitAndTrim(ctx.String(MetricsCORSFlag.Name))
	}
	if cfg.HTTP != "" && !cfg.Enabled && ctx.IsSet(MetricsHTTPFlag.Name) {
		log.Warn("Metrics server address set without --metrics, enabling metrics")
		cfg.Enabled = true
	}
}

// SplitAndTrim splits input separated by a comma
// and trims excessive white space from the substrings.
func SplitAndTrim(input string) (ret []string) {
	l := strings.Split(input, ",")
	for _, r := range l {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}
