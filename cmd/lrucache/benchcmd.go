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
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/google/uuid"
	"github.com/lrunative/lrucache/cmd/utils"
	"github.com/lrunative/lrucache/common/lru"
	"github.com/lrunative/lrucache/internal/debug"
	"github.com/lrunative/lrucache/internal/flags"
	"github.com/lrunative/lrucache/log"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/process"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	benchOpsFlag = &cli.IntFlag{
		Name:     "bench.ops",
		Usage:    "Total number of cache operations to run",
		Value:    1_000_000,
		Category: flags.BenchCategory,
	}
	benchKeysFlag = &cli.IntFlag{
		Name:     "bench.keys",
		Usage:    "Number of distinct keys the operations are spread over",
		Value:    10_000,
		Category: flags.BenchCategory,
	}
	benchReadsFlag = &cli.Float64Flag{
		Name:     "bench.reads",
		Usage:    "Fraction of the operations that are reads (0-1)",
		Value:    0.8,
		Category: flags.BenchCategory,
	}
	benchWorkersFlag = &cli.IntFlag{
		Name:     "bench.workers",
		Usage:    "Number of goroutines issuing operations concurrently",
		Value:    runtime.NumCPU(),
		Category: flags.BenchCategory,
	}
	benchRateFlag = &cli.IntFlag{
		Name:     "bench.rate",
		Usage:    "Maximum operations per second across all workers (0 = unlimited)",
		Category: flags.BenchCategory,
	}
	benchSeedFlag = &cli.Int64Flag{
		Name:     "bench.seed",
		Usage:    "Seed of the key and operation generator",
		Value:    1,
		Category: flags.BenchCategory,
	}
	benchKeyFormatFlag = &cli.StringFlag{
		Name:     "bench.keyformat",
		Usage:    "Shape of the generated keys (int|uuid)",
		Value:    "int",
		Category: flags.BenchCategory,
	}
	benchTargetFlag = &cli.StringFlag{
		Name:     "bench.target",
		Usage:    "Cache implementation to run the workload against (lru|fastcache)",
		Value:    "lru",
		Category: flags.BenchCategory,
	}
	benchMemProfileFlag = &flags.PathFlag{
		Name:     "bench.memprofile",
		Usage:    "Write an allocation profile to the given file after the run",
		Category: flags.BenchCategory,
	}

	benchCommand = &cli.Command{
		Action: benchmark,
		Name:   "bench",
		Usage:  "Run a synthetic read/write workload against the cache",
		Flags: flags.Merge(utils.CacheFlags, []cli.Flag{
			benchOpsFlag,
			benchKeysFlag,
			benchReadsFlag,
			benchWorkersFlag,
			benchRateFlag,
			benchSeedFlag,
			benchKeyFormatFlag,
			benchTargetFlag,
			benchMemProfileFlag,
		}),
		Description: `
The bench command hammers a concurrent cache with a mix of random reads and
writes and reports throughput, hit ratio and the eviction/expiry counters.
Setting --bench.target fastcache runs the same workload against fastcache as a
baseline; fastcache has no capacity bound in entries and no expiry.`,
	}
)

// benchConfig describes a synthetic workload.
type benchConfig struct {
	Ops       int
	Keys      int
	Reads     float64
	Workers   int
	Rate      int
	Seed      int64
	KeyFormat string
}

// benchResult aggregates the counters of every worker.
type benchResult struct {
	Reads    uint64
	Writes   uint64
	Hits     uint64
	Elapsed  time.Duration
	Stats    lru.Stats
	RSS      uint64 // resident set size after the run, 0 if unknown
	Canceled bool
}

func (r benchResult) ops() uint64 { return r.Reads + r.Writes }

func (r benchResult) hitRatio() float64 {
	if r.Reads == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Reads)
}

// benchTarget is a cache the workload can run against.
type benchTarget interface {
	Get(key string) bool
	Set(key string, value int)
	Stats() lru.Stats
	Close()
}

type lruTarget struct {
	cache *lru.Cache[int]
}

func (t lruTarget) Get(key string) bool {
	_, ok := t.cache.Get(key)
	return ok
}

func (t lruTarget) Set(key string, value int) { t.cache.Set(key, value) }
func (t lruTarget) Stats() lru.Stats          { return t.cache.Stats() }
func (t lruTarget) Close()                    { t.cache.Close() }

// fastcacheMinBytes is the smallest capacity fastcache allocates anyway.
const fastcacheMinBytes = 32 * 1024 * 1024

type fastcacheTarget struct {
	cache *fastcache.Cache
}

func (t fastcacheTarget) Get(key string) bool {
	_, ok := t.cache.HasGet(nil, []byte(key))
	return ok
}

func (t fastcacheTarget) Set(key string, value int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(value))
	t.cache.Set([]byte(key), buf[:])
}

func (t fastcacheTarget) Stats() lru.Stats {
	var s fastcache.Stats
	t.cache.UpdateStats(&s)
	return lru.Stats{
		Size:   int(s.EntriesCount),
		Hits:   s.GetCalls - s.Misses,
		Misses: s.Misses,
	}
}

func (t fastcacheTarget) Close() { t.cache.Reset() }

func newBenchTarget(name string, cfg lru.Config) (benchTarget, error) {
	switch name {
	case "lru":
		return lruTarget{lru.NewCache[int](cfg)}, nil
	case "fastcache":
		return fastcacheTarget{fastcache.New(fastcacheMinBytes)}, nil
	default:
		return nil, fmt.Errorf("unknown bench target %q", name)
	}
}

// benchKeys generates the key space of the workload.
func benchKeys(cfg benchConfig) ([]string, error) {
	keys := make([]string, cfg.Keys)
	switch cfg.KeyFormat {
	case "", "int":
		for i := range keys {
			keys[i] = strconv.Itoa(i)
		}
	case "uuid":
		rng := rand.New(rand.NewSource(cfg.Seed))
		for i := range keys {
			id, err := uuid.NewRandomFromReader(rng)
			if err != nil {
				return nil, err
			}
			keys[i] = id.String()
		}
	default:
		return nil, fmt.Errorf("invalid --%s: %q", benchKeyFormatFlag.Name, cfg.KeyFormat)
	}
	return keys, nil
}

func benchmark(ctx *cli.Context) error {
	cfg := loadBaseConfig(ctx)
	bench := benchConfig{
		Ops:       ctx.Int(benchOpsFlag.Name),
		Keys:      ctx.Int(benchKeysFlag.Name),
		Reads:     ctx.Float64(benchReadsFlag.Name),
		Workers:   ctx.Int(benchWorkersFlag.Name),
		Rate:      ctx.Int(benchRateFlag.Name),
		Seed:      ctx.Int64(benchSeedFlag.Name),
		KeyFormat: ctx.String(benchKeyFormatFlag.Name),
	}
	if err := bench.validate(); err != nil {
		return err
	}
	keys, err := benchKeys(bench)
	if err != nil {
		return err
	}
	target, err := newBenchTarget(ctx.String(benchTargetFlag.Name), cfg.Cache)
	if err != nil {
		return err
	}
	defer target.Close()
	startMetrics(cfg.Metrics, "bench", target)

	sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt)
	defer stop()

	log.Info("Starting benchmark", "target", ctx.String(benchTargetFlag.Name), "ops", bench.Ops, "keys", bench.Keys,
		"reads", bench.Reads, "workers", bench.Workers, "rate", bench.Rate, "maxelements", cfg.Cache.MaxElements, "maxage", cfg.Cache.MaxAge)
	result, err := runBench(sigctx, target, keys, bench)
	if err != nil {
		return err
	}
	if result.Canceled {
		log.Warn("Benchmark interrupted", "done", result.ops(), "elapsed", result.Elapsed)
	}
	printBenchResult(os.Stdout, result)

	if file := ctx.String(benchMemProfileFlag.Name); file != "" {
		return debug.Handler.WriteMemProfile(file)
	}
	return nil
}

func (c benchConfig) validate() error {
	switch {
	case c.Ops < 0:
		return fmt.Errorf("invalid --%s: %d", benchOpsFlag.Name, c.Ops)
	case c.Keys <= 0:
		return fmt.Errorf("invalid --%s: %d", benchKeysFlag.Name, c.Keys)
	case c.Reads < 0 || c.Reads > 1:
		return fmt.Errorf("invalid --%s: %v", benchReadsFlag.Name, c.Reads)
	case c.Workers <= 0:
		return fmt.Errorf("invalid --%s: %d", benchWorkersFlag.Name, c.Workers)
	case c.Rate < 0:
		return fmt.Errorf("invalid --%s: %d", benchRateFlag.Name, c.Rate)
	}
	return nil
}

// runBench splits the operations over the workers and runs them against the
// cache. An interrupted run returns the partial counters with Canceled set.
func runBench(ctx context.Context, cache benchTarget, keys []string, cfg benchConfig) (benchResult, error) {
	var (
		limiter *rate.Limiter
		reads   atomic.Uint64
		writes  atomic.Uint64
		hits    atomic.Uint64
	)
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Workers)
	}
	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for i := 0; i < cfg.Workers; i++ {
		ops := cfg.Ops / cfg.Workers
		if i < cfg.Ops%cfg.Workers {
			ops++
		}
		rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
		g.Go(func() error {
			var r, w, h uint64
			defer func() {
				reads.Add(r)
				writes.Add(w)
				hits.Add(h)
			}()
			for n := 0; n < ops; n++ {
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						// The limiter fails early if the wait would overrun the deadline.
						<-gctx.Done()
						return gctx.Err()
					}
				} else if gctx.Err() != nil {
					return gctx.Err()
				}
				key := keys[rng.Intn(len(keys))]
				if rng.Float64() < cfg.Reads {
					r++
					if cache.Get(key) {
						h++
					}
				} else {
					w++
					cache.Set(key, n)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	result := benchResult{
		Reads:   reads.Load(),
		Writes:  writes.Load(),
		Hits:    hits.Load(),
		Elapsed: time.Since(start),
		Stats:   cache.Stats(),
		RSS:     residentMemory(),
	}
	if err != nil {
		if ctx.Err() == nil {
			return result, err
		}
		result.Canceled = true
	}
	return result, nil
}

// residentMemory reports the resident set size of the current process.
func residentMemory() uint64 {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug("Failed to inspect own process", "err", err)
		return 0
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		log.Debug("Failed to read memory usage", "err", err)
		return 0
	}
	return mem.RSS
}

func printBenchResult(w io.Writer, r benchResult) {
	throughput := float64(r.ops()) / r.Elapsed.Seconds()
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.AppendBulk([][]string{
		{"Operations", strconv.FormatUint(r.ops(), 10)},
		{"Reads", strconv.FormatUint(r.Reads, 10)},
		{"Writes", strconv.FormatUint(r.Writes, 10)},
		{"Hit ratio", fmt.Sprintf("%.2f%%", r.hitRatio()*100)},
		{"Entries", strconv.Itoa(r.Stats.Size)},
		{"Buckets", strconv.Itoa(r.Stats.Buckets)},
		{"Load factor", fmt.Sprintf("%.3f", r.Stats.LoadFactor)},
		{"Evictions", strconv.FormatUint(r.Stats.Evictions, 10)},
		{"Expirations", strconv.FormatUint(r.Stats.Expirations, 10)},
	})
	if r.RSS > 0 {
		table.Append([]string{"Resident memory", fmt.Sprintf("%.1f MiB", float64(r.RSS)/(1024*1024))})
	}
	table.SetFooter([]string{fmt.Sprintf("%v", r.Elapsed.Round(time.Millisecond)), fmt.Sprintf("%.0f ops/s", throughput)})
	table.Render()
}
