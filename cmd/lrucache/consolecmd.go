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
	"fmt"
	"io"
	"os"

	"github.com/lrunative/lrucache/cmd/utils"
	"github.com/lrunative/lrucache/console"
	"github.com/lrunative/lrucache/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	failFastFlag = &cli.BoolFlag{
		Name:     "failfast",
		Usage:    "Abort the script at the first failing call",
		Category: flags.MiscCategory,
	}

	consoleCommand = &cli.Command{
		Action: localConsole,
		Name:   "console",
		Usage:  "Start an interactive cache console",
		Flags:  flags.Merge(utils.CacheFlags, []cli.Flag{utils.DataDirFlag}),
		Description: `
The console is an interactive shell around a freshly created cache. Every line
is a single call such as

  set "user:1" 42
  get "user:1"
  setMaxAge 5000
  stats

Type help for the list of methods.`,
	}

	execCommand = &cli.Command{
		Action:    execScript,
		Name:      "exec",
		Usage:     "Execute a script of cache calls",
		ArgsUsage: "<file|->",
		Flags:     flags.Merge(utils.CacheFlags, []cli.Flag{failFastFlag}),
		Description: `
The exec command runs every line of the given file (or standard input for -)
against a freshly created cache, printing each result. Blank lines and lines
starting with # are skipped.`,
	}
)

// localConsole starts a new cache and attaches an interactive console to it.
func localConsole(ctx *cli.Context) error {
	cache, _ := makeCache(ctx)
	defer cache.Close()

	c, err := console.New(console.Config{
		Cache:   cache,
		DataDir: ctx.String(utils.DataDirFlag.Name),
	})
	if err != nil {
		return fmt.Errorf("failed to start the console: %v", err)
	}
	defer c.Stop()

	c.Welcome()
	c.Interactive()
	return nil
}

// execScript runs a script of calls against a new cache and exits.
func execScript(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("need exactly one script argument, have %d", ctx.NArg())
	}
	var script io.Reader = os.Stdin
	if name := ctx.Args().First(); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		script = f
	}
	cache, _ := makeCache(ctx)
	defer cache.Close()

	c, err := console.New(console.Config{Cache: cache})
	if err != nil {
		return err
	}
	failed, err := c.Execute(script, ctx.Bool(failFastFlag.Name))
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d calls failed", failed)
	}
	return nil
}
