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

// lrucache is a command line front end to an in-process LRU cache with
// time-based expiry.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lrunative/lrucache/cmd/utils"
	"github.com/lrunative/lrucache/console/prompt"
	"github.com/lrunative/lrucache/internal/debug"
	"github.com/lrunative/lrucache/internal/flags"
	"github.com/urfave/cli/v2"
)

const (
	clientIdentifier = "lrucache" // Client identifier used as the env var prefix
)

var envPrefix = strings.ToUpper(clientIdentifier)

var app = flags.NewApp("an LRU cache with time-based expiry")

func init() {
	// Initialize the CLI app and start the console by default
	app.Action = lrucache
	app.Commands = []*cli.Command{
		// See consolecmd.go:
		consoleCommand,
		execCommand,
		// See benchcmd.go:
		benchCommand,
		// See config.go
		dumpConfigCommand,
	}
	app.Flags = flags.Merge(
		utils.CacheFlags,
		utils.MetricsFlags,
		[]cli.Flag{utils.ConfigFileFlag, utils.DataDirFlag},
		debug.Flags,
	)
	flags.AutoEnvVars(app.Flags, envPrefix)

	app.Before = func(ctx *cli.Context) error {
		flags.MigrateGlobalFlags(ctx)
		if err := debug.Setup(ctx); err != nil {
			return err
		}
		flags.CheckEnvVars(app.Flags, envPrefix)
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		prompt.Stdin.Close() // Resets terminal mode.
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// lrucache is the main entry point into the system if no special subcommand is
// run. It opens an interactive console on a freshly configured cache.
func lrucache(ctx *cli.Context) error {
	if args := ctx.Args().Slice(); len(args) > 0 {
		return fmt.Errorf("invalid command: %s", args[0])
	}
	return localConsole(ctx)
}
