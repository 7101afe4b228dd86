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

// Package console implements an interactive and scripted front end for a
// host.Cache, where every line is a single call such as: set "a" 1
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/lrunative/lrucache/console/prompt"
	"github.com/lrunative/lrucache/host"
	"github.com/lrunative/lrucache/log"
	"github.com/peterh/liner"
)

const (
	// HistoryFile is the file within the data directory to store input scrollback.
	HistoryFile = "history"

	// LockFile guards the data directory against concurrent consoles.
	LockFile = "LOCK"

	// DefaultPrompt is the default prompt line prefix to use for user input querying.
	DefaultPrompt = "> "

	exitCommand = "exit"
	helpCommand = "help"
)

// Config is the collection of configurations to fine tune the behavior of the
// console.
type Config struct {
	Cache    *host.Cache         // Cache the calls are dispatched to
	DataDir  string              // Data directory to store the console history at
	Prompt   string              // Input prompt prefix string (defaults to DefaultPrompt)
	Prompter prompt.UserPrompter // Input prompter to allow interactive user feedback (defaults to TerminalPrompter)
	Printer  io.Writer           // Output writer to serialize any display strings to (defaults to os.Stdout)
}

// Console is a line based front end to a host cache.
type Console struct {
	cache    *host.Cache
	prompt   string
	prompter prompt.UserPrompter
	histPath string
	history  []string
	dirLock  *flock.Flock
	printer  io.Writer

	stopOnce sync.Once
}

// New initializes a console with the given configuration.
func New(config Config) (*Console, error) {
	if config.Cache == nil {
		return nil, errors.New("console requires a cache")
	}
	if config.Prompter == nil {
		config.Prompter = prompt.Stdin
	}
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	if config.Printer == nil {
		config.Printer = os.Stdout
	}
	c := &Console{
		cache:    config.Cache,
		prompt:   config.Prompt,
		prompter: config.Prompter,
		printer:  config.Printer,
	}
	if config.DataDir != "" {
		if err := c.lockDataDir(config.DataDir); err != nil {
			return nil, err
		}
	}
	if err := c.init(); err != nil {
		c.Stop()
		return nil, err
	}
	return c, nil
}

// lockDataDir takes the data directory lock. A directory held by another
// console is still usable, but its history is left alone.
func (c *Console) lockDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(dir, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		log.Warn("Data directory in use by another console, history disabled", "datadir", dir)
		return nil
	}
	c.dirLock = lock
	c.histPath = filepath.Join(dir, HistoryFile)
	return nil
}

func (c *Console) init() error {
	if c.histPath != "" {
		content, err := os.ReadFile(c.histPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return fmt.Errorf("failed to read history: %v", err)
		default:
			c.history = strings.Split(string(content), "\n")
			c.prompter.SetHistory(c.history)
		}
	}
	c.prompter.SetWordCompleter(c.AutoCompleteInput)
	return nil
}

// AutoCompleteInput is a pre-assembled word completer to be used by the user
// input prompter to provide hints to the user about the methods available.
func (c *Console) AutoCompleteInput(line string, pos int) (string, []string, string) {
	if len(line) == 0 || pos == 0 {
		return "", nil, ""
	}
	head, tail := line[:pos], line[pos:]
	// Only the leading word names a method.
	if strings.ContainsAny(strings.TrimLeft(head, " "), " \t") {
		return "", nil, ""
	}
	word := strings.TrimLeft(head, " ")
	var candidates []string
	for _, name := range append(host.Methods(), helpCommand, exitCommand) {
		if strings.HasPrefix(name, word) {
			candidates = append(candidates, name)
		}
	}
	return head[:len(head)-len(word)], candidates, tail
}

// Welcome shows summary of the cache the console is attached to.
func (c *Console) Welcome() {
	stats := c.cache.Stats()
	fmt.Fprintf(c.printer, "Welcome to the lrucache console!\n\n")
	fmt.Fprintf(c.printer, " entries: %d\n buckets: %d\n", stats.Size, stats.Buckets)
	fmt.Fprintf(c.printer, " methods: %s\n\n", strings.Join(host.Methods(), " "))
	fmt.Fprintf(c.printer, "To exit, press ctrl-d or type exit\n")
}

// Evaluate executes a single call and pretty prints the result to the
// printer. The error of a failed call is printed and returned.
func (c *Console) Evaluate(line string) error {
	name, args, err := host.ParseCall(line)
	if err != nil {
		fmt.Fprintf(c.printer, "Error: %v\n", err)
		return err
	}
	switch name {
	case "":
		return nil
	case helpCommand:
		fmt.Fprintf(c.printer, "%s\n", strings.Join(host.Methods(), "\n"))
		return nil
	}
	result, err := c.cache.Call(name, args...)
	if err != nil {
		fmt.Fprintf(c.printer, "Error: %v\n", err)
		return err
	}
	fmt.Fprintln(c.printer, host.FormatResult(result))
	return nil
}

// Execute runs every line of the script. When failFast is set the first
// failing call aborts the script, otherwise failures are only printed and
// counted.
func (c *Console) Execute(script io.Reader, failFast bool) (int, error) {
	var (
		scanner = bufio.NewScanner(script)
		failed  int
		line    int
	)
	for scanner.Scan() {
		line++
		if strings.TrimSpace(scanner.Text()) == exitCommand {
			break
		}
		if err := c.Evaluate(scanner.Text()); err != nil {
			failed++
			if failFast {
				return failed, fmt.Errorf("line %d: %w", line, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return failed, err
	}
	log.Debug("Script executed", "lines", line, "failed", failed)
	return failed, nil
}

// Interactive starts an interactive user session, where input is prompted from
// the configured user prompter.
func (c *Console) Interactive() {
	for {
		input, err := c.prompter.PromptInput(c.prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(c.printer, "caught interrupt, type exit or press ctrl-d to leave")
			continue
		case err != nil:
			return
		}
		input = strings.TrimSpace(input)
		if input == exitCommand {
			return
		}
		if input == "" {
			continue
		}
		if len(c.history) == 0 || input != c.history[len(c.history)-1] {
			c.history = append(c.history, input)
			c.prompter.AppendHistory(input)
		}
		c.Evaluate(input)
	}
}

// Stop cleans up the console and saves the history.
func (c *Console) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		if c.histPath != "" {
			err = c.writeHistory()
		}
		if c.dirLock != nil {
			if uerr := c.dirLock.Unlock(); uerr != nil && err == nil {
				err = uerr
			}
		}
	})
	return err
}

func (c *Console) writeHistory() error {
	if err := os.MkdirAll(filepath.Dir(c.histPath), 0700); err != nil {
		return err
	}
	if err := os.WriteFile(c.histPath, []byte(strings.Join(c.history, "\n")), 0600); err != nil {
		return err
	}
	return os.Chmod(c.histPath, 0600) // Force 0600, even if it was different previously
}
