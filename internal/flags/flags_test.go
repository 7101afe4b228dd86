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

package flags

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lrunative/lrucache/log"
	"github.com/urfave/cli/v2"
)

func TestPathExpansion(t *testing.T) {
	home := HomeDir()
	var tests map[string]string

	if filepath.Separator == '/' {
		tests = map[string]string{
			"/home/someuser/tmp": "/home/someuser/tmp",
			"~/tmp":              home + "/tmp",
			"~thisOtherUser/b/":  "~thisOtherUser/b",
			"$DDDXXX/a/b":        "/tmp/a/b",
			"/a/b/":              "/a/b",
		}
	} else {
		tests = map[string]string{
			`/home\someuser\tmp`: `\home\someuser\tmp`,
			`~\tmp`:              home + `\tmp`,
			`~thisOtherUser\b`:   `~thisOtherUser\b`,
			`$DDDXXX\a\b`:        `\tmp\a\b`,
			`/a/b/`:              `\a\b`,
		}
	}

	os.Setenv(`DDDXXX`, `/tmp`)
	for test, expected := range tests {
		got := expandPath(test)
		if got != expected {
			t.Errorf(`test %s, got %s, expected %s\n`, test, got, expected)
		}
	}
}

type testMarshaler struct{ text string }

func (m *testMarshaler) MarshalText() ([]byte, error) { return []byte(m.text), nil }
func (m *testMarshaler) UnmarshalText(text []byte) error {
	m.text = string(text)
	return nil
}

func TestAutoEnvVars(t *testing.T) {
	var (
		str  = &cli.StringFlag{Name: "log.format"}
		dur  = &cli.DurationFlag{Name: "cache.maxage"}
		path = &PathFlag{Name: "config"}
		text = &TextMarshalerFlag{Name: "cache.read-policy", Value: new(testMarshaler)}
	)
	AutoEnvVars([]cli.Flag{str, dur, path, text}, "LRUCACHE")

	tests := []struct {
		have []string
		want string
	}{
		{str.EnvVars, "LRUCACHE_LOG_FORMAT"},
		{dur.EnvVars, "LRUCACHE_CACHE_MAXAGE"},
		{path.EnvVars, "LRUCACHE_CONFIG"},
		{text.EnvVars, "LRUCACHE_CACHE_READ_POLICY"},
	}
	for i, test := range tests {
		if len(test.have) != 1 || test.have[0] != test.want {
			t.Errorf("test %d: env vars mismatch: have %v, want [%s]", i, test.have, test.want)
		}
	}
}

func TestTextMarshalerFlagFromEnv(t *testing.T) {
	t.Setenv("LRUCACHE_TEST_POLICY", "none")

	value := &testMarshaler{text: "recency"}
	flag := &TextMarshalerFlag{Name: "policy", Value: value, EnvVars: []string{"LRUCACHE_TEST_POLICY"}}

	app := cli.NewApp()
	app.Flags = []cli.Flag{flag}
	app.Action = func(ctx *cli.Context) error {
		if have := GlobalTextMarshaler(ctx, "policy").(*testMarshaler).text; have != "none" {
			t.Errorf("value mismatch: have %q, want %q", have, "none")
		}
		return nil
	}
	if err := app.Run([]string{"test"}); err != nil {
		t.Fatal(err)
	}
	if !flag.IsSet() {
		t.Error("flag not marked as set from the environment")
	}
}

func TestUnknownEnvVars(t *testing.T) {
	known := &cli.IntFlag{Name: "cache.maxelements"}
	AutoEnvVars([]cli.Flag{known}, "LRUCACHE")

	environ := []string{
		"HOME=/root",
		"LRUCACHE_CACHE_MAXELEMENTS=2",
		"LRUCACHE_BOGUS=1",
		"LRUCACHE_EMPTY=",
		"LRUCACHE_URL=http://host/?a=b",
	}
	have := unknownEnvVars(environ, []cli.Flag{known}, "LRUCACHE")
	want := []string{"LRUCACHE_BOGUS=1", "LRUCACHE_EMPTY=", "LRUCACHE_URL=http://host/?a=b"}
	if !reflect.DeepEqual(have, want) {
		t.Fatalf("unknown env vars mismatch: have %v, want %v", have, want)
	}
}

func TestCheckEnvVarsWarns(t *testing.T) {
	var buf bytes.Buffer
	old := log.Root()
	log.SetDefault(log.NewLogger(log.NewTerminalHandler(&buf, false)))
	t.Cleanup(func() { log.SetDefault(old) })

	t.Setenv("LRUCACHETEST_BOGUS", "1")
	t.Setenv("LRUCACHETEST_KNOWN", "2")
	CheckEnvVars([]cli.Flag{&cli.StringFlag{Name: "known", EnvVars: []string{"LRUCACHETEST_KNOWN"}}}, "LRUCACHETEST")

	out := buf.String()
	if !strings.Contains(out, "Unknown environment variable") || !strings.Contains(out, "LRUCACHETEST_BOGUS") {
		t.Errorf("missing warning for unknown variable, log: %q", out)
	}
	if strings.Contains(out, "LRUCACHETEST_KNOWN") {
		t.Errorf("warned about a bound variable, log: %q", out)
	}
}

func TestMigrateGlobalFlags(t *testing.T) {
	maxElements := &cli.IntFlag{Name: "cache.maxelements", Value: 1024}

	var have int
	app := NewApp("test")
	app.Flags = []cli.Flag{maxElements}
	app.Commands = []*cli.Command{{
		Name:  "exec",
		Flags: []cli.Flag{maxElements},
		Action: func(ctx *cli.Context) error {
			have = ctx.Int(maxElements.Name)
			return nil
		},
	}}
	if err := app.Run([]string{"test", "--cache.maxelements", "2", "exec"}); err != nil {
		t.Fatal(err)
	}
	if have != 2 {
		t.Errorf("global flag not visible to the command: have %d, want 2", have)
	}
}
