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

package host

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var errUnterminatedQuote = errors.New("unterminated quoted string")

// ParseCall splits a textual call such as
//
//	set "user:1" 42
//
// into a method name and its arguments. Double quoted words are unquoted as Go
// string literals and always stay strings. Bare words that parse as integers or
// floats become numbers, null becomes nil, everything else is a string. Blank
// lines and lines starting with # yield an empty method name.
func ParseCall(line string) (string, []any, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil, nil
	}
	var (
		words []any
		rest  = line
	)
	for {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			break
		}
		if rest[0] == '"' {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %s", errUnterminatedQuote, rest)
			}
			word, _ := strconv.Unquote(quoted)
			words = append(words, word)
			rest = rest[len(quoted):]
			continue
		}
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			end = len(rest)
		}
		words = append(words, parseWord(rest[:end]))
		rest = rest[end:]
	}
	name, ok := words[0].(string)
	if !ok {
		return "", nil, fmt.Errorf("%w: %v", ErrUnknownMethod, words[0])
	}
	return name, words[1:], nil
}

func parseWord(word string) any {
	if word == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(word, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(word, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return word
}

// FormatResult renders a call result for display.
func FormatResult(v any) string {
	switch v := v.(type) {
	case nil:
		return "undefined"
	case string:
		return strconv.Quote(v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", k, FormatResult(v[k]))
		}
		b.WriteByte('}')
		return b.String()
	default:
		return fmt.Sprint(v)
	}
}
