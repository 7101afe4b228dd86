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
)

// ErrUnknownMethod is returned when a call names no cache operation.
var ErrUnknownMethod = errors.New("unknown method")

// ErrorKind classifies argument errors the way dynamic hosts report them.
type ErrorKind uint8

const (
	RangeError ErrorKind = iota // wrong number of arguments
	TypeError                   // argument of an unusable type
)

func (k ErrorKind) String() string {
	switch k {
	case RangeError:
		return "RangeError"
	case TypeError:
		return "TypeError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// ArgumentError is returned when a call is rejected before reaching the cache.
// A rejected call never changes cache state.
type ArgumentError struct {
	Kind   ErrorKind
	Method string
	msg    string
}

func (e *ArgumentError) Error() string {
	return e.msg
}

func arityError(method string, expected int) error {
	return &ArgumentError{
		Kind:   RangeError,
		Method: method,
		msg:    fmt.Sprintf("Incorrect number of arguments for %s(), expected %d", method, expected),
	}
}

func typeError(method string, pos int, expected string, have any) error {
	return &ArgumentError{
		Kind:   TypeError,
		Method: method,
		msg:    fmt.Sprintf("Invalid argument %d for %s(), expected %s but got %T", pos, method, expected, have),
	}
}
