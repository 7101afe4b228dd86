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

package lru

// list is a doubly-linked list holding items of type T, ordered from the least
// recently used element at the front to the most recently used at the back.
// Elements handed out by pushBack stay valid until they are removed.
// The zero value is not valid, use newList to create lists.
type list[T any] struct {
	root listElem[T]
	len  int
}

type listElem[T any] struct {
	next *listElem[T]
	prev *listElem[T]
	v    T
}

func newList[T any]() *list[T] {
	l := new(list[T])
	l.init()
	return l
}

// init reinitializes the list, making it empty.
func (l *list[T]) init() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
}

// pushBack appends v at the back of the list and returns its element.
func (l *list[T]) pushBack(v T) *listElem[T] {
	e := &listElem[T]{v: v}
	l.pushElem(e)
	return e
}

// pushElem links e in at the back of the list.
func (l *list[T]) pushElem(e *listElem[T]) {
	e.next = &l.root
	e.prev = l.root.prev
	l.root.prev = e
	e.prev.next = e
	l.len++
}

// moveToBack makes e the most recently used element.
func (l *list[T]) moveToBack(e *listElem[T]) {
	if l.root.prev == e {
		return
	}
	l.remove(e)
	l.pushElem(e)
}

// remove unlinks e from the list.
func (l *list[T]) remove(e *listElem[T]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next, e.prev = nil, nil
	l.len--
}

// front returns the least recently used element, or nil if the list is empty.
func (l *list[T]) front() *listElem[T] {
	e := l.root.next
	if e == &l.root {
		return nil
	}
	return e
}

// popFront removes and returns the front element.
func (l *list[T]) popFront() *listElem[T] {
	front := l.front()
	if front != nil {
		l.remove(front)
	}
	return front
}

func (l *list[T]) empty() bool {
	return l.root.next == &l.root
}

// appendTo appends all list elements to a slice, front to back.
func (l *list[T]) appendTo(slice []T) []T {
	for e := l.root.next; e != &l.root; e = e.next {
		slice = append(slice, e.v)
	}
	return slice
}
