/*
Copyright 2026-Present Couchbase, Inc.

Use of this software is governed by the Business Source License included in
the file licenses/BSL-Couchbase.txt.  As of the Change Date specified in that
file, in accordance with the Business Source License, use of this software will
be governed by the Apache License, Version 2.0, included in the file
licenses/APL2.txt.
*/

// Package keywordstore implements an insertion-ordered map whose keys are
// compared case-insensitively while keeping the spelling they were first
// stored with.
package keywordstore

import (
	"strings"
	"unicode"
)

// EqualKeywords reports whether two keywords name the same entry.  Only
// simple one-to-one case folding applies, so `ß` never matches `ss`.
func EqualKeywords(a, b string) bool {
	return strings.EqualFold(a, b)
}

// foldKey maps every rune to the smallest rune of its simple fold orbit, so
// that two keywords share a fold key exactly when EqualKeywords holds.
func foldKey(keyword string) string {
	return strings.Map(func(r rune) rune {
		lowest := r
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			if f < lowest {
				lowest = f
			}
		}
		return lowest
	}, keyword)
}

type entry[V any] struct {
	keyword string
	value   V
}

// Store is not safe for concurrent use.
type Store[V any] struct {
	entries []entry[V]
	index   map[string]int
}

func New[V any]() *Store[V] {
	return &Store[V]{
		index: make(map[string]int),
	}
}

func (s *Store[V]) lookup(keyword string) (int, bool) {
	idx, ok := s.index[foldKey(keyword)]
	return idx, ok
}

// Get returns the value stored for keyword, ignoring case.  The second return
// is false if no such keyword exists.
func (s *Store[V]) Get(keyword string) (V, bool) {
	idx, ok := s.lookup(keyword)
	if !ok {
		var zero V
		return zero, false
	}

	return s.entries[idx].value, true
}

func (s *Store[V]) Has(keyword string) bool {
	_, ok := s.lookup(keyword)
	return ok
}

// Set overwrites the value of an existing keyword in place, or appends a new
// keyword to the end of the store.  An overwrite keeps the originally stored
// spelling of the keyword.
func (s *Store[V]) Set(keyword string, value V) {
	if idx, ok := s.lookup(keyword); ok {
		s.entries[idx].value = value
		return
	}

	s.index[foldKey(keyword)] = len(s.entries)
	s.entries = append(s.entries, entry[V]{
		keyword: keyword,
		value:   value,
	})
}

// Remove deletes keyword and reports whether it was present.
func (s *Store[V]) Remove(keyword string) bool {
	idx, ok := s.lookup(keyword)
	if !ok {
		return false
	}

	delete(s.index, foldKey(s.entries[idx].keyword))
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)

	// everything after the removed entry shifted down by one
	for i := idx; i < len(s.entries); i++ {
		s.index[foldKey(s.entries[i].keyword)] = i
	}

	return true
}

func (s *Store[V]) Len() int {
	return len(s.entries)
}

// Keys returns the stored keywords in insertion order.
func (s *Store[V]) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.keyword
	}
	return keys
}

// Range calls fn for each entry in insertion order until fn returns false.
func (s *Store[V]) Range(fn func(keyword string, value V) bool) {
	for _, e := range s.entries {
		if !fn(e.keyword, e.value) {
			return
		}
	}
}

// Clone returns a shallow copy of the store.
func (s *Store[V]) Clone() *Store[V] {
	out := &Store[V]{
		entries: make([]entry[V], len(s.entries)),
		index:   make(map[string]int, len(s.index)),
	}
	copy(out.entries, s.entries)
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}
