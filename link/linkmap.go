// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"fmt"
	"sort"
)

// ID is the set of link identifier types usable as map keys.
type ID interface {
	~uint32
	Complete() bool
	String() string
}

// Map is an immutable ordered map from link identifiers to values.
// Maps are created with a Builder.
type Map[K ID, V any] struct {
	keys []K
	vals []V
}

// Len returns the number of entries of the map.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Find returns the value associated with key k.
func (m *Map[K, V]) Find(k K) (V, bool) {
	if m == nil {
		var v V
		return v, false
	}
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= k })
	if i < len(m.keys) && m.keys[i] == k {
		return m.vals[i], true
	}
	var v V
	return v, false
}

// Keys returns the ordered keys of the map.
func (m *Map[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	return append([]K(nil), m.keys...)
}

// Range calls f for each entry of the map, in key order, until f returns false.
func (m *Map[K, V]) Range(f func(k K, v V) bool) {
	if m == nil {
		return
	}
	for i, k := range m.keys {
		if !f(k, m.vals[i]) {
			return
		}
	}
}

// Builder accumulates entries of a Map.
// A Builder must not be used after Build.
type Builder[K ID, V any] struct {
	m map[K]V
}

func NewBuilder[K ID, V any]() *Builder[K, V] {
	return &Builder[K, V]{m: make(map[K]V)}
}

// Insert adds an entry to the map being built.
// Keys must be complete and unique.
func (b *Builder[K, V]) Insert(k K, v V) error {
	if b.m == nil {
		return fmt.Errorf("link: insert into a built map")
	}
	if !k.Complete() {
		return fmt.Errorf("link: key %v is not complete", k)
	}
	if _, dup := b.m[k]; dup {
		return fmt.Errorf("link: duplicate key %v", k)
	}
	b.m[k] = v
	return nil
}

// Len returns the number of entries inserted so far.
func (b *Builder[K, V]) Len() int { return len(b.m) }

// Build freezes the entries into a Map.
func (b *Builder[K, V]) Build() *Map[K, V] {
	m := &Map[K, V]{
		keys: make([]K, 0, len(b.m)),
		vals: make([]V, 0, len(b.m)),
	}
	for k := range b.m {
		m.keys = append(m.keys, k)
	}
	sort.Slice(m.keys, func(i, j int) bool { return m.keys[i] < m.keys[j] })
	for _, k := range m.keys {
		m.vals = append(m.vals, b.m[k])
	}
	b.m = nil
	return m
}
