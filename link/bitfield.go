// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link describes the electronics link identifiers of the RPC
// readout chain and the maps translating them into detector channels.
package link // import "github.com/go-lpc/rpcraw/link"

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Wildcard is the field value matching any other value.
const Wildcard = math.MinInt32

// ErrOutOfRange is returned when a field value falls outside of its
// declared range.
var ErrOutOfRange = errors.New("link: value out of range")

// RangeError describes a field value rejected by a setter.
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("link: %s value %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }

// field describes a packed bit-field.
// Values are stored as v-min+1 so that a zero field is a wildcard.
type field struct {
	name string
	mask uint32
	min  int
	max  int
}

func (f field) pos() int { return bits.TrailingZeros32(f.mask) }

// layout is the ordered set of fields of an identifier.
type layout struct {
	name   string
	fields []field
}

func (l *layout) get(raw uint32, i int) int {
	f := l.fields[i]
	v := (raw & f.mask) >> f.pos()
	if v == 0 {
		return Wildcard
	}
	return int(v) - 1 + f.min
}

func (l *layout) set(raw uint32, i, v int) (uint32, error) {
	f := l.fields[i]
	if v == Wildcard {
		return raw &^ f.mask, nil
	}
	if v < f.min || v > f.max {
		return raw, &RangeError{Field: f.name, Value: v, Min: f.min, Max: f.max}
	}
	return raw&^f.mask | uint32(v-f.min+1)<<f.pos()&f.mask, nil
}

func (l *layout) build(vs ...int) (uint32, error) {
	var (
		raw uint32
		err error
	)
	for i, v := range vs {
		raw, err = l.set(raw, i, v)
		if err != nil {
			return 0, fmt.Errorf("link: could not build %s: %w", l.name, err)
		}
	}
	return raw, nil
}

// mask returns the union of the masks of the non-wildcard fields.
func (l *layout) mask(raw uint32) uint32 {
	var m uint32
	for _, f := range l.fields {
		if raw&f.mask != 0 {
			m |= f.mask
		}
	}
	return m
}

func (l *layout) full() uint32 {
	var m uint32
	for _, f := range l.fields {
		m |= f.mask
	}
	return m
}

func (l *layout) matches(lhs, rhs uint32) bool {
	m := l.mask(lhs) & l.mask(rhs)
	return lhs&m == rhs&m
}

func (l *layout) format(raw uint32) string {
	var o strings.Builder
	o.WriteString(l.name)
	for i := range l.fields {
		o.WriteByte('_')
		v := l.get(raw, i)
		if v == Wildcard {
			o.WriteByte('*')
			continue
		}
		o.WriteString(strconv.Itoa(v))
	}
	return o.String()
}

func (l *layout) parse(s string) (uint32, error) {
	toks := strings.Split(s, "_")
	if len(toks) != len(l.fields)+1 || toks[0] != l.name {
		return 0, fmt.Errorf("link: invalid %s identifier %q", l.name, s)
	}
	vs := make([]int, len(l.fields))
	for i, tok := range toks[1:] {
		if tok == "*" {
			vs[i] = Wildcard
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return 0, fmt.Errorf("link: invalid %s field %q in %q: %w", l.fields[i].name, tok, s, err)
		}
		vs[i] = v
	}
	return l.build(vs...)
}
