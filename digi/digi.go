// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package digi holds the decoded RPC hits and the ordered set
// collecting them.
package digi // import "github.com/go-lpc/rpcraw/digi"

import (
	"fmt"
	"sort"

	"github.com/go-lpc/rpcraw/link"
)

// Digi is a decoded hit: a strip of a detector roll, fired at a given
// bunch crossing.
type Digi struct {
	Det   link.DetID
	Strip int
	BX    int
}

func (d Digi) String() string {
	return fmt.Sprintf("{det=0x%08x strip=%d bx=%d}", uint32(d.Det), d.Strip, d.BX)
}

// Compare orders digis by detector, strip and bunch crossing.
func Compare(a, b Digi) int {
	switch {
	case a.Det != b.Det:
		return cmpInt(int64(a.Det), int64(b.Det))
	case a.Strip != b.Strip:
		return cmpInt(int64(a.Strip), int64(b.Strip))
	default:
		return cmpInt(int64(a.BX), int64(b.BX))
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return +1
	}
	return 0
}

// Set is a deduplicating set of digis with a deterministic iteration
// order.
// A Set is not safe for concurrent use.
type Set struct {
	m map[Digi]struct{}
}

func NewSet() *Set {
	return &Set{m: make(map[Digi]struct{})}
}

// Insert adds d to the set and reports whether it was not already there.
func (s *Set) Insert(d Digi) bool {
	if s.m == nil {
		s.m = make(map[Digi]struct{})
	}
	if _, dup := s.m[d]; dup {
		return false
	}
	s.m[d] = struct{}{}
	return true
}

// Has reports whether d is in the set.
func (s *Set) Has(d Digi) bool {
	_, ok := s.m[d]
	return ok
}

func (s *Set) Len() int { return len(s.m) }

// Merge inserts all the digis of o into s.
func (s *Set) Merge(o *Set) {
	for d := range o.m {
		s.Insert(d)
	}
}

// Reset empties the set.
func (s *Set) Reset() {
	for d := range s.m {
		delete(s.m, d)
	}
}

// Digis returns the ordered digis of the set.
func (s *Set) Digis() []Digi {
	ds := make([]Digi, 0, len(s.m))
	for d := range s.m {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool { return Compare(ds[i], ds[j]) < 0 })
	return ds
}

// Group is the set of digis of a detector roll.
type Group struct {
	Det   link.DetID
	Digis []Digi
}

// Groups returns the ordered digis of the set, grouped by detector roll.
func (s *Set) Groups() []Group {
	var grps []Group
	for _, d := range s.Digis() {
		if n := len(grps); n == 0 || grps[n-1].Det != d.Det {
			grps = append(grps, Group{Det: d.Det})
		}
		g := &grps[len(grps)-1]
		g.Digis = append(g.Digis, d)
	}
	return grps
}

// InsertData inserts the digis of the connector pins set in data, at the
// given bunch crossing.
// Bit i of data is pin i+pinOffset; pins without strip are ignored.
func (s *Set) InsertData(feb link.FEBConnector, data uint8, pinOffset, bx int) int {
	n := 0
	for bit := 0; bit < 8; bit++ {
		if data&(1<<bit) == 0 {
			continue
		}
		strip := feb.Strip(bit + pinOffset)
		if strip == 0 {
			continue
		}
		if s.Insert(Digi{Det: feb.Det, Strip: strip, BX: bx}) {
			n++
		}
	}
	return n
}
