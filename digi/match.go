// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package digi

import (
	"math"
	"sort"
)

// MaxDistance is the largest distance between two associated digis.
const MaxDistance = 10

// Distance returns the association distance between two digis.
// A strip or a detector difference weighs 20 bunch crossings.
func Distance(a, b Digi) float64 {
	return 20*math.Abs(float64(a.Strip-b.Strip)) +
		math.Abs(float64(a.BX-b.BX)) +
		20*math.Abs(float64(a.Det)-float64(b.Det))
}

// Pair is a couple of associated, different, digis.
type Pair struct {
	LHS, RHS Digi
}

// Matching is the result of the comparison of two digi sets.
type Matching struct {
	Matched    []Digi // digis present in both sets
	Mismatched []Pair // digis associated within MaxDistance
	OnlyLHS    []Digi
	OnlyRHS    []Digi
}

// Identical reports whether both sets held the same digis.
func (m Matching) Identical() bool {
	return len(m.Mismatched) == 0 && len(m.OnlyLHS) == 0 && len(m.OnlyRHS) == 0
}

// Match compares the digis of lhs and rhs whose bunch crossing lies in
// [bxMin, bxMax].
// Identical digis are matched first; the remaining ones are associated
// greedily, closest pairs first.
func Match(lhs, rhs *Set, bxMin, bxMax int) Matching {
	var (
		m    Matching
		ls   []Digi
		rs   []Digi
		inBX = func(d Digi) bool { return bxMin <= d.BX && d.BX <= bxMax }
	)

	for _, d := range lhs.Digis() {
		if !inBX(d) {
			continue
		}
		if rhs.Has(d) {
			m.Matched = append(m.Matched, d)
			continue
		}
		ls = append(ls, d)
	}
	for _, d := range rhs.Digis() {
		if !inBX(d) || lhs.Has(d) {
			continue
		}
		rs = append(rs, d)
	}

	type candidate struct {
		i, j int
		dist float64
	}
	var cands []candidate
	for i, l := range ls {
		for j, r := range rs {
			if dist := Distance(l, r); dist < MaxDistance {
				cands = append(cands, candidate{i, j, dist})
			}
		}
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })

	var (
		usedL = make([]bool, len(ls))
		usedR = make([]bool, len(rs))
	)
	for _, c := range cands {
		if usedL[c.i] || usedR[c.j] {
			continue
		}
		usedL[c.i] = true
		usedR[c.j] = true
		m.Mismatched = append(m.Mismatched, Pair{LHS: ls[c.i], RHS: rs[c.j]})
	}
	for i, d := range ls {
		if !usedL[i] {
			m.OnlyLHS = append(m.OnlyLHS, d)
		}
	}
	for j, d := range rs {
		if !usedR[j] {
			m.OnlyRHS = append(m.OnlyRHS, d)
		}
	}
	return m
}
