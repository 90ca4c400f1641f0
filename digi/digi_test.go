// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package digi

import (
	"testing"

	"github.com/go-lpc/rpcraw/link"
	"github.com/google/go-cmp/cmp"
)

func TestSet(t *testing.T) {
	s := NewSet()
	for _, d := range []Digi{
		{Det: 2, Strip: 3, BX: 0},
		{Det: 1, Strip: 5, BX: 1},
		{Det: 1, Strip: 5, BX: -1},
		{Det: 2, Strip: 3, BX: 0},
		{Det: 1, Strip: 4, BX: 2},
	} {
		s.Insert(d)
	}

	if got, want := s.Len(), 4; got != want {
		t.Fatalf("invalid set size: got=%d, want=%d", got, want)
	}

	want := []Digi{
		{Det: 1, Strip: 4, BX: 2},
		{Det: 1, Strip: 5, BX: -1},
		{Det: 1, Strip: 5, BX: 1},
		{Det: 2, Strip: 3, BX: 0},
	}
	if diff := cmp.Diff(want, s.Digis()); diff != "" {
		t.Fatalf("invalid digis (-want +got):\n%s", diff)
	}

	grps := s.Groups()
	if got, want := len(grps), 2; got != want {
		t.Fatalf("invalid number of groups: got=%d, want=%d", got, want)
	}
	if got, want := grps[0].Det, link.DetID(1); got != want {
		t.Fatalf("invalid first group: got=%v, want=%v", got, want)
	}
	if got, want := len(grps[0].Digis), 3; got != want {
		t.Fatalf("invalid first group size: got=%d, want=%d", got, want)
	}

	o := NewSet()
	o.Insert(Digi{Det: 3, Strip: 1, BX: 0})
	o.Insert(Digi{Det: 1, Strip: 4, BX: 2})
	s.Merge(o)
	if got, want := s.Len(), 5; got != want {
		t.Fatalf("invalid merged size: got=%d, want=%d", got, want)
	}

	s.Reset()
	if got, want := s.Len(), 0; got != want {
		t.Fatalf("invalid size after reset: got=%d, want=%d", got, want)
	}

	var zero Set
	if !zero.Insert(Digi{Det: 1}) {
		t.Fatalf("could not insert into zero set")
	}
}

func TestMatch(t *testing.T) {
	lhs := NewSet()
	rhs := NewSet()
	for _, d := range []Digi{
		{Det: 1, Strip: 1, BX: 0},
		{Det: 1, Strip: 2, BX: 0},
		{Det: 1, Strip: 7, BX: 1},
		{Det: 4, Strip: 7, BX: 9}, // out of window
	} {
		lhs.Insert(d)
	}
	for _, d := range []Digi{
		{Det: 1, Strip: 1, BX: 0},
		{Det: 1, Strip: 2, BX: 1},
		{Det: 2, Strip: 7, BX: 1},
	} {
		rhs.Insert(d)
	}

	got := Match(lhs, rhs, -2, 2)
	want := Matching{
		Matched:    []Digi{{Det: 1, Strip: 1, BX: 0}},
		Mismatched: []Pair{{LHS: Digi{Det: 1, Strip: 2, BX: 0}, RHS: Digi{Det: 1, Strip: 2, BX: 1}}},
		OnlyLHS:    []Digi{{Det: 1, Strip: 7, BX: 1}},
		OnlyRHS:    []Digi{{Det: 2, Strip: 7, BX: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("invalid matching (-want +got):\n%s", diff)
	}
	if got.Identical() {
		t.Fatalf("matching should report differences")
	}

	if m := Match(lhs, lhs, -2, 2); !m.Identical() {
		t.Fatalf("a set should match itself: %+v", m)
	}
}
