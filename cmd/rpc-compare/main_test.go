// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

func writeLCIO(t *testing.T, fname string, evts map[int32][]digi.Digi, order []int32) {
	t.Helper()

	w, err := lcio.Create(fname)
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer w.Close()

	for _, id := range order {
		set := digi.NewSet()
		for _, d := range evts[id] {
			set.Insert(d)
		}
		evt := lcio.Event{RunNumber: 42, EventNumber: id, Detector: xcnv.Detector}
		evt.Add(xcnv.Collection, xcnv.NewGenericObject(set))
		if err := w.WriteEvent(&evt); err != nil {
			t.Fatalf("could not write event %d: %+v", id, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("could not close LCIO file: %+v", err)
	}
}

func TestProcess(t *testing.T) {
	const det = 0x2600a145

	var (
		tmp = t.TempDir()
		lhs = filepath.Join(tmp, "dcc.lcio")
		rhs = filepath.Join(tmp, "twinmux.lcio")
	)

	writeLCIO(t, lhs, map[int32][]digi.Digi{
		1: {{Det: det, Strip: 3, BX: 0}},
		2: {{Det: det, Strip: 12, BX: 0}, {Det: det, Strip: 5, BX: 1}},
		3: {{Det: det, Strip: 1, BX: 0}},
	}, []int32{1, 2, 3})
	writeLCIO(t, rhs, map[int32][]digi.Digi{
		1: {{Det: det, Strip: 3, BX: 0}, {Det: det, Strip: 3, BX: 7}},
		2: {{Det: det, Strip: 12, BX: 1}, {Det: det, Strip: 40, BX: -2}, {Det: det, Strip: 5, BX: 1}},
		4: {},
	}, []int32{1, 2, 4})

	for _, tc := range []struct {
		name    string
		lhs     string
		rhs     string
		verbose bool
		same    bool
		want    string
	}{
		{
			name:    "diff",
			lhs:     lhs,
			rhs:     rhs,
			verbose: true,
			want: `event 2: matched=1 mismatched=1 lhs-only=0 rhs-only=1
  ~ {det=0x2600a145 strip=12 bx=0} {det=0x2600a145 strip=12 bx=1}
  > {det=0x2600a145 strip=40 bx=-2}
event 3: missing from rhs
event 4: missing from lhs
events: 4 (identical: 1, lhs-only: 1, rhs-only: 1)
digis:  matched=2 mismatched=1 lhs-only=0 rhs-only=1
`,
		},
		{
			name: "same",
			lhs:  lhs,
			rhs:  lhs,
			same: true,
			want: `events: 3 (identical: 3, lhs-only: 0, rhs-only: 0)
digis:  matched=4 mismatched=0 lhs-only=0 rhs-only=0
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := new(strings.Builder)
			same, err := process(o, tc.lhs, tc.rhs, -2, 2, tc.verbose)
			if err != nil {
				t.Fatalf("could not compare files: %+v", err)
			}
			if same != tc.same {
				t.Fatalf("invalid comparison: got=%v, want=%v", same, tc.same)
			}
			if got, want := o.String(), tc.want; got != want {
				t.Fatalf("invalid output:\ngot:\n%s\nwant:\n%s", got, want)
			}
		})
	}
}
