// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/internal/xcnv"
	"github.com/go-lpc/rpcraw/link"
	"go-hep.org/x/hep/lcio"
)

func TestProcess(t *testing.T) {
	var (
		fname = filepath.Join(t.TempDir(), "run_000042.lcio")
		dets  [2]link.DetID
	)
	for i, loc := range [][7]int{
		{0, 1, 2, 7, 1, 1, 2},
		{1, 2, 4, 12, 2, 3, 3},
	} {
		det, err := link.NewDetID(loc[0], loc[1], loc[2], loc[3], loc[4], loc[5], loc[6])
		if err != nil {
			t.Fatalf("could not create det-id: %+v", err)
		}
		dets[i] = det
	}

	w, err := lcio.Create(fname)
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer w.Close()

	set := digi.NewSet()
	set.Insert(digi.Digi{Det: dets[0], Strip: 12, BX: -1})
	set.Insert(digi.Digi{Det: dets[1], Strip: 96, BX: 2})
	set.Insert(digi.Digi{Det: dets[0], Strip: 3, BX: 0})

	evt := lcio.Event{RunNumber: 42, EventNumber: 1, Detector: xcnv.Detector}
	evt.Add(xcnv.Collection, xcnv.NewGenericObject(set))
	if err := w.WriteEvent(&evt); err != nil {
		t.Fatalf("could not write event: %+v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("could not close LCIO file: %+v", err)
	}

	for _, tc := range []struct {
		summary bool
		want    string
	}{
		{
			want: `=== run 42, event 1 ===
digis: 3
  RPC(re=0,ri=1,st=2,se=7,la=1,su=1,ro=2)
    strip=  3 bx= 0
    strip= 12 bx=-1
  RPC(re=1,ri=2,st=4,se=12,la=2,su=3,ro=3)
    strip= 96 bx= 2
`,
		},
		{
			summary: true,
			want: `=== run 42, event 1 ===
digis: 3
`,
		},
	} {
		o := new(strings.Builder)
		err := process(o, fname, tc.summary)
		if err != nil {
			t.Fatalf("could not dump LCIO file: %+v", err)
		}
		if got, want := o.String(), tc.want; got != want {
			t.Fatalf("invalid dump:\ngot:\n%s\nwant:\n%s", got, want)
		}
	}
}
