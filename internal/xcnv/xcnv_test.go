// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"bytes"
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/go-lpc/rpcraw/dcc"
	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/fed"
	"github.com/go-lpc/rpcraw/internal/eformat"
	"github.com/go-lpc/rpcraw/link"
	"github.com/go-lpc/rpcraw/unpack"
	"github.com/google/go-cmp/cmp"
	"go-hep.org/x/hep/lcio"
)

const (
	testFED  = 790
	testRun  = 42
	testBX   = 100
	testDCC  = 3
	testTB   = 4
	testLB   = 1
	testConn = 5
)

func testStore(t *testing.T, det link.DetID) *link.Store {
	t.Helper()

	dlink, err := link.NewDCCLink(testFED, testDCC, testTB)
	if err != nil {
		t.Fatalf("could not create dcc link: %+v", err)
	}
	base, err := link.NewLBLink(testFED, testDCC, testTB, link.Wildcard, link.Wildcard)
	if err != nil {
		t.Fatalf("could not create lb link: %+v", err)
	}
	lb, err := link.NewLBLink(testFED, testDCC, testTB, testLB, testConn)
	if err != nil {
		t.Fatalf("could not create lb link: %+v", err)
	}
	feb, err := link.NewFEBConnector(det, 1, +1, 0xffff)
	if err != nil {
		t.Fatalf("could not create feb connector: %+v", err)
	}

	dccs := link.NewBuilder[link.DCCLink, link.LBLink]()
	if err := dccs.Insert(dlink, base); err != nil {
		t.Fatalf("could not insert dcc link: %+v", err)
	}
	lbs := link.NewBuilder[link.LBLink, link.FEBConnector]()
	if err := lbs.Insert(lb, feb); err != nil {
		t.Fatalf("could not insert lb link: %+v", err)
	}

	store := new(link.Store)
	store.Publish(&link.Snapshot{
		DCC:     dccs.Build(),
		TwinMux: link.NewBuilder[link.TwinMuxLink, link.LBLink]().Build(),
		LB:      lbs.Build(),
	})
	return store
}

// dccFrame returns a DCC frame with a single hit on the given pin
// of the test connector, at the given relative bunch crossing.
func dccFrame(t *testing.T, pin, bx int) []byte {
	t.Helper()

	var (
		sbxd = dcc.NewSBXDRecord()
		sld  = dcc.NewSLDRecord()
		cd   = dcc.NewCDRecord()
	)
	for _, err := range []error{
		sbxd.SetBX(testBX + bx),
		sld.SetDCCInput(testDCC),
		sld.SetTBInput(testTB),
		cd.SetLinkBoard(testLB),
		cd.SetConnector(testConn),
		cd.SetPartition((pin - 1) / 8),
	} {
		if err != nil {
			t.Fatalf("could not build record: %+v", err)
		}
	}
	cd.SetData(1 << ((pin - 1) % 8))

	w := uint64(sbxd)<<48 | uint64(sld)<<32 | uint64(cd)<<16 | uint64(dcc.EmptyRecord)
	return fed.Bytes(fed.Frame(fed.NewHeader(1, 1, testBX, testFED, 0, false), []uint64{w}))
}

func TestRaw2LCIO(t *testing.T) {
	det, err := link.NewDetID(0, 1, 2, 7, 1, 1, 2)
	if err != nil {
		t.Fatalf("could not create det-id: %+v", err)
	}

	var (
		ctx   = context.Background()
		msg   = log.New(io.Discard, "", 0)
		fname = filepath.Join(t.TempDir(), "run.lcio")
		raw   = new(bytes.Buffer)
		enc   = eformat.NewEncoder(raw)
		want  = [][]digi.Digi{
			{{Det: det, Strip: 3, BX: 0}},
			{{Det: det, Strip: 12, BX: -2}},
			{},
		}
	)

	for i, evt := range []eformat.Event{
		eformat.EventFrom(testRun, 1, testBX, map[int][]byte{testFED: dccFrame(t, 3, 0)}),
		eformat.EventFrom(testRun, 2, testBX, map[int][]byte{testFED: dccFrame(t, 12, -2)}),
		eformat.EventFrom(testRun, 3, testBX, map[int][]byte{testFED + 1: dccFrame(t, 1, 0)}),
	} {
		err := enc.Encode(&evt)
		if err != nil {
			t.Fatalf("could not encode event %d: %+v", i, err)
		}
	}

	u, err := unpack.New(unpack.DefaultConfig(), testStore(t, det), nil)
	if err != nil {
		t.Fatalf("could not create unpacker: %+v", err)
	}

	w, err := lcio.Create(fname)
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer w.Close()

	rep, err := Raw2LCIO(ctx, w, eformat.NewDecoder(raw), u, 1, msg)
	if err != nil {
		t.Fatalf("could not convert to LCIO: %+v", err)
	}
	err = w.Close()
	if err != nil {
		t.Fatalf("could not close LCIO file: %+v", err)
	}

	if got, want := rep.Events, 3; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
	if got, want := rep.FEDs[testFED].Buffers, 2; got != want {
		t.Fatalf("invalid number of buffers: got=%d, want=%d", got, want)
	}
	if got, want := rep.Errors(), 0; got != want {
		t.Fatalf("invalid number of errors: got=%d, want=%d", got, want)
	}

	r, err := lcio.Open(fname)
	if err != nil {
		t.Fatalf("could not open LCIO file: %+v", err)
	}
	defer r.Close()

	i := 0
	err = ForEach(r, func(evt *lcio.Event, set *digi.Set) error {
		if got, want := evt.RunNumber, int32(testRun); got != want {
			t.Fatalf("invalid run number: got=%d, want=%d", got, want)
		}
		if got, want := evt.EventNumber, int32(i+1); got != want {
			t.Fatalf("invalid event number: got=%d, want=%d", got, want)
		}
		if diff := cmp.Diff(want[i], set.Digis()); diff != "" {
			t.Fatalf("invalid digis for event %d (-want +got):\n%s", i, diff)
		}
		i++
		return nil
	})
	if err != nil {
		t.Fatalf("could not read back digis: %+v", err)
	}
	if i != len(want) {
		t.Fatalf("invalid number of events: got=%d, want=%d", i, len(want))
	}

	hdr := r.RunHeader()
	if got, want := hdr.Params.Strings["Format"], []string{"dcc"}; !cmp.Equal(got, want) {
		t.Fatalf("invalid format parameter: got=%q, want=%q", got, want)
	}
}

func TestDigisFrom(t *testing.T) {
	set := digi.NewSet()
	set.Insert(digi.Digi{Det: 0x42, Strip: 96, BX: -3})
	set.Insert(digi.Digi{Det: 0x42, Strip: 1, BX: 2})
	set.Insert(digi.Digi{Det: 0x2a, Strip: 5, BX: 0})

	got, err := DigisFrom(NewGenericObject(set))
	if err != nil {
		t.Fatalf("could not unpack digis: %+v", err)
	}
	if diff := cmp.Diff(set.Digis(), got.Digis()); diff != "" {
		t.Fatalf("invalid digis (-want +got):\n%s", diff)
	}

	_, err = DigisFrom(&lcio.GenericObject{
		Data: []lcio.GenericObjectData{{I32s: []int32{1, 2}}},
	})
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestReadDigis(t *testing.T) {
	var evt lcio.Event
	_, err := ReadDigis(&evt)
	if err == nil {
		t.Fatalf("expected an error for a missing collection")
	}

	evt.Add(Collection, &lcio.CalorimeterHitContainer{})
	_, err = ReadDigis(&evt)
	if err == nil {
		t.Fatalf("expected an error for an invalid collection type")
	}
}
