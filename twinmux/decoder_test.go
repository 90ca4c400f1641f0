// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package twinmux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/fed"
	"github.com/go-lpc/rpcraw/link"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
	"pgregory.net/rapid"
)

const (
	testFED = 1390
	testAMC = 2
	testBX  = 100
	testLB  = 1
)

var testDet = func() link.DetID {
	det, err := link.NewDetID(0, -1, 1, 4, 2, 1, 3)
	if err != nil {
		panic(err)
	}
	return det
}()

// testMaps maps every input of AMC testAMC onto link board testLB of the
// same LB link; connector c feeds strips 16c+1 to 16c+16.
func testMaps(t testing.TB) *link.Snapshot {
	t.Helper()

	tms := link.NewBuilder[link.TwinMuxLink, link.LBLink]()
	for in := link.MinTMInput; in <= link.MaxTMInput; in++ {
		tm, err := link.NewTwinMuxLink(testFED, testAMC, in)
		require.NoError(t, err)
		lb, err := link.NewLBLink(testFED, 3, in, link.Wildcard, link.Wildcard)
		require.NoError(t, err)
		require.NoError(t, tms.Insert(tm, lb))
	}

	lbs := link.NewBuilder[link.LBLink, link.FEBConnector]()
	for in := link.MinTMInput; in <= link.MaxTMInput; in++ {
		lb, err := link.NewLBLink(testFED, 3, in, testLB, in)
		require.NoError(t, err)
		feb, err := link.NewFEBConnector(testDet, 16*in+1, +1, 0xffff)
		require.NoError(t, err)
		require.NoError(t, lbs.Insert(lb, feb))
	}

	return &link.Snapshot{
		TwinMux: tms.Build(),
		LB:      lbs.Build(),
	}
}

// linkRecord returns an acknowledged link record of connector conn.
func linkRecord(t testing.TB, conn, delay int, data uint8) LinkRecord {
	t.Helper()
	var lr LinkRecord
	lr.SetAck(true)
	require.NoError(t, lr.SetLinkBoard(testLB))
	require.NoError(t, lr.SetConnector(conn))
	require.NoError(t, lr.SetDelay(delay))
	lr.SetData(data)
	return lr
}

// rpcRecord returns a record where link i fires pin 1 of connector i.
func rpcRecord(t testing.TB, off, delay int) RPCRecord {
	t.Helper()
	rec := NewRPCRecord()
	require.NoError(t, rec.SetBXOffset(off))
	for i := 0; i < NumLinks; i++ {
		require.NoError(t, rec.SetLink(i, linkRecord(t, i, delay, 0x01)))
	}
	return rec
}

type tester interface {
	require.TestingT
	Helper()
}

type amcOpts struct {
	amc    int // AMC number of the block
	hdrAMC int // AMC number of the payload header
	window int // RPC window of the payload header
	namc   int
}

func buffer(t tester, o amcOpts, data ...uint64) []uint64 {
	t.Helper()
	if o.namc == 0 {
		o.namc = 1
	}
	size := len(data) + 3

	bh, err := NewBlockHeader(o.namc, 42)
	require.NoError(t, err)
	ac, err := NewBlockAMCContent(size, 0, o.amc, 0)
	require.NoError(t, err)
	hdr, err := NewHeader(o.hdrAMC, 1, testBX, size)
	require.NoError(t, err)
	require.NoError(t, hdr.SetRPCWindow(o.window))

	payload := []uint64{uint64(bh), uint64(ac), hdr[0], hdr[1]}
	payload = append(payload, data...)
	payload = append(payload,
		uint64(NewTrailer(0, 1, size)),
		uint64(NewBlockTrailer(0, 0, 1, testBX)),
	)
	return fed.Frame(fed.NewHeader(1, 1, testBX, testFED, 0, false), payload)
}

var defaultOpts = amcOpts{amc: testAMC, hdrAMC: testAMC}

func strips(ds []digi.Digi) []int {
	o := make([]int, len(ds))
	for i, d := range ds {
		o[i] = d.Strip
	}
	return o
}

func decode(t testing.TB, dec *Decoder, ws []uint64) ([]digi.Digi, Counters) {
	t.Helper()
	dst := digi.NewSet()
	cnt, err := dec.Decode(testFED, fed.Bytes(ws), dst)
	require.NoError(t, err)
	return dst.Digis(), cnt
}

func TestDecodePairing(t *testing.T) {
	rec := rpcRecord(t, 0, 0)
	for _, tc := range []struct {
		name   string
		data   []uint64
		strips []int
		cnt    Counters
	}{
		{
			name:   "pair",
			data:   []uint64{rec.First, rec.Second},
			strips: []int{1, 17, 33, 49, 65},
			cnt:    Counters{Blocks: 1, AMCs: 1, Records: 1},
		},
		{
			name:   "dangling-first",
			data:   []uint64{rec.First},
			strips: []int{1, 17},
			cnt:    Counters{Blocks: 1, AMCs: 1, Records: 1},
		},
		{
			name:   "first-first-second",
			data:   []uint64{rec.First, rec.First, rec.Second},
			strips: []int{1, 17, 33, 49, 65},
			cnt:    Counters{Blocks: 1, AMCs: 1, Records: 2},
		},
		{
			name:   "second-without-first",
			data:   []uint64{rec.Second},
			strips: []int{33, 49, 65},
			cnt:    Counters{Blocks: 1, AMCs: 1, Records: 1, UnpairedSecond: 1},
		},
		{
			name:   "error-and-unknown",
			data:   []uint64{0xf000000000000000, rec.First, 0x1, rec.Second},
			strips: []int{1, 17, 33, 49, 65},
			cnt:    Counters{Blocks: 1, AMCs: 1, Records: 1, ErrorRecord: 1, UnknownRecord: 1},
		},
		{
			name: "empty-payload",
			cnt:  Counters{Blocks: 1, AMCs: 1},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dec := NewDecoder(testMaps(t))
			got, cnt := decode(t, dec, buffer(t, defaultOpts, tc.data...))
			if diff := cmp.Diff(tc.strips, strips(got)); diff != "" && len(tc.strips)+len(got) != 0 {
				t.Fatalf("invalid strips (-want +got):\n%s", diff)
			}
			for _, d := range got {
				if d.Det != testDet || d.BX != 0 {
					t.Fatalf("invalid digi: %v", d)
				}
			}
			if diff := cmp.Diff(tc.cnt, cnt); diff != "" {
				t.Fatalf("invalid counters (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeSecondWithoutFirst(t *testing.T) {
	rec := NewRPCRecord()
	require.NoError(t, rec.SetLink(4, linkRecord(t, 4, 0, 0x80)))

	buf := new(bytes.Buffer)
	dec := NewDecoder(testMaps(t), WithLogger(log.New(buf)))
	got, cnt := decode(t, dec, buffer(t, defaultOpts, rec.Second))

	want := []digi.Digi{{Det: testDet, Strip: 16*4 + 8, BX: 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("invalid digis (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, cnt.UnpairedSecond)
	assert.Equal(t, 1, strings.Count(buf.String(), "second RPC word without first"))
}

func TestDecodeBXWindow(t *testing.T) {
	for _, tc := range []struct {
		name   string
		opts   []Option
		window int
		off    int
		delay  int
		want   int // expected bx, if in window
		in     bool
	}{
		{name: "default", off: 2, delay: 0, want: 2, in: true},
		{name: "delay", off: 3, delay: 2, want: 1, in: true},
		{name: "below", off: 0, delay: 3, in: false},
		{name: "above", off: 3, delay: 0, in: false},
		{name: "header-clamp", window: 2, off: 2, delay: 0, in: false},
		{name: "header-clamp-in", window: 2, off: 1, delay: 0, want: 1, in: true},
		{name: "header-wider", window: 31, off: 3, delay: 0, in: false},
		{name: "configured", opts: []Option{WithBXWindow(-8, 8)}, off: -8, delay: 0, want: -8, in: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := rpcRecord(t, tc.off, tc.delay)
			o := defaultOpts
			o.window = tc.window

			dec := NewDecoder(testMaps(t), tc.opts...)
			got, cnt := decode(t, dec, buffer(t, o, rec.First, rec.Second))
			if !tc.in {
				assert.Len(t, got, 0)
				assert.Equal(t, NumLinks, cnt.OutOfWindow)
				return
			}
			require.Len(t, got, NumLinks)
			for _, d := range got {
				assert.Equal(t, tc.want, d.BX)
			}
			assert.Equal(t, 0, cnt.OutOfWindow)
		})
	}
}

func TestDecodeLinkSkips(t *testing.T) {
	var (
		bad   = linkRecord(t, 0, 0, 1)
		noack = linkRecord(t, 1, 0, 1)
		empty = linkRecord(t, 2, 0, 0)
		inval = linkRecord(t, 0, 0, 1)
		nolb  = linkRecord(t, 4, 0, 1)
	)
	bad.SetError(true)
	noack.SetAck(false)
	require.NoError(t, inval.SetConnector(6))
	require.NoError(t, nolb.SetLinkBoard(0))

	rec := NewRPCRecord()
	for i, lr := range []LinkRecord{bad, noack, empty, inval, nolb} {
		require.NoError(t, rec.SetLink(i, lr))
	}

	dec := NewDecoder(testMaps(t))
	got, cnt := decode(t, dec, buffer(t, defaultOpts, rec.First, rec.Second))
	assert.Len(t, got, 0)
	assert.Equal(t, 1, cnt.LinkError)
	assert.Equal(t, 1, cnt.LinkNoAck)
	assert.Equal(t, 1, cnt.InvalidLink)
	assert.Equal(t, 1, cnt.UnknownLink)
	assert.Equal(t, 4, cnt.Errors())
}

func TestDecodeUnknownTwinMuxLink(t *testing.T) {
	rec := rpcRecord(t, 0, 0)
	o := amcOpts{amc: 5, hdrAMC: 5}

	dec := NewDecoder(testMaps(t))
	got, cnt := decode(t, dec, buffer(t, o, rec.First, rec.Second))
	assert.Len(t, got, 0)
	assert.Equal(t, NumLinks, cnt.UnknownLink)

	o = amcOpts{amc: 13, hdrAMC: 13}
	got, cnt = decode(t, dec, buffer(t, o, rec.First, rec.Second))
	assert.Len(t, got, 0)
	assert.Equal(t, NumLinks, cnt.InvalidLink)
}

func TestDecodeNilSnapshot(t *testing.T) {
	rec := rpcRecord(t, 0, 0)

	dec := NewDecoder(nil)
	got, cnt := decode(t, dec, buffer(t, defaultOpts, rec.First, rec.Second))
	assert.Len(t, got, 0)
	assert.Equal(t, NumLinks, cnt.UnknownLink)
}

func TestDecodeMalformedBlocks(t *testing.T) {
	rec := rpcRecord(t, 0, 0)
	for _, tc := range []struct {
		name  string
		ws    []uint64
		count func(c Counters) int
	}{
		{
			name:  "amc-mismatch",
			ws:    buffer(t, amcOpts{amc: testAMC, hdrAMC: testAMC + 1}, rec.First, rec.Second),
			count: func(c Counters) int { return c.AMCMismatch },
		},
		{
			name:  "block-overflow",
			ws:    buffer(t, amcOpts{amc: testAMC, hdrAMC: testAMC, namc: 8}, rec.First, rec.Second),
			count: func(c Counters) int { return c.BlockOverflow },
		},
		{
			name: "amc-overflow",
			ws: func() []uint64 {
				ws := buffer(t, defaultOpts, rec.First, rec.Second)
				ac, err := NewBlockAMCContent(64, 0, testAMC, 0)
				require.NoError(t, err)
				ws[2] = uint64(ac)
				return ws
			}(),
			count: func(c Counters) int { return c.InvalidAMCSize },
		},
		{
			name: "amc-too-small",
			ws: func() []uint64 {
				ws := buffer(t, defaultOpts, rec.First, rec.Second)
				ac, err := NewBlockAMCContent(2, 0, testAMC, 0)
				require.NoError(t, err)
				ws[2] = uint64(ac)
				return ws
			}(),
			count: func(c Counters) int { return c.InvalidAMCSize },
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dec := NewDecoder(testMaps(t), WithCRC(false))
			got, cnt := decode(t, dec, tc.ws)
			assert.Len(t, got, 0)
			assert.Equal(t, 1, tc.count(cnt))
		})
	}
}

func TestDecodeCRC(t *testing.T) {
	rec := rpcRecord(t, 0, 0)
	ws := buffer(t, defaultOpts, rec.First, rec.Second)

	buf := new(bytes.Buffer)
	dec := NewDecoder(testMaps(t), WithLogger(log.New(buf)))
	_, cnt := decode(t, dec, ws)
	assert.Equal(t, 0, cnt.InconsistentCRC)
	assert.Equal(t, "", buf.String())

	tr := fed.Trailer(ws[len(ws)-1])
	ws[len(ws)-1] = uint64(tr.WithCRC(^tr.CRC()))

	got, cnt := decode(t, dec, ws)
	assert.Len(t, got, NumLinks)
	assert.Equal(t, 1, cnt.InconsistentCRC)
	assert.Equal(t, 1, strings.Count(buf.String(), "inconsistent CRC"))

	dec = NewDecoder(testMaps(t), WithCRC(false))
	_, cnt = decode(t, dec, ws)
	assert.Equal(t, 0, cnt.InconsistentCRC)
}

func TestDecodeFrameErrors(t *testing.T) {
	dec := NewDecoder(testMaps(t))
	dst := digi.NewSet()

	_, err := dec.Decode(testFED, make([]byte, 12), dst)
	assert.True(t, xerrors.Is(err, fed.ErrNotAligned))

	ws := buffer(t, defaultOpts)
	ws[0] = 0
	cnt, err := dec.Decode(testFED, fed.Bytes(ws), dst)
	assert.True(t, xerrors.Is(err, fed.ErrHeader))
	assert.Equal(t, 1, cnt.HeaderCheckFail)

	ws = buffer(t, defaultOpts)
	ws[len(ws)-1] = uint64(fed.NewTrailer(len(ws)-1, 0, 0, 0, false))
	cnt, err = dec.Decode(testFED, fed.Bytes(ws), dst)
	assert.True(t, xerrors.Is(err, fed.ErrSize))
	assert.Equal(t, 1, cnt.InconsistentSize)

	assert.Equal(t, 0, dst.Len())
}

func TestDecodeRandom(t *testing.T) {
	maps := testMaps(t)
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Uint64(), 0, 12).Draw(t, "data")
		namc := rapid.IntRange(0, 15).Draw(t, "namc")
		size := rapid.IntRange(0, 20).Draw(t, "size")

		ws := buffer(t, defaultOpts, data...)
		bh, err := NewBlockHeader(namc, 0)
		if err != nil {
			t.Fatal(err)
		}
		ac, err := NewBlockAMCContent(size, 0, testAMC, 0)
		if err != nil {
			t.Fatal(err)
		}
		ws[1] = uint64(bh)
		ws[2] = uint64(ac)

		dec := NewDecoder(maps, WithCRC(false))
		dst := digi.NewSet()
		if _, err := dec.Decode(testFED, fed.Bytes(ws), dst); err != nil {
			t.Fatalf("could not decode well-framed buffer: %+v", err)
		}
		for _, d := range dst.Digis() {
			if d.Det != testDet || d.BX < DefaultBXMin || d.BX > DefaultBXMax {
				t.Fatalf("invalid digi: %v", d)
			}
		}
	})
}

func TestCountersAdd(t *testing.T) {
	a := Counters{Blocks: 1, UnknownLink: 2}
	a.Add(Counters{Blocks: 2, UnknownLink: 1, OutOfWindow: 4})
	assert.Equal(t, Counters{Blocks: 3, UnknownLink: 3, OutOfWindow: 4}, a)
	assert.Equal(t, 7, a.Errors())

	n := 0
	a.Each(func(string, int) { n++ })
	assert.Equal(t, 16, n)
}
