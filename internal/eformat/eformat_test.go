// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eformat

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"golang.org/x/xerrors"
)

func TestRW(t *testing.T) {
	evts := []Event{
		{
			Run:   315000,
			Event: 1,
			BX:    100,
			FEDs: []FED{
				{ID: 790, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
				{ID: 791, Data: []byte{}},
			},
		},
		{
			Run:   315000,
			Event: 2,
			BX:    3563,
			FEDs:  []FED{},
		},
		{
			Run:   315000,
			Event: 3,
			BX:    0,
			FEDs: []FED{
				{ID: 1390, Data: bytes.Repeat([]byte{0xff}, 64)},
			},
		},
	}

	buf := new(bytes.Buffer)
	enc := NewEncoder(buf)
	for i := range evts {
		err := enc.Encode(&evts[i])
		if err != nil {
			t.Fatalf("could not encode event %d: %+v", i, err)
		}
	}

	if got, want := buf.String()[:4], "RPCR"; got != want {
		t.Fatalf("invalid magic: got=%q, want=%q", got, want)
	}

	dec := NewDecoder(bytes.NewReader(buf.Bytes()))
	for i, want := range evts {
		var got Event
		err := dec.Decode(&got)
		if err != nil {
			t.Fatalf("could not decode event %d: %+v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid event %d:\ngot= %+v\nwant=%+v", i, got, want)
		}
	}

	var evt Event
	err := dec.Decode(&evt)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got=%+v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	buf := new(bytes.Buffer)
	err := NewEncoder(buf).Encode(&Event{
		Run: 1, Event: 2, BX: 3,
		FEDs: []FED{{ID: 790, Data: make([]byte, 16)}},
	})
	if err != nil {
		t.Fatalf("could not encode event: %+v", err)
	}
	raw := buf.Bytes()

	for _, tc := range []struct {
		name string
		raw  []byte
		want error
	}{
		{"empty", nil, io.EOF},
		{"magic", []byte("RPCX"), nil},
		{"short-magic", []byte("RP"), io.ErrUnexpectedEOF},
		{"short-header", raw[:10], io.ErrUnexpectedEOF},
		{"short-fed-header", raw[:4+16+4], io.ErrUnexpectedEOF},
		{"short-fed", raw[:len(raw)-1], io.ErrUnexpectedEOF},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var evt Event
			err := NewDecoder(bytes.NewReader(tc.raw)).Decode(&evt)
			switch {
			case err == nil:
				t.Fatalf("expected an error")
			case tc.want != nil && !xerrors.Is(err, tc.want):
				t.Fatalf("invalid error: got=%+v, want=%+v", err, tc.want)
			}
		})
	}
}

func TestEventFrom(t *testing.T) {
	raw := map[int][]byte{
		791: {2},
		790: {1},
	}
	evt := EventFrom(1, 2, 3, raw)
	want := []FED{{ID: 790, Data: []byte{1}}, {ID: 791, Data: []byte{2}}}
	if !reflect.DeepEqual(evt.FEDs, want) {
		t.Fatalf("invalid FEDs: got=%v, want=%v", evt.FEDs, want)
	}
	if got := evt.Raw(); !reflect.DeepEqual(got, raw) {
		t.Fatalf("invalid raw buffers: got=%v, want=%v", got, raw)
	}
}
