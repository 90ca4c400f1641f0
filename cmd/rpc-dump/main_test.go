// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/rpcraw/fed"
	"github.com/go-lpc/rpcraw/internal/eformat"
)

func TestProcess(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "run_000042.raw")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create raw file: %+v", err)
	}
	defer f.Close()

	frame := fed.Bytes(fed.Frame(
		fed.NewHeader(1, 1, 100, 790, 0, false),
		[]uint64{0xd064f8646804e800},
	))
	evt := eformat.EventFrom(42, 1, 100, map[int][]byte{
		790: frame,
		791: frame[:7],
	})
	err = eformat.NewEncoder(f).Encode(&evt)
	if err != nil {
		t.Fatalf("could not encode raw event: %+v", err)
	}
	err = f.Close()
	if err != nil {
		t.Fatalf("could not close raw file: %+v", err)
	}

	for _, tc := range []struct {
		name string
		opts options
		want string
	}{
		{
			name: "records",
			opts: options{format: "dcc", records: true, feds: []int{790}},
			want: `=== run 42, event 1, bx 100 ===
--- FED 790 ---
header:  evt-type=1 lv1-id=1 bx-id=100 source-id=790 version=0
trailer: length=3 crc=0xe874 evt-stat=0 tts=0
  [0000] 0xd064f8646804e800
    SBXD  bx=100
    SLD   dcc-input=3 tb-input=4
    CD    lb=1 conn=5 partition=0 data=0x04
    Empty
`,
		},
		{
			name: "headers",
			opts: options{format: "dcc"},
			want: `=== run 42, event 1, bx 100 ===
--- FED 790 ---
header:  evt-type=1 lv1-id=1 bx-id=100 source-id=790 version=0
trailer: length=3 crc=0xe874 evt-stat=0 tts=0
--- FED 791 ---
invalid frame: fed: 7 bytes: fed: buffer size is not a multiple of 8 bytes
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := new(strings.Builder)
			err := process(o, fname, tc.opts)
			if err != nil {
				t.Fatalf("could not process file: %+v", err)
			}
			if got, want := o.String(), tc.want; got != want {
				t.Fatalf("invalid output:\ngot:\n%s\nwant:\n%s", got, want)
			}
		})
	}
}
