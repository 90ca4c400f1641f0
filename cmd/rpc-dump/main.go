// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// rpc-dump decodes and displays the FED frames of raw RPC event files.
//
// Usage: rpc-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> rpc-dump -r ./testdata/run_000042.raw
//	=== run 42, event 1, bx 100 ===
//	--- FED 790 ---
//	header:  evt-type=1 lv1-id=1 bx-id=100 source-id=790 version=0
//	trailer: length=3 crc=0xe874 evt-stat=0 tts=0
//	  [0000] 0xd064f8646804e800
//	    SBXD  bx=100
//	    SLD   dcc-input=3 tb-input=4
//	    CD    lb=1 conn=5 partition=0 data=0x04
//	    Empty
//	[...]
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/rpcraw/dcc"
	"github.com/go-lpc/rpcraw/fed"
	"github.com/go-lpc/rpcraw/internal/eformat"
	"github.com/go-lpc/rpcraw/internal/mmap"
	"github.com/go-lpc/rpcraw/twinmux"
	"github.com/spf13/pflag"
)

const usage = `rpc-dump decodes and displays the FED frames of raw RPC event files.

Usage: rpc-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> rpc-dump -r ./testdata/run_000042.raw
 === run 42, event 1, bx 100 ===
 --- FED 790 ---
 header:  evt-type=1 lv1-id=1 bx-id=100 source-id=790 version=0
 trailer: length=3 crc=0xe874 evt-stat=0 tts=0
   [0000] 0xd064f8646804e800
     SBXD  bx=100
     SLD   dcc-input=3 tb-input=4
     CD    lb=1 conn=5 partition=0 data=0x04
     Empty
 [...]

Options:
`

type options struct {
	format  string
	records bool
	feds    []int
}

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("rpc-dump: ")
	log.SetFlags(0)

	var (
		fset = pflag.NewFlagSet("rpc-dump", pflag.ExitOnError)
		opts options
	)
	fset.StringVarP(&opts.format, "format", "f", "dcc", "readout format of the FEDs (dcc, twinmux)")
	fset.BoolVarP(&opts.records, "records", "r", false, "display the payload words and records")
	fset.IntSliceVar(&opts.feds, "feds", nil, "FEDs to display (default: all)")

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	switch opts.format {
	case "dcc", "twinmux":
	default:
		log.Fatalf("invalid format %q", opts.format)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input raw file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, opts)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, opts options) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	h, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer h.Close()

	sel := make(map[int]bool, len(opts.feds))
	for _, id := range opts.feds {
		sel[id] = true
	}

	dec := eformat.NewDecoder(io.NewSectionReader(h, 0, int64(h.Len())))
loop:
	for {
		var evt eformat.Event
		err := dec.Decode(&evt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not decode raw event: %w", err)
		}
		fmt.Fprintf(wbuf, "=== run %d, event %d, bx %d ===\n", evt.Run, evt.Event, evt.BX)
		for _, f := range evt.FEDs {
			if len(sel) > 0 && !sel[int(f.ID)] {
				continue
			}
			dumpFED(wbuf, int(f.ID), f.Data, opts)
		}
	}

	return wbuf.Flush()
}

func dumpFED(w io.Writer, id int, raw []byte, opts options) {
	fmt.Fprintf(w, "--- FED %d ---\n", id)
	ws, err := fed.Words(raw)
	if err != nil {
		fmt.Fprintf(w, "invalid frame: %v\n", err)
		return
	}
	if len(ws) == 0 {
		fmt.Fprintf(w, "empty frame\n")
		return
	}

	var (
		beg  = 0
		end  = len(ws)
		more = true
	)
	for more && beg < end {
		h := fed.Header(ws[beg])
		if !h.Check() {
			fmt.Fprintf(w, "invalid header: 0x%016x\n", uint64(h))
			return
		}
		fmt.Fprintf(w, "header:  evt-type=%d lv1-id=%d bx-id=%d source-id=%d version=%d\n",
			h.EvtType(), h.LV1ID(), h.BXID(), h.SourceID(), h.Version(),
		)
		more = h.MoreHeaders()
		beg++
	}
	more = true
	for more && end > beg {
		t := fed.Trailer(ws[end-1])
		if !t.Check() {
			fmt.Fprintf(w, "invalid trailer: 0x%016x\n", uint64(t))
			return
		}
		fmt.Fprintf(w, "trailer: length=%d crc=0x%04x evt-stat=%d tts=%d\n",
			t.Length(), t.CRC(), t.EvtStat(), t.TTS(),
		)
		more = t.MoreTrailers()
		end--
	}

	if !opts.records {
		return
	}

	for i, word := range ws[beg:end] {
		fmt.Fprintf(w, "  [%04d] 0x%016x\n", i, word)
		switch opts.format {
		case "twinmux":
			fmt.Fprintf(w, "    %v\n", twinmux.TypeOf(word))
		default:
			for j := 3; j >= 0; j-- {
				dumpDCCRecord(w, uint16(word>>(16*j)))
			}
		}
	}
}

func dumpDCCRecord(w io.Writer, r uint16) {
	typ := dcc.TypeOf(r)
	switch typ {
	case dcc.ChamberData:
		cd := dcc.CDRecord(r)
		fmt.Fprintf(w, "    %-5v lb=%d conn=%d partition=%d data=0x%02x\n",
			typ, cd.LinkBoard(), cd.Connector(), cd.Partition(), cd.Data(),
		)
	case dcc.StartOfBXData:
		fmt.Fprintf(w, "    %-5v bx=%d\n", typ, dcc.SBXDRecord(r).BX())
	case dcc.StartOfLinkData:
		sld := dcc.SLDRecord(r)
		fmt.Fprintf(w, "    %-5v dcc-input=%d tb-input=%d\n", typ, sld.DCCInput(), sld.TBInput())
	case dcc.RMBDiscardedDataMarker:
		rddm := dcc.RDDMRecord(r)
		fmt.Fprintf(w, "    %-5v dcc-input=%d tb-input=%d\n", typ, rddm.DCCInput(), rddm.TBInput())
	case dcc.RMBCorruptedDataMarker:
		rcdm := dcc.RCDMRecord(r)
		fmt.Fprintf(w, "    %-5v dcc-input=%d tb-input=%d\n", typ, rcdm.DCCInput(), rcdm.TBInput())
	case dcc.RMBDisabledMarker:
		fmt.Fprintf(w, "    %-5v dcc-input=%d\n", typ, dcc.RDMRecord(r).DCCInput())
	default:
		fmt.Fprintf(w, "    %v\n", typ)
	}
}
