// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// rpc-compare compares, event by event, the RPC digis of two LCIO files,
// e.g. the DCC and TwinMux unpackings of the same run.
//
// Usage: rpc-compare [OPTIONS] LHS.lcio RHS.lcio
//
// Example:
//
//	$> rpc-compare --bx-min=-2 --bx-max=2 ./dcc.lcio ./twinmux.lcio
//	event 12: matched=4 mismatched=1 lhs-only=0 rhs-only=1
//	  ~ {det=0x2600a145 strip=12 bx=0} {det=0x2600a145 strip=12 bx=1}
//	  > {det=0x2600a145 strip=40 bx=-2}
//	events: 100 (identical: 99, lhs-only: 0, rhs-only: 0)
//	digis:  matched=412 mismatched=1 lhs-only=0 rhs-only=1
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/internal/xcnv"
	"github.com/spf13/pflag"
	"go-hep.org/x/hep/lcio"
)

const usage = `rpc-compare compares, event by event, the RPC digis of two LCIO files.

Usage: rpc-compare [OPTIONS] LHS.lcio RHS.lcio

Example:

 $> rpc-compare --bx-min=-2 --bx-max=2 ./dcc.lcio ./twinmux.lcio

Options:
`

func main() {
	log.SetPrefix("rpc-compare: ")
	log.SetFlags(0)

	var (
		bxMin   = pflag.Int("bx-min", -2, "lowest bunch crossing of compared digis")
		bxMax   = pflag.Int("bx-max", +2, "highest bunch crossing of compared digis")
		verbose = pflag.BoolP("verbose", "v", false, "display the differing digis")
	)

	pflag.Usage = func() {
		fmt.Print(usage)
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if pflag.NArg() != 2 {
		pflag.Usage()
		log.Fatalf("missing path to input LCIO files")
	}

	if *bxMin > *bxMax {
		log.Fatalf("invalid bx window [%d, %d]", *bxMin, *bxMax)
	}

	same, err := process(os.Stdout, pflag.Arg(0), pflag.Arg(1), *bxMin, *bxMax, *verbose)
	if err != nil {
		log.Fatalf("could not compare files: %+v", err)
	}
	if !same {
		os.Exit(1)
	}
}

type stats struct {
	events    int
	identical int
	lhsOnly   int // events only in lhs
	rhsOnly   int // events only in rhs

	matched    int
	mismatched int
	lhsDigis   int
	rhsDigis   int
}

func (st *stats) add(m digi.Matching) {
	st.matched += len(m.Matched)
	st.mismatched += len(m.Mismatched)
	st.lhsDigis += len(m.OnlyLHS)
	st.rhsDigis += len(m.OnlyRHS)
}

func readAll(fname string) (map[int32]*digi.Set, []int32, error) {
	r, err := lcio.Open(fname)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	var (
		sets = make(map[int32]*digi.Set)
		evts []int32
	)
	err = xcnv.ForEach(r, func(evt *lcio.Event, set *digi.Set) error {
		if _, dup := sets[evt.EventNumber]; dup {
			return fmt.Errorf("duplicate event %d", evt.EventNumber)
		}
		sets[evt.EventNumber] = set
		evts = append(evts, evt.EventNumber)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not read %q: %w", fname, err)
	}
	return sets, evts, nil
}

// process compares the two files and reports whether their digis are
// identical.
func process(w io.Writer, lhs, rhs string, bxMin, bxMax int, verbose bool) (bool, error) {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	lsets, levts, err := readAll(lhs)
	if err != nil {
		return false, err
	}
	rsets, revts, err := readAll(rhs)
	if err != nil {
		return false, err
	}

	var st stats
	for _, id := range levts {
		st.events++
		rset, ok := rsets[id]
		if !ok {
			st.lhsOnly++
			fmt.Fprintf(wbuf, "event %d: missing from rhs\n", id)
			continue
		}
		m := digi.Match(lsets[id], rset, bxMin, bxMax)
		st.add(m)
		if m.Identical() {
			st.identical++
			continue
		}
		fmt.Fprintf(wbuf, "event %d: matched=%d mismatched=%d lhs-only=%d rhs-only=%d\n",
			id, len(m.Matched), len(m.Mismatched), len(m.OnlyLHS), len(m.OnlyRHS),
		)
		if !verbose {
			continue
		}
		for _, p := range m.Mismatched {
			fmt.Fprintf(wbuf, "  ~ %v %v\n", p.LHS, p.RHS)
		}
		for _, d := range m.OnlyLHS {
			fmt.Fprintf(wbuf, "  < %v\n", d)
		}
		for _, d := range m.OnlyRHS {
			fmt.Fprintf(wbuf, "  > %v\n", d)
		}
	}
	for _, id := range revts {
		if _, ok := lsets[id]; ok {
			continue
		}
		st.events++
		st.rhsOnly++
		fmt.Fprintf(wbuf, "event %d: missing from lhs\n", id)
	}

	fmt.Fprintf(wbuf, "events: %d (identical: %d, lhs-only: %d, rhs-only: %d)\n",
		st.events, st.identical, st.lhsOnly, st.rhsOnly,
	)
	fmt.Fprintf(wbuf, "digis:  matched=%d mismatched=%d lhs-only=%d rhs-only=%d\n",
		st.matched, st.mismatched, st.lhsDigis, st.rhsDigis,
	)

	return st.identical == st.events, wbuf.Flush()
}
