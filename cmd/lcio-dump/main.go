// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lcio-dump displays the RPC digis stored in LCIO files.
//
// Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> lcio-dump ./run_000042.lcio
//	=== run 42, event 1 ===
//	digis: 3
//	  RPC(re=0,ri=1,st=2,se=7,la=1,su=1,ro=2)
//	    strip=  3 bx= 0
//	    strip= 12 bx=-1
//	  RPC(re=1,ri=2,st=4,se=12,la=2,su=3,ro=3)
//	    strip= 96 bx= 2
//	[...]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

const usage = `lcio-dump displays the RPC digis stored in LCIO files.

Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> lcio-dump ./run_000042.lcio
 === run 42, event 1 ===
 digis: 3
   RPC(re=0,ri=1,st=2,se=7,la=1,su=1,ro=2)
     strip=  3 bx= 0
     strip= 12 bx=-1
   RPC(re=1,ri=2,st=4,se=12,la=2,su=3,ro=3)
     strip= 96 bx= 2
 [...]

`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("lcio-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("lcio", flag.ExitOnError)

		summary = fset.Bool("s", false, "only display the number of digis per event")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input LCIO file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, *summary)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, summary bool) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	err = xcnv.ForEach(r, func(evt *lcio.Event, set *digi.Set) error {
		fmt.Fprintf(wbuf, "=== run %d, event %d ===\n", evt.RunNumber, evt.EventNumber)
		fmt.Fprintf(wbuf, "digis: %d\n", set.Len())
		if summary {
			return nil
		}
		for _, grp := range set.Groups() {
			fmt.Fprintf(wbuf, "  %v\n", grp.Det)
			for _, d := range grp.Digis {
				fmt.Fprintf(wbuf, "    strip=%3d bx=%2d\n", d.Strip, d.BX)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not read digis: %w", err)
	}

	return wbuf.Flush()
}
