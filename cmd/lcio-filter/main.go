// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command lcio-filter reads a LCIO file of RPC digis and writes the digis
// within a bunch crossing window to a new LCIO file, optionally rewriting
// its run number.
package main // import "github.com/go-lpc/rpcraw/cmd/lcio-filter"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"

	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

func main() {
	log.SetPrefix("lcio-filter: ")
	log.SetFlags(0)

	var (
		runnbr = flag.Int("run", -1, "run number to use for output LCIO file (-1: keep input run number)")
		oname  = flag.String("o", "out.lcio", "path to output filtered LCIO file")
		bxMin  = flag.Int("bx-min", -8, "minimum bunch crossing to keep")
		bxMax  = flag.Int("bx-max", +8, "maximum bunch crossing to keep")
		drop   = flag.Bool("drop-empty", false, "drop events without any digi")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: lcio-filter [OPTIONS] FILE.lcio

ex:
 $> lcio-filter -o output.lcio -run=1234 -bx-min=-1 -bx-max=1 ./input.lcio
 lcio-filter: processing event 0...
 lcio-filter: processing event 10...
 lcio-filter: processed 16 events (kept 12, digis 37/52)

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input LCIO file to filter")
	}

	r, err := lcio.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("could not open input LCIO file: %+v", err)
	}
	defer r.Close()

	w, err := lcio.Create(*oname)
	if err != nil {
		log.Fatalf("could not create output LCIO file: %+v", err)
	}
	defer w.Close()

	w.SetCompressionLevel(flate.BestCompression)

	sel := selector{
		run:   *runnbr,
		bxMin: *bxMin,
		bxMax: *bxMax,
		drop:  *drop,
	}

	stats, err := process(w, r, sel)
	if err != nil {
		log.Fatalf("could not filter %q: %+v", flag.Arg(0), err)
	}

	err = w.Close()
	if err != nil {
		log.Fatalf("could not close output file: %+v", err)
	}

	log.Printf(
		"processed %d events (kept %d, digis %d/%d)",
		stats.nevts, stats.nkept, stats.ndigisOut, stats.ndigisIn,
	)
}

type selector struct {
	run   int // output run number, or -1
	bxMin int
	bxMax int
	drop  bool
}

func (sel selector) filter(set *digi.Set) *digi.Set {
	out := digi.NewSet()
	for _, d := range set.Digis() {
		if d.BX < sel.bxMin || sel.bxMax < d.BX {
			continue
		}
		out.Insert(d)
	}
	return out
}

type stats struct {
	nevts     int
	nkept     int
	ndigisIn  int
	ndigisOut int
}

func process(w *lcio.Writer, r *lcio.Reader, sel selector) (stats, error) {
	var st stats

	err := xcnv.ForEach(r, func(evt *lcio.Event, set *digi.Set) error {
		if st.nevts == 0 {
			rhdr := r.RunHeader()
			if sel.run >= 0 {
				rhdr.RunNumber = int32(sel.run)
			}
			err := w.WriteRunHeader(&rhdr)
			if err != nil {
				return fmt.Errorf("could not write run header: %w", err)
			}
		}
		if st.nevts%10 == 0 {
			log.Printf("processing event %d...", evt.EventNumber)
		}
		st.nevts++

		out := sel.filter(set)
		st.ndigisIn += set.Len()
		st.ndigisOut += out.Len()
		if sel.drop && out.Len() == 0 {
			return nil
		}

		oevt := lcio.Event{
			RunNumber:   evt.RunNumber,
			EventNumber: evt.EventNumber,
			TimeStamp:   evt.TimeStamp,
			Detector:    evt.Detector,
			Params:      evt.Params,
		}
		if sel.run >= 0 {
			oevt.RunNumber = int32(sel.run)
		}
		for _, name := range evt.Names() {
			if name == xcnv.Collection {
				oevt.Add(name, xcnv.NewGenericObject(out))
				continue
			}
			oevt.Add(name, evt.Get(name))
		}

		err := w.WriteEvent(&oevt)
		if err != nil {
			return fmt.Errorf("could not write evt %d: %w", evt.EventNumber, err)
		}
		st.nkept++
		return nil
	})
	if err != nil {
		return st, fmt.Errorf("could not filter LCIO file: %w", err)
	}

	return st, nil
}
