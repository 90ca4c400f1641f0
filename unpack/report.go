// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unpack

import (
	"fmt"
	"io"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// FEDReport is the decoding summary of a FED.
type FEDReport struct {
	Buffers  int            // decoded buffers
	Skipped  int            // buffers skipped on a framing error
	Digis    int            // emitted digis
	Counters map[string]int // non-zero diagnostic counters
	Err      error          // last framing error
}

func newFEDReport() *FEDReport {
	return &FEDReport{Counters: make(map[string]int)}
}

// Errors returns the number of skipped buffers and diagnostic errors.
func (fr *FEDReport) Errors() int {
	n := fr.Skipped
	for _, v := range fr.Counters {
		n += v
	}
	return n
}

// Report is the decoding summary of one or more events.
type Report struct {
	Events int
	FEDs   map[int]*FEDReport
}

// Add accumulates o into r.
func (r *Report) Add(o Report) {
	if r.FEDs == nil {
		r.FEDs = make(map[int]*FEDReport, len(o.FEDs))
	}
	r.Events += o.Events
	for fed, ofr := range o.FEDs {
		fr, ok := r.FEDs[fed]
		if !ok {
			cp := *ofr
			cp.Counters = maps.Clone(ofr.Counters)
			if cp.Counters == nil {
				cp.Counters = make(map[string]int)
			}
			r.FEDs[fed] = &cp
			continue
		}
		fr.Buffers += ofr.Buffers
		fr.Skipped += ofr.Skipped
		fr.Digis += ofr.Digis
		for k, v := range ofr.Counters {
			fr.Counters[k] += v
		}
		if ofr.Err != nil {
			fr.Err = ofr.Err
		}
	}
}

// Errors returns the total number of errors over all FEDs.
func (r Report) Errors() int {
	n := 0
	for _, fr := range r.FEDs {
		n += fr.Errors()
	}
	return n
}

func sortedKeys[K int | string, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// Fprint writes a human readable summary of the report.
func (r Report) Fprint(w io.Writer) error {
	_, err := fmt.Fprintf(w, "events: %d\n", r.Events)
	if err != nil {
		return err
	}
	for _, fed := range sortedKeys(r.FEDs) {
		fr := r.FEDs[fed]
		_, err = fmt.Fprintf(w, "FED %4d: buffers=%d skipped=%d digis=%d errors=%d\n",
			fed, fr.Buffers, fr.Skipped, fr.Digis, fr.Errors(),
		)
		if err != nil {
			return err
		}
		for _, name := range sortedKeys(fr.Counters) {
			_, err = fmt.Fprintf(w, "  %-20s %d\n", name, fr.Counters[name])
			if err != nil {
				return err
			}
		}
	}
	return nil
}
