// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package twinmux

// Counters holds the diagnostic counters of the decoding of a FED.
type Counters struct {
	Blocks  int // decoded blocks
	AMCs    int // decoded AMC payloads
	Records int // decoded RPC records

	HeaderCheckFail  int
	InconsistentFED  int
	TrailerCheckFail int
	InconsistentSize int
	InconsistentCRC  int
	BlockOverflow    int
	InvalidAMCSize   int
	AMCMismatch      int
	UnpairedSecond   int
	LinkError        int
	LinkNoAck        int
	UnknownLink      int
	InvalidLink      int
	OutOfWindow      int
	UnknownRecord    int
	ErrorRecord      int
}

// Add accumulates o into c.
func (c *Counters) Add(o Counters) {
	c.Blocks += o.Blocks
	c.AMCs += o.AMCs
	c.Records += o.Records
	oe := o.errors()
	for i, e := range c.errors() {
		*e.ptr += *oe[i].ptr
	}
}

// Errors returns the total number of errors.
func (c *Counters) Errors() int {
	n := 0
	for _, e := range c.errors() {
		n += *e.ptr
	}
	return n
}

// Each calls f with the name and value of every error counter.
func (c *Counters) Each(f func(name string, v int)) {
	for _, e := range c.errors() {
		f(e.name, *e.ptr)
	}
}

type namedCounter struct {
	name string
	ptr  *int
}

func (c *Counters) errors() []namedCounter {
	return []namedCounter{
		{"header-check-fail", &c.HeaderCheckFail},
		{"inconsistent-fed", &c.InconsistentFED},
		{"trailer-check-fail", &c.TrailerCheckFail},
		{"inconsistent-size", &c.InconsistentSize},
		{"inconsistent-crc", &c.InconsistentCRC},
		{"block-overflow", &c.BlockOverflow},
		{"invalid-amc-size", &c.InvalidAMCSize},
		{"amc-mismatch", &c.AMCMismatch},
		{"unpaired-second", &c.UnpairedSecond},
		{"link-error", &c.LinkError},
		{"link-no-ack", &c.LinkNoAck},
		{"unknown-link", &c.UnknownLink},
		{"invalid-link", &c.InvalidLink},
		{"out-of-window", &c.OutOfWindow},
		{"unknown-record", &c.UnknownRecord},
		{"error-record", &c.ErrorRecord},
	}
}
