// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dcc

// Counters holds the diagnostic counters of the decoding of a FED.
type Counters struct {
	Records [NumRecordTypes]int // number of records per type
	EOD     int                 // chamber data records flagged end-of-data

	HeaderCheckFail  int
	InconsistentFED  int
	TrailerCheckFail int
	InconsistentSize int
	InconsistentCRC  int
	InvalidLink      int
	UnknownLink      int
	InvalidConnector int
	MissingBX        int
	MissingLink      int
	InvalidRDDMLink  int
	InvalidRCDMLink  int
}

// Add accumulates o into c.
func (c *Counters) Add(o Counters) {
	for i, v := range o.Records {
		c.Records[i] += v
	}
	c.EOD += o.EOD
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
		{"invalid-link", &c.InvalidLink},
		{"unknown-link", &c.UnknownLink},
		{"invalid-connector", &c.InvalidConnector},
		{"missing-bx", &c.MissingBX},
		{"missing-link", &c.MissingLink},
		{"invalid-rddm-link", &c.InvalidRDDMLink},
		{"invalid-rcdm-link", &c.InvalidRCDMLink},
	}
}
