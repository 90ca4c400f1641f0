// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crc16 implements the 16-bit cyclic redundancy checks used by
// FED readout frames.
//
// Checksums are computed MSB-first (non-reflected), without final XOR.
package crc16 // import "github.com/go-lpc/rpcraw/internal/crc16"

import (
	"encoding/binary"
	"hash"
)

// Size of a CRC-16 checksum in bytes.
const Size = 2

// Predefined polynomials.
const (
	CMS   = 0x8005 // CRC-16 polynomial used by FED trailers.
	CCITT = 0x1021 // CRC-16/CCITT-FALSE polynomial.
)

// Table is a 256-word table representing the polynomial for efficient processing.
type Table struct {
	poly uint16
	init uint16
	tbl  [256]uint16
}

// CMSTable is the table for the CMS polynomial, seeded with 0xffff.
var CMSTable = MakeTable(CMS, 0xffff)

// MakeTable returns a Table constructed from the specified polynomial,
// with the given initial register value.
func MakeTable(poly, init uint16) *Table {
	t := &Table{poly: poly, init: init}
	for i := range t.tbl {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		t.tbl[i] = crc
	}
	return t
}

// Update returns the result of adding the bytes in p to the crc.
func Update(crc uint16, tab *Table, p []byte) uint16 {
	for _, v := range p {
		crc = tab.tbl[byte(crc>>8)^v] ^ crc<<8
	}
	return crc
}

// UpdateWord returns the result of adding the 8 bytes of w to the crc,
// most significant byte first.
func UpdateWord(crc uint16, tab *Table, w uint64) uint16 {
	for i := 56; i >= 0; i -= 8 {
		crc = tab.tbl[byte(crc>>8)^byte(w>>i)] ^ crc<<8
	}
	return crc
}

// Checksum returns the CRC-16 checksum of data using the polynomial
// represented by the Table.
func Checksum(data []byte, tab *Table) uint16 {
	return Update(tab.init, tab, data)
}

// Hash16 is the common interface implemented by all 16-bit hash functions.
type Hash16 interface {
	hash.Hash
	Sum16() uint16
}

type digest struct {
	crc uint16
	tab *Table
}

// New creates a new Hash16 computing the CRC-16 checksum using the
// polynomial represented by the Table.
// If tab is nil, CMSTable is used.
func New(tab *Table) Hash16 {
	if tab == nil {
		tab = CMSTable
	}
	return &digest{crc: tab.init, tab: tab}
}

func (d *digest) Size() int      { return Size }
func (d *digest) BlockSize() int { return 1 }
func (d *digest) Reset()         { d.crc = d.tab.init }
func (d *digest) Sum16() uint16  { return d.crc }

func (d *digest) Write(p []byte) (int, error) {
	d.crc = Update(d.crc, d.tab, p)
	return len(p), nil
}

func (d *digest) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint16(b, d.crc)
}

var (
	_ Hash16 = (*digest)(nil)
)
