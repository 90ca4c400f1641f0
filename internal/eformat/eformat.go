// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eformat describes and handles raw events in the RPC raw file format.
//
// A raw file starts with the 4-byte magic "RPCR", followed by events:
//
//	run   u32
//	event u32
//	bx    u16
//	pad   u16
//	nfeds u32
//	nfeds x { id u16, pad u16, size u32, data [size]byte }
//
// All integers are little-endian.
package eformat // import "github.com/go-lpc/rpcraw/internal/eformat"

import "sort"

const (
	magic = "RPCR"

	maxFEDs    = 1 << 12
	maxFEDSize = 1 << 24
)

// Event is a raw event: the readout buffers of a set of FEDs.
type Event struct {
	Run   uint32
	Event uint32
	BX    uint16
	FEDs  []FED
}

// FED is the raw buffer of a FED.
type FED struct {
	ID   uint16
	Data []byte
}

// Raw returns the buffers of the event indexed by FED.
func (evt *Event) Raw() map[int][]byte {
	raw := make(map[int][]byte, len(evt.FEDs))
	for _, fed := range evt.FEDs {
		raw[int(fed.ID)] = fed.Data
	}
	return raw
}

// EventFrom creates an event from buffers indexed by FED.
// FEDs are sorted by ID.
func EventFrom(run, evtnum uint32, bx uint16, raw map[int][]byte) Event {
	evt := Event{
		Run:   run,
		Event: evtnum,
		BX:    bx,
		FEDs:  make([]FED, 0, len(raw)),
	}
	for id, data := range raw {
		evt.FEDs = append(evt.FEDs, FED{ID: uint16(id), Data: data})
	}
	sort.Slice(evt.FEDs, func(i, j int) bool { return evt.FEDs[i].ID < evt.FEDs[j].ID })
	return evt
}
