// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package twinmux decodes the block/AMC stream of the TwinMux boards
// into RPC detector hits.
package twinmux // import "github.com/go-lpc/rpcraw/twinmux"

import (
	"fmt"

	"github.com/go-lpc/rpcraw/link"
)

func get(w uint64, pos, width uint) int {
	return int(w >> pos & (1<<width - 1))
}

func set(w *uint64, name string, pos, width uint, min, max, v int) error {
	if v < min || v > max {
		return &link.RangeError{Field: name, Value: v, Min: min, Max: max}
	}
	mask := uint64(1<<width-1) << pos
	*w = *w&^mask | uint64(v)<<pos&mask
	return nil
}

func flag(w uint64, pos uint) bool { return w>>pos&1 != 0 }

func setFlag(w *uint64, pos uint, v bool) {
	if v {
		*w |= 1 << pos
		return
	}
	*w &^= 1 << pos
}

// BlockHeader is the first word of a TwinMux block.
type BlockHeader uint64

func NewBlockHeader(namc int, orbit uint32) (BlockHeader, error) {
	w := uint64(orbit) << 4
	if err := set(&w, "namc", 52, 4, 0, 15, namc); err != nil {
		return 0, err
	}
	return BlockHeader(w), nil
}

func (h BlockHeader) UFOV() int  { return get(uint64(h), 60, 4) }
func (h BlockHeader) NAMC() int  { return get(uint64(h), 52, 4) }
func (h BlockHeader) Orbit() int { return get(uint64(h), 4, 32) }

// BlockAMCContent declares one AMC payload of a block.
type BlockAMCContent uint64

func NewBlockAMCContent(size, blockNumber, amc, boardID int) (BlockAMCContent, error) {
	var w uint64
	for _, f := range []struct {
		name  string
		pos   uint
		width uint
		v     int
	}{
		{"size", 32, 24, size},
		{"block-number", 20, 8, blockNumber},
		{"amc", 16, 4, amc},
		{"board-id", 0, 16, boardID},
	} {
		if err := set(&w, f.name, f.pos, f.width, 0, 1<<f.width-1, f.v); err != nil {
			return 0, err
		}
	}
	return BlockAMCContent(w), nil
}

func (c BlockAMCContent) LengthOK() bool   { return flag(uint64(c), 62) }
func (c BlockAMCContent) More() bool       { return flag(uint64(c), 61) }
func (c BlockAMCContent) Segmented() bool  { return flag(uint64(c), 60) }
func (c BlockAMCContent) Enabled() bool    { return flag(uint64(c), 59) }
func (c BlockAMCContent) Present() bool    { return flag(uint64(c), 58) }
func (c BlockAMCContent) Valid() bool      { return flag(uint64(c), 57) }
func (c BlockAMCContent) CRCOk() bool      { return flag(uint64(c), 56) }
func (c BlockAMCContent) Size() int        { return get(uint64(c), 32, 24) }
func (c BlockAMCContent) BlockNumber() int { return get(uint64(c), 20, 8) }
func (c BlockAMCContent) AMCNumber() int   { return get(uint64(c), 16, 4) }
func (c BlockAMCContent) BoardID() int     { return get(uint64(c), 0, 16) }

// BlockTrailer is the last word of a TwinMux block.
type BlockTrailer uint64

func NewBlockTrailer(crc uint32, blockNumber, evc, bx int) BlockTrailer {
	return BlockTrailer(uint64(crc)<<32 |
		uint64(blockNumber&0xff)<<20 |
		uint64(evc&0xff)<<12 |
		uint64(bx&0xfff))
}

func (t BlockTrailer) CRC() uint32       { return uint32(t >> 32) }
func (t BlockTrailer) BlockNumber() int  { return get(uint64(t), 20, 8) }
func (t BlockTrailer) EventCounter() int { return get(uint64(t), 12, 8) }
func (t BlockTrailer) BXCounter() int    { return get(uint64(t), 0, 12) }

// Header is the two-word header of an AMC payload.
type Header [2]uint64

// NewHeader returns the header of the payload of AMC amc, holding length
// words.
func NewHeader(amc, evc, bx, length int) (Header, error) {
	var h Header
	for _, f := range []struct {
		name  string
		pos   uint
		width uint
		max   int
		v     int
	}{
		{"amc", 56, 4, 15, amc},
		{"event-counter", 32, 24, 1<<24 - 1, evc},
		{"bx", 20, 12, 4095, bx},
		{"length", 0, 20, 1<<20 - 1, length},
	} {
		if err := set(&h[0], f.name, f.pos, f.width, 0, f.max, f.v); err != nil {
			return h, err
		}
	}
	return h, nil
}

func (h Header) AMCNumber() int    { return get(h[0], 56, 4) }
func (h Header) EventCounter() int { return get(h[0], 32, 24) }
func (h Header) BXCounter() int    { return get(h[0], 20, 12) }
func (h Header) DataLength() int   { return get(h[0], 0, 20) }
func (h Header) Orbit() int        { return get(h[1], 16, 16) }
func (h Header) BoardID() int      { return get(h[1], 0, 16) }
func (h Header) DTWindow() int     { return get(h[1], 32, 5) }
func (h Header) RPCWindow() int    { return get(h[1], 37, 5) }
func (h Header) HOWindow() int     { return get(h[1], 42, 3) }

func (h *Header) SetOrbit(v int) error   { return set(&h[1], "orbit", 16, 16, 0, 0xffff, v) }
func (h *Header) SetBoardID(v int) error { return set(&h[1], "board-id", 0, 16, 0, 0xffff, v) }
func (h *Header) SetDTWindow(v int) error {
	return set(&h[1], "dt-window", 32, 5, 0, 31, v)
}
func (h *Header) SetRPCWindow(v int) error {
	return set(&h[1], "rpc-window", 37, 5, 0, 31, v)
}
func (h *Header) SetHOWindow(v int) error {
	return set(&h[1], "ho-window", 42, 3, 0, 7, v)
}

// HasRPCBXWindow reports whether the board declares an RPC readout window.
func (h Header) HasRPCBXWindow() bool { return h.RPCWindow() != 0 }

func (h Header) RPCBXMin() int { return -h.RPCWindow() / 2 }
func (h Header) RPCBXMax() int { return h.RPCWindow() / 2 }

// Trailer is the last word of an AMC payload.
type Trailer uint64

func NewTrailer(crc uint32, evc, length int) Trailer {
	return Trailer(uint64(crc)<<32 | uint64(evc&0xff)<<24 | uint64(length&0xfffff))
}

func (t Trailer) CRC() uint32       { return uint32(t >> 32) }
func (t Trailer) EventCounter() int { return get(uint64(t), 24, 8) }
func (t Trailer) DataLength() int   { return get(uint64(t), 0, 20) }

// RecordType is the kind of a payload word.
type RecordType uint8

const (
	RPCFirst RecordType = iota
	RPCSecond
	ErrorRecord
	Unknown
)

func (t RecordType) String() string {
	switch t {
	case RPCFirst:
		return "RPCFirst"
	case RPCSecond:
		return "RPCSecond"
	case ErrorRecord:
		return "Error"
	case Unknown:
		return "Unknown"
	}
	return fmt.Sprintf("RecordType(%d)", uint8(t))
}

const (
	rpcFirstType  = 0x9
	rpcSecondType = 0xe
	errorType     = 0xf
)

// TypeOf classifies a payload word by its top nibble.
func TypeOf(w uint64) RecordType {
	switch w >> 60 {
	case rpcFirstType:
		return RPCFirst
	case rpcSecondType:
		return RPCSecond
	case errorType:
		return ErrorRecord
	}
	return Unknown
}

// NumLinks is the number of links of an RPC record.
const NumLinks = 5

var (
	linkWord   = [NumLinks]int{0, 0, 1, 1, 1}
	linkOffset = [NumLinks]uint{20, 0, 40, 20, 0}
	bxOffset   = [NumLinks]uint{52, 49, 46, 43, 40}
)

// RPCRecord is the pair of words carrying the data of the RPC links of an
// AMC input.
// The first word holds links 0 and 1, the bunch crossing offset and the
// BX records; the second word holds links 2 to 4.
type RPCRecord struct {
	First  uint64
	Second uint64
}

func NewRPCRecord() RPCRecord {
	return RPCRecord{
		First:  rpcFirstType << 60,
		Second: rpcSecondType << 60,
	}
}

func (r *RPCRecord) word(i int) *uint64 {
	if linkWord[i] == 0 {
		return &r.First
	}
	return &r.Second
}

// BXOffset returns the signed 4-bit bunch crossing offset.
func (r RPCRecord) BXOffset() int {
	v := get(r.First, 56, 4)
	return (v ^ 8) - 8
}

func (r *RPCRecord) SetBXOffset(v int) error {
	if v < -8 || v > 7 {
		return &link.RangeError{Field: "bx-offset", Value: v, Min: -8, Max: 7}
	}
	return set(&r.First, "bx-offset", 56, 4, 0, 15, v&0xf)
}

// Link returns the link record of link i.
func (r RPCRecord) Link(i int) LinkRecord {
	return LinkRecord(get(*r.word(i), linkOffset[i], 20))
}

func (r *RPCRecord) SetLink(i int, lr LinkRecord) error {
	if i < 0 || i >= NumLinks {
		return &link.RangeError{Field: "link", Value: i, Min: 0, Max: NumLinks - 1}
	}
	return set(r.word(i), "link-record", linkOffset[i], 20, 0, 1<<20-1, int(lr))
}

// BX returns the BX record of link i.
func (r RPCRecord) BX(i int) BXRecord {
	return BXRecord(get(r.First, bxOffset[i], 3))
}

func (r *RPCRecord) SetBX(i int, bx BXRecord) error {
	if i < 0 || i >= NumLinks {
		return &link.RangeError{Field: "link", Value: i, Min: 0, Max: NumLinks - 1}
	}
	return set(&r.First, "bx-record", bxOffset[i], 3, 0, 7, int(bx))
}

// LinkRecord is the 20-bit record of a single RPC link.
type LinkRecord uint32

const (
	lrAck       = 19
	lrError     = 18
	lrEOD       = 17
	lrDelayPos  = 14
	lrLBPos     = 12
	lrConnPos   = 9
	lrPartition = 8
)

func (lr LinkRecord) Ack() bool      { return flag(uint64(lr), lrAck) }
func (lr LinkRecord) Error() bool    { return flag(uint64(lr), lrError) }
func (lr LinkRecord) EOD() bool      { return flag(uint64(lr), lrEOD) }
func (lr LinkRecord) Delay() int     { return get(uint64(lr), lrDelayPos, 3) }
func (lr LinkRecord) LinkBoard() int { return get(uint64(lr), lrLBPos, 2) }
func (lr LinkRecord) Connector() int { return get(uint64(lr), lrConnPos, 3) }
func (lr LinkRecord) Partition() int { return get(uint64(lr), lrPartition, 1) }
func (lr LinkRecord) Data() uint8    { return uint8(lr) }

// PinOffset returns the pin number of bit 0 of the data payload.
func (lr LinkRecord) PinOffset() int {
	if lr.Partition() != 0 {
		return 9
	}
	return 1
}

func (lr *LinkRecord) setFlag(pos uint, v bool) {
	w := uint64(*lr)
	setFlag(&w, pos, v)
	*lr = LinkRecord(w)
}

func (lr *LinkRecord) set(name string, pos, width uint, v int) error {
	w := uint64(*lr)
	if err := set(&w, name, pos, width, 0, 1<<width-1, v); err != nil {
		return err
	}
	*lr = LinkRecord(w)
	return nil
}

func (lr *LinkRecord) SetAck(v bool)   { lr.setFlag(lrAck, v) }
func (lr *LinkRecord) SetError(v bool) { lr.setFlag(lrError, v) }
func (lr *LinkRecord) SetEOD(v bool)   { lr.setFlag(lrEOD, v) }

func (lr *LinkRecord) SetDelay(v int) error     { return lr.set("delay", lrDelayPos, 3, v) }
func (lr *LinkRecord) SetLinkBoard(v int) error { return lr.set("linkboard", lrLBPos, 2, v) }
func (lr *LinkRecord) SetConnector(v int) error { return lr.set("connector", lrConnPos, 3, v) }
func (lr *LinkRecord) SetPartition(v int) error { return lr.set("partition", lrPartition, 1, v) }
func (lr *LinkRecord) SetData(v uint8)          { *lr = *lr&^0xff | LinkRecord(v) }

// BXRecord is the 3-bit bunch crossing record of a link.
type BXRecord uint8

func (bx BXRecord) BC0() bool { return bx&0x4 != 0 }
func (bx BXRecord) BCN() int  { return int(bx & 0x3) }
