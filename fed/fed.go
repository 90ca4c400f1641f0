// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fed describes the common data format (CDF) framing of FED
// readout buffers: 64-bit header and trailer words, and the frame CRC.
package fed // import "github.com/go-lpc/rpcraw/fed"

import (
	"encoding/binary"

	"github.com/go-lpc/rpcraw/internal/crc16"
	"golang.org/x/xerrors"
)

// WordSize is the size in bytes of a FED word.
const WordSize = 8

var (
	ErrNotAligned   = xerrors.New("fed: buffer size is not a multiple of 8 bytes")
	ErrHeader       = xerrors.New("fed: header check failed")
	ErrTrailer      = xerrors.New("fed: trailer check failed")
	ErrSize         = xerrors.New("fed: inconsistent trailer length")
	ErrMoreHeaders  = xerrors.New("fed: unsupported additional headers")
	ErrMoreTrailers = xerrors.New("fed: unsupported additional trailers")
)

// Words returns the 64-bit little-endian words of a raw buffer.
func Words(raw []byte) ([]uint64, error) {
	if len(raw)%WordSize != 0 {
		return nil, xerrors.Errorf("fed: %d bytes: %w", len(raw), ErrNotAligned)
	}
	ws := make([]uint64, len(raw)/WordSize)
	for i := range ws {
		ws[i] = binary.LittleEndian.Uint64(raw[i*WordSize:])
	}
	return ws, nil
}

// Bytes returns the little-endian encoding of the words.
func Bytes(ws []uint64) []byte {
	raw := make([]byte, len(ws)*WordSize)
	for i, w := range ws {
		binary.LittleEndian.PutUint64(raw[i*WordSize:], w)
	}
	return raw
}

// Header is a CDF FED header word.
type Header uint64

const headerMarker = 0x5

// NewHeader returns a header word with the check marker set.
func NewHeader(evtType, lv1ID, bxID, sourceID, version int, more bool) Header {
	h := Header(headerMarker)<<60 |
		Header(evtType&0xf)<<56 |
		Header(lv1ID&0xffffff)<<32 |
		Header(bxID&0xfff)<<20 |
		Header(sourceID&0xfff)<<8 |
		Header(version&0xf)<<4
	if more {
		h |= 1 << 3
	}
	return h
}

func (h Header) Check() bool       { return h>>60 == headerMarker }
func (h Header) EvtType() int      { return int(h >> 56 & 0xf) }
func (h Header) LV1ID() int        { return int(h >> 32 & 0xffffff) }
func (h Header) BXID() int         { return int(h >> 20 & 0xfff) }
func (h Header) SourceID() int     { return int(h >> 8 & 0xfff) }
func (h Header) Version() int      { return int(h >> 4 & 0xf) }
func (h Header) MoreHeaders() bool { return h&(1<<3) != 0 }

// Trailer is a CDF FED trailer word.
type Trailer uint64

const trailerMarker = 0xa

// crcMask clears the CRC field of a trailer word.
const crcMask = 0xffffffff0000ffff

// NewTrailer returns a trailer word with the check marker set.
func NewTrailer(length int, crc uint16, evtStat, tts int, more bool) Trailer {
	t := Trailer(trailerMarker)<<60 |
		Trailer(length&0xffffff)<<32 |
		Trailer(crc)<<16 |
		Trailer(evtStat&0xf)<<12 |
		Trailer(tts&0xf)<<8
	if more {
		t |= 1 << 3
	}
	return t
}

func (t Trailer) Check() bool        { return t>>60 == trailerMarker }
func (t Trailer) Length() int        { return int(t >> 32 & 0xffffff) }
func (t Trailer) CRC() uint16        { return uint16(t >> 16) }
func (t Trailer) EvtStat() int       { return int(t >> 12 & 0xf) }
func (t Trailer) TTS() int           { return int(t >> 8 & 0xf) }
func (t Trailer) MoreTrailers() bool { return t&(1<<3) != 0 }
func (t Trailer) CRCModified() bool  { return t&(1<<2) != 0 }

// WithCRC returns the trailer with its CRC field replaced.
func (t Trailer) WithCRC(crc uint16) Trailer {
	return t&crcMask | Trailer(crc)<<16
}

// CRC accumulates the CRC-16 of FED words.
// A disabled CRC ignores all updates.
type CRC struct {
	on  bool
	crc uint16
}

// NewCRC returns a CRC accumulator, seeded for FED frames.
func NewCRC(enabled bool) CRC {
	return CRC{on: enabled, crc: 0xffff}
}

func (c *CRC) Enabled() bool { return c.on }

// Update adds a word to the CRC.
func (c *CRC) Update(w uint64) {
	if !c.on {
		return
	}
	c.crc = crc16.UpdateWord(c.crc, crc16.CMSTable, w)
}

// UpdateTrailer adds a trailer word, with its CRC field masked out.
func (c *CRC) UpdateTrailer(t Trailer) {
	c.Update(uint64(t & crcMask))
}

// Sum returns the current CRC value.
func (c *CRC) Sum() uint16 { return c.crc }

// Checksum computes the CRC of a complete frame whose last word is the trailer.
func Checksum(ws []uint64) uint16 {
	c := NewCRC(true)
	for i, w := range ws {
		if i == len(ws)-1 {
			c.UpdateTrailer(Trailer(w))
			continue
		}
		c.Update(w)
	}
	return c.Sum()
}

// Frame assembles a single-header, single-trailer frame around payload,
// filling the trailer length and CRC.
func Frame(h Header, payload []uint64) []uint64 {
	ws := make([]uint64, 0, len(payload)+2)
	ws = append(ws, uint64(h))
	ws = append(ws, payload...)
	ws = append(ws, uint64(NewTrailer(len(payload)+2, 0, 0, 0, false)))
	ws[len(ws)-1] = uint64(Trailer(ws[len(ws)-1]).WithCRC(Checksum(ws)))
	return ws
}
