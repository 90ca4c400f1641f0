// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eformat

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// Decoder reads raw events from an underlying data source.
type Decoder struct {
	r    io.Reader
	buf  []byte
	err  error
	init bool // whether the file magic was read
}

// NewDecoder creates a decoder that reads raw events from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 8),
	}
}

// Decode reads the next event from the stream.
// Decode returns io.EOF when the stream ends on an event boundary.
func (dec *Decoder) Decode(evt *Event) error {
	if !dec.init {
		dec.read(dec.buf[:len(magic)])
		if dec.err == io.EOF {
			return io.EOF
		}
		if dec.err != nil {
			return xerrors.Errorf("eformat: could not read file magic: %w", dec.err)
		}
		if string(dec.buf[:len(magic)]) != magic {
			return xerrors.Errorf("eformat: invalid file magic (got=%q)", dec.buf[:len(magic)])
		}
		dec.init = true
	}

	evt.Run = dec.readU32()
	if dec.err != nil {
		if dec.err == io.EOF {
			return io.EOF
		}
		return xerrors.Errorf("eformat: could not read event header: %w", dec.err)
	}
	evt.Event = dec.readU32()
	evt.BX = dec.readU16()
	_ = dec.readU16()
	n := dec.readU32()
	if dec.err != nil {
		return xerrors.Errorf("eformat: could not read event header: %w", dec.unexpected())
	}
	if n > maxFEDs {
		return xerrors.Errorf("eformat: invalid number of FEDs (%d)", n)
	}

	evt.FEDs = make([]FED, 0, n)
	for i := 0; i < int(n); i++ {
		var fed FED
		fed.ID = dec.readU16()
		_ = dec.readU16()
		size := dec.readU32()
		if dec.err != nil {
			return xerrors.Errorf("eformat: could not read FED header %d: %w", i, dec.unexpected())
		}
		if size > maxFEDSize {
			return xerrors.Errorf("eformat: invalid FED %d size (%d)", fed.ID, size)
		}
		fed.Data = make([]byte, size)
		dec.read(fed.Data)
		if dec.err != nil {
			return xerrors.Errorf("eformat: could not read FED %d: %w", fed.ID, dec.unexpected())
		}
		evt.FEDs = append(evt.FEDs, fed)
	}

	return nil
}

// unexpected turns an end of stream in the middle of an event into
// io.ErrUnexpectedEOF.
func (dec *Decoder) unexpected() error {
	if xerrors.Is(dec.err, io.EOF) {
		dec.err = io.ErrUnexpectedEOF
	}
	return dec.err
}

func (dec *Decoder) read(p []byte) {
	if dec.err != nil {
		return
	}
	_, dec.err = io.ReadFull(dec.r, p)
}

func (dec *Decoder) readU16() uint16 {
	const n = 2
	dec.read(dec.buf[:n])
	return binary.LittleEndian.Uint16(dec.buf[:n])
}

func (dec *Decoder) readU32() uint32 {
	const n = 4
	dec.read(dec.buf[:n])
	return binary.LittleEndian.Uint32(dec.buf[:n])
}
