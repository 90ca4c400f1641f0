// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eformat

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// Encoder writes raw events to an output stream.
type Encoder struct {
	w    io.Writer
	buf  []byte
	err  error
	init bool // whether the file magic was written
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 8),
	}
}

// Encode writes the event to the stream.
// The file magic is written before the first event.
func (enc *Encoder) Encode(evt *Event) error {
	if evt == nil {
		return nil
	}
	if len(evt.FEDs) > maxFEDs {
		return xerrors.Errorf("eformat: too many FEDs (%d)", len(evt.FEDs))
	}

	if !enc.init {
		enc.write([]byte(magic))
		if enc.err != nil {
			return xerrors.Errorf("eformat: could not write file magic: %w", enc.err)
		}
		enc.init = true
	}

	enc.writeU32(evt.Run)
	enc.writeU32(evt.Event)
	enc.writeU16(evt.BX)
	enc.writeU16(0)
	enc.writeU32(uint32(len(evt.FEDs)))
	if enc.err != nil {
		return xerrors.Errorf("eformat: could not write event header: %w", enc.err)
	}

	for _, fed := range evt.FEDs {
		if len(fed.Data) > maxFEDSize {
			return xerrors.Errorf("eformat: FED %d buffer too large (%d bytes)", fed.ID, len(fed.Data))
		}
		enc.writeU16(fed.ID)
		enc.writeU16(0)
		enc.writeU32(uint32(len(fed.Data)))
		enc.write(fed.Data)
		if enc.err != nil {
			return xerrors.Errorf("eformat: could not write FED %d: %w", fed.ID, enc.err)
		}
	}

	return nil
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
}

func (enc *Encoder) writeU16(v uint16) {
	const n = 2
	binary.LittleEndian.PutUint16(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU32(v uint32) {
	const n = 4
	binary.LittleEndian.PutUint32(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}
