// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/link"
	"golang.org/x/exp/slices"
)

// RawEvent is the payload of the /raw input end-point:
// run, event and number of FEDs as u32, then for each FED its id and
// size as u32 followed by its raw buffer.
type RawEvent struct {
	Run   uint32
	Event uint32
	FEDs  map[int][]byte
}

func (evt RawEvent) MarshalTDAQ() ([]byte, error) {
	ids := make([]int, 0, len(evt.FEDs))
	for id := range evt.FEDs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU32(evt.Run)
	enc.WriteU32(evt.Event)
	enc.WriteU32(uint32(len(ids)))
	for _, id := range ids {
		raw := evt.FEDs[id]
		enc.WriteU32(uint32(id))
		enc.WriteU32(uint32(len(raw)))
		if enc.Err() != nil {
			break
		}
		buf.Write(raw)
	}
	return buf.Bytes(), enc.Err()
}

func (evt *RawEvent) UnmarshalTDAQ(p []byte) error {
	var (
		r   = bytes.NewReader(p)
		dec = tdaq.NewDecoder(r)
	)
	evt.Run = dec.ReadU32()
	evt.Event = dec.ReadU32()
	n := int(dec.ReadU32())
	if err := dec.Err(); err != nil {
		return fmt.Errorf("daq: could not decode raw event header: %w", err)
	}
	if n > r.Len()/8 {
		return fmt.Errorf("daq: invalid number of FEDs (%d)", n)
	}

	evt.FEDs = make(map[int][]byte, n)
	for i := 0; i < n; i++ {
		id := int(dec.ReadU32())
		sz := int(dec.ReadU32())
		if err := dec.Err(); err != nil {
			return fmt.Errorf("daq: could not decode FED header %d: %w", i, err)
		}
		if sz > r.Len() {
			return fmt.Errorf("daq: FED %d: %w", id, io.ErrUnexpectedEOF)
		}
		if _, dup := evt.FEDs[id]; dup {
			return fmt.Errorf("daq: duplicate FED %d", id)
		}
		raw := make([]byte, sz)
		_, _ = r.Read(raw)
		evt.FEDs[id] = raw
	}
	return nil
}

// DigiEvent is the payload of the /digis output end-point:
// run, event and number of digis as u32, then for each digi its
// detector id as u32, its strip and bunch crossing as i32.
type DigiEvent struct {
	Run   uint32
	Event uint32
	Digis []digi.Digi
}

func (evt DigiEvent) MarshalTDAQ() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU32(evt.Run)
	enc.WriteU32(evt.Event)
	enc.WriteU32(uint32(len(evt.Digis)))
	for _, d := range evt.Digis {
		enc.WriteU32(uint32(d.Det))
		enc.WriteI32(int32(d.Strip))
		enc.WriteI32(int32(d.BX))
	}
	return buf.Bytes(), enc.Err()
}

func (evt *DigiEvent) UnmarshalTDAQ(p []byte) error {
	dec := tdaq.NewDecoder(bytes.NewReader(p))
	evt.Run = dec.ReadU32()
	evt.Event = dec.ReadU32()
	n := int(dec.ReadU32())
	if err := dec.Err(); err != nil {
		return fmt.Errorf("daq: could not decode digi event header: %w", err)
	}
	if n > len(p)/12 {
		return fmt.Errorf("daq: invalid number of digis (%d)", n)
	}
	evt.Digis = make([]digi.Digi, n)
	for i := range evt.Digis {
		evt.Digis[i] = digi.Digi{
			Det:   link.DetID(dec.ReadU32()),
			Strip: int(dec.ReadI32()),
			BX:    int(dec.ReadI32()),
		}
	}
	if err := dec.Err(); err != nil {
		return fmt.Errorf("daq: could not decode digis: %w", err)
	}
	return nil
}

var (
	_ tdaq.Marshaler   = (*RawEvent)(nil)
	_ tdaq.Unmarshaler = (*RawEvent)(nil)
	_ tdaq.Marshaler   = (*DigiEvent)(nil)
	_ tdaq.Unmarshaler = (*DigiEvent)(nil)
)
