// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/internal/eformat"
	"github.com/go-lpc/rpcraw/unpack"
	"go-hep.org/x/hep/lcio"
)

// Raw2LCIO unpacks the raw events read from dec and writes their digis
// to w. The LCIO run header is written with the first event.
func Raw2LCIO(ctx context.Context, w *lcio.Writer, dec *eformat.Decoder, u *unpack.Unpacker, freq int, msg *log.Logger) (unpack.Report, error) {
	var rep unpack.Report
	if freq <= 0 {
		freq = 100
	}

loop:
	for i := 0; ; i++ {
		if i%freq == 0 {
			msg.Printf("processing evt %d...", i)
		}

		var raw eformat.Event
		err := dec.Decode(&raw)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return rep, fmt.Errorf("could not decode raw event: %w", err)
		}

		if i == 0 {
			err = w.WriteRunHeader(runHeader(int32(raw.Run), u.Config()))
			if err != nil {
				return rep, fmt.Errorf("could not write run header: %w", err)
			}
		}

		set, r, err := u.Unpack(ctx, raw.Raw())
		if err != nil {
			return rep, fmt.Errorf("could not unpack event %d: %w", raw.Event, err)
		}
		rep.Add(r)

		evt := lcio.Event{
			RunNumber:   int32(raw.Run),
			EventNumber: int32(raw.Event),
			TimeStamp:   int64(raw.BX),
			Detector:    Detector,
		}
		evt.Add(Collection, NewGenericObject(set))

		err = w.WriteEvent(&evt)
		if err != nil {
			return rep, fmt.Errorf("could not write LCIO event %d: %w", raw.Event, err)
		}
	}

	return rep, nil
}

func runHeader(run int32, cfg unpack.Config) *lcio.RunHeader {
	crc := int32(0)
	if cfg.CalculateCRC {
		crc = 1
	}
	feds := make([]int32, len(cfg.FEDs))
	for i, fed := range cfg.FEDs {
		feds[i] = int32(fed)
	}
	return &lcio.RunHeader{
		RunNumber: run,
		Detector:  Detector,
		Descr:     "RPC digis unpacked from " + string(cfg.Format) + " raw data",
		Params: lcio.Params{
			Ints: map[string][]int32{
				"CalculateCRC": {crc},
				"BXWindow":     {int32(cfg.BXMin), int32(cfg.BXMax)},
				"FEDs":         feds,
			},
			Strings: map[string][]string{
				"Format": {string(cfg.Format)},
			},
		},
	}
}

// ForEach calls f with the digis of each event read from r.
func ForEach(r *lcio.Reader, f func(evt *lcio.Event, set *digi.Set) error) error {
	for r.Next() {
		evt := r.Event()
		set, err := ReadDigis(&evt)
		if err != nil {
			return err
		}
		err = f(&evt, set)
		if err != nil {
			return err
		}
	}
	err := r.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("xcnv: could not read LCIO event: %w", err)
	}
	return nil
}
