// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package unpack decodes the raw FED buffers of an event into digis,
// decoding FEDs concurrently.
package unpack // import "github.com/go-lpc/rpcraw/unpack"

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/go-lpc/rpcraw/dcc"
	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/link"
	"github.com/go-lpc/rpcraw/twinmux"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// Unpacker decodes events with the link maps currently published in its
// store.
type Unpacker struct {
	cfg   Config
	store *link.Store
	msg   *log.Logger
}

// New creates an unpacker. A nil logger discards all messages.
func New(cfg Config, store *link.Store, msg *log.Logger) (*Unpacker, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("unpack: nil link store")
	}
	if msg == nil {
		msg = log.New(io.Discard)
	}
	return &Unpacker{cfg: cfg, store: store, msg: msg}, nil
}

func (u *Unpacker) Config() Config { return u.cfg }

// counters is the per-FED diagnostic of a decoder.
type counters interface {
	Each(f func(name string, v int))
}

type decodeFunc func(fed int, raw []byte, dst *digi.Set) (counters, error)

func (u *Unpacker) decoder(snap *link.Snapshot) decodeFunc {
	switch u.cfg.Format {
	case TwinMux:
		dec := twinmux.NewDecoder(snap,
			twinmux.WithCRC(u.cfg.CalculateCRC),
			twinmux.WithBXWindow(u.cfg.BXMin, u.cfg.BXMax),
			twinmux.WithLogger(u.msg),
		)
		return func(fed int, raw []byte, dst *digi.Set) (counters, error) {
			cnt, err := dec.Decode(fed, raw, dst)
			return &cnt, err
		}
	default:
		dec := dcc.NewDecoder(snap,
			dcc.WithCRC(u.cfg.CalculateCRC),
			dcc.WithLogger(u.msg),
		)
		return func(fed int, raw []byte, dst *digi.Set) (counters, error) {
			cnt, err := dec.Decode(fed, raw, dst)
			return &cnt, err
		}
	}
}

// FEDs returns the sorted list of FEDs unpacked with snap.
func (u *Unpacker) FEDs(snap *link.Snapshot) []int {
	if len(u.cfg.FEDs) > 0 {
		feds := slices.Clone(u.cfg.FEDs)
		slices.Sort(feds)
		return slices.Compact(feds)
	}
	if snap == nil {
		return nil
	}
	switch u.cfg.Format {
	case TwinMux:
		return snap.TwinMuxFEDs()
	default:
		return snap.DCCFEDs()
	}
}

type result struct {
	digis *digi.Set
	cnt   counters
	err   error
}

// Unpack decodes the raw buffers of an event, indexed by FED.
// Buffers of FEDs which are not unpacked are ignored. A FED whose buffer
// could not be decoded is reported and skipped; Unpack only fails when no
// link maps are available or ctx is done.
func (u *Unpacker) Unpack(ctx context.Context, raw map[int][]byte) (*digi.Set, Report, error) {
	snap := u.store.Load()
	if snap == nil {
		return nil, Report{}, fmt.Errorf("unpack: no link maps published")
	}

	var (
		feds   = u.FEDs(snap)
		decode = u.decoder(snap)
		res    = make([]result, len(feds))
	)

	grp, ctx := errgroup.WithContext(ctx)
	for i := range feds {
		buf, ok := raw[feds[i]]
		if !ok {
			continue
		}
		grp.Go(func() error {
			err := ctx.Err()
			if err != nil {
				return err
			}
			dst := digi.NewSet()
			cnt, err := decode(feds[i], buf, dst)
			res[i] = result{digis: dst, cnt: cnt, err: err}
			return nil
		})
	}
	err := grp.Wait()
	if err != nil {
		return nil, Report{}, fmt.Errorf("unpack: could not unpack event: %w", err)
	}

	var (
		out = digi.NewSet()
		rep = Report{Events: 1, FEDs: make(map[int]*FEDReport)}
	)
	for i, fed := range feds {
		r := res[i]
		if r.cnt == nil {
			continue
		}
		fr := newFEDReport()
		fr.Buffers = 1
		r.cnt.Each(func(name string, v int) {
			if v != 0 {
				fr.Counters[name] += v
			}
		})
		if r.err != nil {
			fr.Skipped = 1
			fr.Err = r.err
			u.msg.Warn("skipped FED buffer", "fed", fed, "err", r.err)
		}
		fr.Digis = r.digis.Len()
		out.Merge(r.digis)
		rep.FEDs[fed] = fr
	}

	return out, rep, nil
}
