// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package twinmux

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/fed"
	"github.com/go-lpc/rpcraw/link"
	"golang.org/x/xerrors"
)

// Default bunch crossing acceptance window.
const (
	DefaultBXMin = -2
	DefaultBXMax = +2
)

// Decoder decodes TwinMux FED buffers into digis.
// A Decoder may be used concurrently on different buffers.
type Decoder struct {
	maps  *link.Snapshot
	crc   bool
	bxMin int
	bxMax int
	msg   *log.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithCRC enables or disables the verification of the frame CRC.
func WithCRC(v bool) Option {
	return func(dec *Decoder) { dec.crc = v }
}

// WithBXWindow sets the inclusive bunch crossing acceptance window.
func WithBXWindow(min, max int) Option {
	return func(dec *Decoder) {
		dec.bxMin = min
		dec.bxMax = max
	}
}

// WithLogger sets the logger reporting decoding anomalies.
func WithLogger(msg *log.Logger) Option {
	return func(dec *Decoder) {
		if msg != nil {
			dec.msg = msg
		}
	}
}

// NewDecoder creates a decoder resolving links with the given snapshot.
// A nil snapshot holds no link: every link is then unknown.
func NewDecoder(maps *link.Snapshot, opts ...Option) *Decoder {
	if maps == nil {
		maps = &link.Snapshot{}
	}
	dec := &Decoder{
		maps:  maps,
		crc:   true,
		bxMin: DefaultBXMin,
		bxMax: DefaultBXMax,
		msg:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(dec)
	}
	return dec
}

// frame is the decoding state of a FED buffer.
type frame struct {
	fed int
	ws  []uint64
	end int // index of the first trailer word
	crc fed.CRC
	cnt *Counters
	dst *digi.Set
}

func (f *frame) next(i *int) uint64 {
	w := f.ws[*i]
	f.crc.Update(w)
	*i++
	return w
}

// Decode decodes the raw buffer of FED fedID and inserts the resulting
// digis into dst.
// A non-nil error means the buffer was skipped.
func (dec *Decoder) Decode(fedID int, raw []byte, dst *digi.Set) (Counters, error) {
	var cnt Counters

	ws, err := fed.Words(raw)
	if err != nil {
		return cnt, xerrors.Errorf("twinmux: FED %d: %w", fedID, err)
	}
	if len(ws) == 0 {
		return cnt, nil
	}

	f := frame{
		fed: fedID,
		ws:  ws,
		end: len(ws),
		crc: fed.NewCRC(dec.crc),
		cnt: &cnt,
		dst: dst,
	}

	var (
		beg  = 0
		more = true
	)
	for more && beg < len(ws) {
		h := fed.Header(ws[beg])
		if !h.Check() {
			cnt.HeaderCheckFail++
			dec.msg.Warn("header check failed", "fed", fedID, "word", beg)
			return cnt, xerrors.Errorf("twinmux: FED %d: %w", fedID, fed.ErrHeader)
		}
		if h.SourceID() != fedID {
			cnt.InconsistentFED++
			dec.msg.Warn("inconsistent source id", "fed", fedID, "source", h.SourceID())
		}
		more = h.MoreHeaders()
		f.next(&beg)
	}
	if more {
		return cnt, xerrors.Errorf("twinmux: FED %d: %w", fedID, fed.ErrMoreHeaders)
	}
	if beg == len(ws) {
		cnt.TrailerCheckFail++
		dec.msg.Warn("missing trailer", "fed", fedID)
		return cnt, xerrors.Errorf("twinmux: FED %d: %w", fedID, fed.ErrTrailer)
	}

	more = true
	for more && f.end > beg {
		f.end--
		t := fed.Trailer(ws[f.end])
		if !t.Check() {
			cnt.TrailerCheckFail++
			dec.msg.Warn("trailer check failed", "fed", fedID, "word", f.end)
			return cnt, xerrors.Errorf("twinmux: FED %d: %w", fedID, fed.ErrTrailer)
		}
		if t.Length() != len(ws) {
			cnt.InconsistentSize++
			dec.msg.Warn("inconsistent size", "fed", fedID, "length", t.Length(), "words", len(ws))
			return cnt, xerrors.Errorf("twinmux: FED %d: %w", fedID, fed.ErrSize)
		}
		more = t.MoreTrailers()
	}
	if more {
		return cnt, xerrors.Errorf("twinmux: FED %d: %w", fedID, fed.ErrMoreTrailers)
	}

	for i := beg; i < f.end; {
		i = dec.block(&f, i)
	}

	if f.crc.Enabled() {
		for _, w := range ws[f.end : len(ws)-1] {
			f.crc.Update(w)
		}
		t := fed.Trailer(ws[len(ws)-1])
		f.crc.UpdateTrailer(t)
		if f.crc.Sum() != t.CRC() {
			cnt.InconsistentCRC++
			dec.msg.Warn("inconsistent CRC", "fed", fedID,
				"computed", f.crc.Sum(), "trailer", t.CRC(),
			)
		}
	}

	return cnt, nil
}

// block decodes the block starting at word i and returns the index of
// the word following it.
func (dec *Decoder) block(f *frame, i int) int {
	bh := BlockHeader(f.next(&i))
	n := bh.NAMC()
	if i+n+1 >= f.end {
		f.cnt.BlockOverflow++
		dec.msg.Warn("incomplete block", "fed", f.fed, "namc", n)
		return f.end
	}
	f.cnt.Blocks++

	amcs := make([]BlockAMCContent, n)
	for j := range amcs {
		amcs[j] = BlockAMCContent(f.next(&i))
	}
	for _, amc := range amcs {
		i = dec.amc(f, amc.AMCNumber(), amc.Size(), i)
	}

	if i < f.end {
		bt := BlockTrailer(f.next(&i))
		dec.msg.Debug("block trailer", "fed", f.fed,
			"block", bt.BlockNumber(), "evc", bt.EventCounter(), "bx", bt.BXCounter(),
		)
	}
	return i
}

// amc decodes the size words of the payload of AMC amc, starting at word i.
func (dec *Decoder) amc(f *frame, amc, size, i int) int {
	if size == 0 {
		return i
	}
	if i+size >= f.end || size < 3 {
		f.cnt.InvalidAMCSize++
		dec.msg.Warn("incomplete AMC payload", "fed", f.fed, "amc", amc, "size", size)
		return i + size
	}

	var hdr Header
	hdr[0] = f.next(&i)
	hdr[1] = f.next(&i)
	if hdr.AMCNumber() != amc {
		f.cnt.AMCMismatch++
		dec.msg.Warn("inconsistent AMC number", "fed", f.fed,
			"block", amc, "header", hdr.AMCNumber(),
		)
		return i + size - 2
	}
	f.cnt.AMCs++

	win := window{min: dec.bxMin, max: dec.bxMax}
	if hdr.HasRPCBXWindow() {
		win.min = max(win.min, hdr.RPCBXMin())
		win.max = min(win.max, hdr.RPCBXMax())
	}

	var (
		rec     = NewRPCRecord()
		pending = false
	)
	for n := 2; n < size-1; n++ {
		w := f.next(&i)
		switch TypeOf(w) {
		case RPCFirst:
			// a first word following an unpaired one flushes it, uncounted.
			if pending {
				dec.rpc(f, amc, win, rec, 0, 1)
			}
			rec = RPCRecord{First: w, Second: rpcSecondType << 60}
			pending = true
		case RPCSecond:
			rec.Second = w
			if !pending {
				f.cnt.UnpairedSecond++
				dec.msg.Warn("second RPC word without first", "fed", f.fed, "amc", amc)
				dec.rpc(f, amc, win, rec, 2, 4)
				continue
			}
			dec.rpc(f, amc, win, rec, 0, 4)
			pending = false
		case ErrorRecord:
			f.cnt.ErrorRecord++
			dec.msg.Debug("error record", "fed", f.fed, "amc", amc, "word", w)
		default:
			f.cnt.UnknownRecord++
		}
	}
	if pending {
		dec.rpc(f, amc, win, rec, 0, 1)
	}

	tr := Trailer(f.next(&i))
	dec.msg.Debug("AMC trailer", "fed", f.fed, "amc", amc,
		"evc", tr.EventCounter(), "length", tr.DataLength(),
	)
	return i
}

// window is an inclusive bunch crossing range.
type window struct {
	min, max int
}

func (w window) contains(bx int) bool { return w.min <= bx && bx <= w.max }

// rpc decodes the links [lo,hi] of an RPC record.
func (dec *Decoder) rpc(f *frame, amc int, win window, rec RPCRecord, lo, hi int) {
	f.cnt.Records++
	off := rec.BXOffset()
	for i := lo; i <= hi; i++ {
		lr := rec.Link(i)
		switch {
		case lr.Error():
			f.cnt.LinkError++
			continue
		case !lr.Ack():
			f.cnt.LinkNoAck++
			continue
		case lr.Data() == 0:
			continue
		}

		tm, err := link.NewTwinMuxLink(f.fed, amc, i)
		if err != nil {
			f.cnt.InvalidLink++
			dec.msg.Warn("invalid TwinMux link", "fed", f.fed, "amc", amc, "input", i)
			continue
		}
		lb, ok := dec.maps.TwinMux.Find(tm)
		if !ok {
			f.cnt.UnknownLink++
			dec.msg.Warn("unknown TwinMux link", "link", tm)
			continue
		}

		if lr.LinkBoard() > link.MaxLinkBoard || lr.Connector() > link.MaxConnector {
			f.cnt.InvalidLink++
			dec.msg.Warn("invalid link board or connector", "link", tm,
				"linkboard", lr.LinkBoard(), "connector", lr.Connector(),
			)
			continue
		}
		if err := lb.SetLinkBoard(lr.LinkBoard()); err != nil {
			f.cnt.InvalidLink++
			continue
		}
		if err := lb.SetConnector(lr.Connector()); err != nil {
			f.cnt.InvalidLink++
			continue
		}

		feb, ok := dec.maps.LB.Find(lb)
		if !ok {
			f.cnt.UnknownLink++
			dec.msg.Warn("unknown LB link", "link", lb, "from", tm)
			continue
		}

		bx := off - lr.Delay()
		if !win.contains(bx) {
			f.cnt.OutOfWindow++
			continue
		}

		f.dst.InsertData(feb, lr.Data(), lr.PinOffset(), bx)
	}
}
