// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dcc

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/fed"
	"github.com/go-lpc/rpcraw/link"
	"golang.org/x/xerrors"
)

// Bunch crossings per orbit.
const (
	NumBX  = 3564
	halfBX = NumBX / 2
)

// RelativeBX returns the bunch crossing of a record relative to the
// bunch crossing of the FED header, centered on zero.
func RelativeBX(recorded, header int) int {
	d := (recorded - header + halfBX) % NumBX
	if d < 0 {
		d += NumBX
	}
	return d - halfBX
}

// Decoder decodes DCC FED buffers into digis.
// A Decoder may be used concurrently on different buffers.
type Decoder struct {
	maps *link.Snapshot
	crc  bool
	msg  *log.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithCRC enables or disables the verification of the frame CRC.
func WithCRC(v bool) Option {
	return func(dec *Decoder) { dec.crc = v }
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
// CRC verification is enabled by default.
func NewDecoder(maps *link.Snapshot, opts ...Option) *Decoder {
	if maps == nil {
		maps = &link.Snapshot{}
	}
	dec := &Decoder{
		maps: maps,
		crc:  true,
		msg:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(dec)
	}
	return dec
}

// Decode decodes the raw buffer of FED fedID and inserts the resulting
// digis into dst.
// A non-nil error means the buffer was skipped; record-level problems are
// only reported through the returned counters.
func (dec *Decoder) Decode(fedID int, raw []byte, dst *digi.Set) (Counters, error) {
	var cnt Counters

	ws, err := fed.Words(raw)
	if err != nil {
		return cnt, xerrors.Errorf("dcc: FED %d: %w", fedID, err)
	}
	if len(ws) == 0 {
		return cnt, nil
	}

	var (
		crc  = fed.NewCRC(dec.crc)
		beg  = 0
		end  = len(ws)
		hbx  = 0
		more = true
	)

	for more && beg < len(ws) {
		h := fed.Header(ws[beg])
		if !h.Check() {
			cnt.HeaderCheckFail++
			dec.msg.Warn("header check failed", "fed", fedID, "word", beg)
			return cnt, xerrors.Errorf("dcc: FED %d: %w", fedID, fed.ErrHeader)
		}
		if h.SourceID() != fedID {
			cnt.InconsistentFED++
			dec.msg.Warn("inconsistent source id", "fed", fedID, "source", h.SourceID())
		}
		crc.Update(ws[beg])
		hbx = h.BXID()
		more = h.MoreHeaders()
		beg++
	}
	if more {
		return cnt, xerrors.Errorf("dcc: FED %d: %w", fedID, fed.ErrMoreHeaders)
	}
	if beg == len(ws) {
		cnt.TrailerCheckFail++
		dec.msg.Warn("missing trailer", "fed", fedID)
		return cnt, xerrors.Errorf("dcc: FED %d: %w", fedID, fed.ErrTrailer)
	}

	more = true
	for more && end > beg {
		end--
		t := fed.Trailer(ws[end])
		if !t.Check() {
			cnt.TrailerCheckFail++
			dec.msg.Warn("trailer check failed", "fed", fedID, "word", end)
			return cnt, xerrors.Errorf("dcc: FED %d: %w", fedID, fed.ErrTrailer)
		}
		if t.Length() != len(ws) {
			cnt.InconsistentSize++
			dec.msg.Warn("inconsistent size", "fed", fedID, "length", t.Length(), "words", len(ws))
			return cnt, xerrors.Errorf("dcc: FED %d: %w", fedID, fed.ErrSize)
		}
		more = t.MoreTrailers()
	}
	if more {
		return cnt, xerrors.Errorf("dcc: FED %d: %w", fedID, fed.ErrMoreTrailers)
	}

	st := state{fed: fedID, hbx: hbx}
	for _, w := range ws[beg:end] {
		crc.Update(w)
		for shift := 48; shift >= 0; shift -= 16 {
			dec.record(&st, uint16(w>>shift), &cnt, dst)
		}
	}

	if crc.Enabled() {
		for _, w := range ws[end : len(ws)-1] {
			crc.Update(w)
		}
		t := fed.Trailer(ws[len(ws)-1])
		crc.UpdateTrailer(t)
		if crc.Sum() != t.CRC() {
			cnt.InconsistentCRC++
			dec.msg.Warn("inconsistent CRC", "fed", fedID,
				"computed", crc.Sum(), "trailer", t.CRC(),
			)
		}
	}

	return cnt, nil
}

// state is the record context of a frame.
type state struct {
	fed int
	hbx int // header bunch crossing

	hasBX bool
	bx    int

	hasLink bool
	dcc     link.DCCLink
	lb      link.LBLink // LB link of the current DCC link, without board and connector
	known   bool        // whether the current DCC link is in the DCC map
}

func (dec *Decoder) record(st *state, r uint16, cnt *Counters, dst *digi.Set) {
	typ := TypeOf(r)
	cnt.Records[typ]++

	switch typ {
	case StartOfBXData:
		st.hasBX = true
		st.hasLink = false
		st.bx = RelativeBX(SBXDRecord(r).BX(), st.hbx)

	case StartOfLinkData:
		if !st.hasBX {
			return
		}
		sld := SLDRecord(r)
		id, err := link.NewDCCLink(st.fed, sld.DCCInput(), sld.TBInput())
		if err != nil {
			cnt.InvalidLink++
			dec.msg.Debug("invalid SLD link", "fed", st.fed,
				"dccinput", sld.DCCInput(), "tbinput", sld.TBInput(),
			)
			return
		}
		st.hasLink = true
		st.dcc = id
		st.lb, st.known = dec.maps.DCC.Find(id)

	case ChamberData:
		if !st.hasBX {
			cnt.MissingBX++
		}
		if !st.hasLink {
			cnt.MissingLink++
		}
		if !st.hasBX || !st.hasLink {
			return
		}
		dec.chamberData(st, CDRecord(r), cnt, dst)

	case RMBDiscardedDataMarker:
		rddm := RDDMRecord(r)
		if rddm.DCCInput() > link.MaxDCCInput || rddm.TBInput() > link.MaxTBInput {
			cnt.InvalidRDDMLink++
			dec.msg.Debug("invalid RDDM link", "fed", st.fed,
				"dccinput", rddm.DCCInput(), "tbinput", rddm.TBInput(),
			)
		}

	case RMBCorruptedDataMarker:
		rcdm := RCDMRecord(r)
		if rcdm.DCCInput() > link.MaxDCCInput || rcdm.TBInput() > link.MaxTBInput {
			cnt.InvalidRCDMLink++
			dec.msg.Debug("invalid RCDM link", "fed", st.fed,
				"dccinput", rcdm.DCCInput(), "tbinput", rcdm.TBInput(),
			)
		}
	}
}

func (dec *Decoder) chamberData(st *state, cd CDRecord, cnt *Counters, dst *digi.Set) {
	if cd.Connector() > link.MaxConnector {
		cnt.InvalidConnector++
		dec.msg.Debug("invalid connector", "link", st.dcc, "connector", cd.Connector())
		return
	}
	if cd.EOD() {
		cnt.EOD++
	}
	if !st.known {
		cnt.UnknownLink++
		dec.msg.Debug("unknown DCC link", "link", st.dcc)
		return
	}

	lb := st.lb
	if err := lb.SetLinkBoard(cd.LinkBoard()); err != nil {
		cnt.InvalidLink++
		return
	}
	if err := lb.SetConnector(cd.Connector()); err != nil {
		cnt.InvalidConnector++
		return
	}
	feb, ok := dec.maps.LB.Find(lb)
	if !ok {
		cnt.UnknownLink++
		dec.msg.Debug("unknown LB link", "link", lb)
		return
	}

	dst.InsertData(feb, cd.Data(), cd.PinOffset(), st.bx)
}
