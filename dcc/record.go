// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dcc decodes the 16-bit record stream of the RPC Data
// Concentrator Cards into detector hits.
package dcc // import "github.com/go-lpc/rpcraw/dcc"

import (
	"fmt"

	"github.com/go-lpc/rpcraw/link"
)

// RecordType is the kind of a 16-bit DCC record.
type RecordType uint8

const (
	ChamberData              RecordType = iota // CD
	StartOfBXData                              // SBXD
	StartOfLinkData                            // SLD
	Empty                                      // empty word
	RMBDiscardedDataMarker                     // RDDM
	SLinkDiscardedDataMarker                   // SDDM
	RMBCorruptedDataMarker                     // RCDM
	RMBDisabledMarker                          // RDM
	Unknown

	NumRecordTypes = int(Unknown) + 1
)

var typeNames = [...]string{
	ChamberData:              "CD",
	StartOfBXData:            "SBXD",
	StartOfLinkData:          "SLD",
	Empty:                    "Empty",
	RMBDiscardedDataMarker:   "RDDM",
	SLinkDiscardedDataMarker: "SDDM",
	RMBCorruptedDataMarker:   "RCDM",
	RMBDisabledMarker:        "RDM",
	Unknown:                  "Unknown",
}

func (t RecordType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("RecordType(%d)", uint8(t))
}

// record type identifiers: (mask, pattern).
const (
	notCDMask    = 0xc000
	notCDPattern = 0xc000

	emptyMask    = 0xffff
	emptyPattern = 0xe800
	sddmMask     = 0xffff
	sddmPattern  = 0xe801
	rdmMask      = 0xffc0
	rdmPattern   = 0xe840
	sldMask      = 0xf800
	sldPattern   = 0xf800
	rddmMask     = 0xf800
	rddmPattern  = 0xf000
	rcdmMask     = 0xf800
	rcdmPattern  = 0xe000
	sbxdMask     = 0xf000
	sbxdPattern  = 0xd000
)

var typeIDs = [...]struct {
	typ     RecordType
	mask    uint16
	pattern uint16
}{
	{Empty, emptyMask, emptyPattern},
	{SLinkDiscardedDataMarker, sddmMask, sddmPattern},
	{RMBDisabledMarker, rdmMask, rdmPattern},
	{StartOfLinkData, sldMask, sldPattern},
	{RMBDiscardedDataMarker, rddmMask, rddmPattern},
	{RMBCorruptedDataMarker, rcdmMask, rcdmPattern},
	{StartOfBXData, sbxdMask, sbxdPattern},
}

// TypeOf classifies a 16-bit record.
// Records whose two top bits are not both set are chamber data; the
// others are tested from the most to the least specific identifier.
func TypeOf(r uint16) RecordType {
	if r&notCDMask != notCDPattern {
		return ChamberData
	}
	for _, id := range typeIDs {
		if r&id.mask == id.pattern {
			return id.typ
		}
	}
	return Unknown
}

// Record is a raw 16-bit DCC record.
type Record uint16

func (r Record) Type() RecordType { return TypeOf(uint16(r)) }

func get(r uint16, mask uint16, pos uint) int { return int(r&mask) >> pos }

func set(r *uint16, name string, mask uint16, pos uint, min, max, v int) error {
	if v < min || v > max {
		return &link.RangeError{Field: name, Value: v, Min: min, Max: max}
	}
	*r = *r&^mask | uint16(v)<<pos&mask
	return nil
}

func flag(r uint16, mask uint16) bool { return r&mask != 0 }

func setFlag(r *uint16, mask uint16, v bool) {
	if v {
		*r |= mask
		return
	}
	*r &^= mask
}

// CDRecord is a chamber data record: 8 pins of a link board connector.
type CDRecord uint16

const (
	cdLinkBoardMask = 0xc000
	cdLinkBoardPos  = 14
	cdConnectorMask = 0x3800
	cdConnectorPos  = 11
	cdPartitionMask = 0x0400
	cdPartitionPos  = 10
	cdEODMask       = 0x0200
	cdHPMask        = 0x0100
	cdDataMask      = 0x00ff

	MaxCDLinkBoard = 2
	MaxCDConnector = 7
)

func NewCDRecord() CDRecord { return CDRecord(0x0000) }

func (r CDRecord) LinkBoard() int      { return get(uint16(r), cdLinkBoardMask, cdLinkBoardPos) }
func (r CDRecord) Connector() int      { return get(uint16(r), cdConnectorMask, cdConnectorPos) }
func (r CDRecord) Partition() int      { return get(uint16(r), cdPartitionMask, cdPartitionPos) }
func (r CDRecord) EOD() bool           { return flag(uint16(r), cdEODMask) }
func (r CDRecord) HalfPartition() bool { return flag(uint16(r), cdHPMask) }
func (r CDRecord) Data() uint8         { return uint8(r & cdDataMask) }

// PinOffset returns the pin number of bit 0 of the data payload.
func (r CDRecord) PinOffset() int {
	if r.Partition() != 0 {
		return 9
	}
	return 1
}

func (r *CDRecord) SetLinkBoard(v int) error {
	return set((*uint16)(r), "linkboard", cdLinkBoardMask, cdLinkBoardPos, 0, MaxCDLinkBoard, v)
}

func (r *CDRecord) SetConnector(v int) error {
	return set((*uint16)(r), "connector", cdConnectorMask, cdConnectorPos, 0, MaxCDConnector, v)
}

func (r *CDRecord) SetPartition(v int) error {
	return set((*uint16)(r), "partition", cdPartitionMask, cdPartitionPos, 0, 1, v)
}

func (r *CDRecord) SetEOD(v bool)           { setFlag((*uint16)(r), cdEODMask, v) }
func (r *CDRecord) SetHalfPartition(v bool) { setFlag((*uint16)(r), cdHPMask, v) }
func (r *CDRecord) SetData(v uint8)         { *r = *r&^cdDataMask | CDRecord(v) }

// SBXDRecord starts the data of a bunch crossing.
type SBXDRecord uint16

const (
	sbxdBXMask = 0x0fff
	MaxBX      = 4095
)

func NewSBXDRecord() SBXDRecord { return SBXDRecord(sbxdPattern) }

func (r SBXDRecord) BX() int { return get(uint16(r), sbxdBXMask, 0) }

func (r *SBXDRecord) SetBX(v int) error {
	return set((*uint16)(r), "bx", sbxdBXMask, 0, 0, MaxBX, v)
}

// linkRecord is the (DCC input, TB input) payload shared by the SLD,
// RDDM and RCDM records.
type linkRecord uint16

const (
	lrDCCInputMask = 0x07e0
	lrDCCInputPos  = 5
	lrTBInputMask  = 0x001f

	MaxDCCInput = 63
	MaxTBInput  = 31
)

func (r linkRecord) dccInput() int { return get(uint16(r), lrDCCInputMask, lrDCCInputPos) }
func (r linkRecord) tbInput() int  { return get(uint16(r), lrTBInputMask, 0) }

func (r *linkRecord) setDCCInput(v int) error {
	return set((*uint16)(r), "dccinput", lrDCCInputMask, lrDCCInputPos, 0, MaxDCCInput, v)
}

func (r *linkRecord) setTBInput(v int) error {
	return set((*uint16)(r), "tbinput", lrTBInputMask, 0, 0, MaxTBInput, v)
}

// SLDRecord starts the data of a DCC link.
type SLDRecord uint16

func NewSLDRecord() SLDRecord { return SLDRecord(sldPattern) }

func (r SLDRecord) DCCInput() int            { return linkRecord(r).dccInput() }
func (r SLDRecord) TBInput() int             { return linkRecord(r).tbInput() }
func (r *SLDRecord) SetDCCInput(v int) error { return (*linkRecord)(r).setDCCInput(v) }
func (r *SLDRecord) SetTBInput(v int) error  { return (*linkRecord)(r).setTBInput(v) }

// RDDMRecord marks data discarded by a readout mother board.
type RDDMRecord uint16

func NewRDDMRecord() RDDMRecord { return RDDMRecord(rddmPattern) }

func (r RDDMRecord) DCCInput() int            { return linkRecord(r).dccInput() }
func (r RDDMRecord) TBInput() int             { return linkRecord(r).tbInput() }
func (r *RDDMRecord) SetDCCInput(v int) error { return (*linkRecord)(r).setDCCInput(v) }
func (r *RDDMRecord) SetTBInput(v int) error  { return (*linkRecord)(r).setTBInput(v) }

// RCDMRecord marks data corrupted in a readout mother board.
type RCDMRecord uint16

func NewRCDMRecord() RCDMRecord { return RCDMRecord(rcdmPattern) }

func (r RCDMRecord) DCCInput() int            { return linkRecord(r).dccInput() }
func (r RCDMRecord) TBInput() int             { return linkRecord(r).tbInput() }
func (r *RCDMRecord) SetDCCInput(v int) error { return (*linkRecord)(r).setDCCInput(v) }
func (r *RCDMRecord) SetTBInput(v int) error  { return (*linkRecord)(r).setTBInput(v) }

// RDMRecord marks a disabled readout mother board.
type RDMRecord uint16

const rdmDCCInputMask = 0x003f

func NewRDMRecord() RDMRecord { return RDMRecord(rdmPattern) }

func (r RDMRecord) DCCInput() int { return get(uint16(r), rdmDCCInputMask, 0) }

func (r *RDMRecord) SetDCCInput(v int) error {
	return set((*uint16)(r), "dccinput", rdmDCCInputMask, 0, 0, MaxDCCInput, v)
}

// Canonical records.
var (
	EmptyRecord = Record(emptyPattern)
	SDDMRecord  = Record(sddmPattern)
)
