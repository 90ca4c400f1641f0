// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"fmt"
)

// DetID identifies a detector roll (the unit owning strips).
//
// Layout (LSB first): region+1 (2 bits), ring+3 (3 bits), station-1 (2 bits),
// sector-1 (4 bits), layer-1 (1 bit), subsector-1 (3 bits), roll (3 bits),
// and the RPC sub-detector tag in the top bits.
type DetID uint32

const detTag = DetID(2<<28 | 3<<25)

type detField struct {
	name   string
	pos    uint
	width  uint
	offset int
	min    int
	max    int
}

var detFields = [...]detField{
	{name: "region", pos: 0, width: 2, offset: 1, min: -1, max: 1},
	{name: "ring", pos: 2, width: 3, offset: 3, min: -2, max: 3},
	{name: "station", pos: 5, width: 2, offset: -1, min: 1, max: 4},
	{name: "sector", pos: 7, width: 4, offset: -1, min: 1, max: 12},
	{name: "layer", pos: 11, width: 1, offset: -1, min: 1, max: 2},
	{name: "subsector", pos: 12, width: 3, offset: -1, min: 1, max: 6},
	{name: "roll", pos: 15, width: 3, offset: 0, min: 0, max: 4},
}

// NewDetID packs the location of a detector roll.
func NewDetID(region, ring, station, sector, layer, subsector, roll int) (DetID, error) {
	id := detTag
	for i, v := range []int{region, ring, station, sector, layer, subsector, roll} {
		f := detFields[i]
		if v < f.min || v > f.max {
			return 0, &RangeError{Field: f.name, Value: v, Min: f.min, Max: f.max}
		}
		id |= DetID(v+f.offset) << f.pos
	}
	return id, nil
}

func (id DetID) get(i int) int {
	f := detFields[i]
	return int(uint32(id)>>f.pos&(1<<f.width-1)) - f.offset
}

func (id DetID) Region() int    { return id.get(0) }
func (id DetID) Ring() int      { return id.get(1) }
func (id DetID) Station() int   { return id.get(2) }
func (id DetID) Sector() int    { return id.get(3) }
func (id DetID) Layer() int     { return id.get(4) }
func (id DetID) Subsector() int { return id.get(5) }
func (id DetID) Roll() int      { return id.get(6) }

// Valid reports whether id carries the RPC tag.
func (id DetID) Valid() bool { return id&^(1<<25-1) == detTag }

func (id DetID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("DetID(0x%08x)", uint32(id))
	}
	return fmt.Sprintf(
		"RPC(re=%d,ri=%d,st=%d,se=%d,la=%d,su=%d,ro=%d)",
		id.Region(), id.Ring(), id.Station(), id.Sector(),
		id.Layer(), id.Subsector(), id.Roll(),
	)
}
