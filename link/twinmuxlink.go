// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

// TwinMux field ranges.
const (
	MinAMC     = 0
	MaxAMC     = 12
	MinTMInput = 0
	MaxTMInput = 4
)

var tmLayout = layout{
	name: "RPCTwinMuxLink",
	fields: []field{
		{name: "fed", mask: 0xffff0000, min: MinFED, max: MaxFED},
		{name: "amc", mask: 0x0000ff00, min: MinAMC, max: MaxAMC},
		{name: "tminput", mask: 0x000000ff, min: MinTMInput, max: MaxTMInput},
	},
}

// TwinMuxLink identifies an input of a TwinMux AMC: (FED, AMC number, input).
type TwinMuxLink uint32

// NewTwinMuxLink returns the TwinMux link for the given field values.
// Any of the values may be Wildcard.
func NewTwinMuxLink(fed, amc, input int) (TwinMuxLink, error) {
	raw, err := tmLayout.build(fed, amc, input)
	return TwinMuxLink(raw), err
}

// ParseTwinMuxLink parses the String representation of a TwinMux link.
func ParseTwinMuxLink(s string) (TwinMuxLink, error) {
	raw, err := tmLayout.parse(s)
	return TwinMuxLink(raw), err
}

func (id TwinMuxLink) FED() int     { return tmLayout.get(uint32(id), 0) }
func (id TwinMuxLink) AMC() int     { return tmLayout.get(uint32(id), 1) }
func (id TwinMuxLink) TMInput() int { return tmLayout.get(uint32(id), 2) }

func (id TwinMuxLink) Fields() (fed, amc, input int) {
	return id.FED(), id.AMC(), id.TMInput()
}

func (id *TwinMuxLink) SetFED(v int) error     { return id.set(0, v) }
func (id *TwinMuxLink) SetAMC(v int) error     { return id.set(1, v) }
func (id *TwinMuxLink) SetTMInput(v int) error { return id.set(2, v) }

func (id *TwinMuxLink) set(i, v int) error {
	raw, err := tmLayout.set(uint32(*id), i, v)
	if err != nil {
		return err
	}
	*id = TwinMuxLink(raw)
	return nil
}

func (id TwinMuxLink) Mask() uint32               { return tmLayout.mask(uint32(id)) }
func (id TwinMuxLink) Complete() bool             { return id.Mask() == tmLayout.full() }
func (id TwinMuxLink) Matches(o TwinMuxLink) bool { return tmLayout.matches(uint32(id), uint32(o)) }
func (id TwinMuxLink) Next() TwinMuxLink          { return id + 1 }
func (id TwinMuxLink) Prev() TwinMuxLink          { return id - 1 }
func (id TwinMuxLink) String() string             { return tmLayout.format(uint32(id)) }
