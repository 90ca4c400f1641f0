// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

// Field ranges shared by the DCC and LB link identifiers.
const (
	MinFED      = 0
	MaxFED      = 65534
	MinDCCInput = 0
	MaxDCCInput = 35
	MinTBInput  = 0
	MaxTBInput  = 17
)

var dccLayout = layout{
	name: "DCCLink",
	fields: []field{
		{name: "fed", mask: 0xffff0000, min: MinFED, max: MaxFED},
		{name: "dccinput", mask: 0x0000ff00, min: MinDCCInput, max: MaxDCCInput},
		{name: "tbinput", mask: 0x000000ff, min: MinTBInput, max: MaxTBInput},
	},
}

// DCCLink identifies an input of a DCC board: (FED, DCC input, TB input).
type DCCLink uint32

// NewDCCLink returns the DCC link for the given field values.
// Any of the values may be Wildcard.
func NewDCCLink(fed, dccInput, tbInput int) (DCCLink, error) {
	raw, err := dccLayout.build(fed, dccInput, tbInput)
	return DCCLink(raw), err
}

// ParseDCCLink parses the String representation of a DCC link.
func ParseDCCLink(s string) (DCCLink, error) {
	raw, err := dccLayout.parse(s)
	return DCCLink(raw), err
}

func (id DCCLink) FED() int      { return dccLayout.get(uint32(id), 0) }
func (id DCCLink) DCCInput() int { return dccLayout.get(uint32(id), 1) }
func (id DCCLink) TBInput() int  { return dccLayout.get(uint32(id), 2) }

// Fields returns the FED, DCC input and TB input of the link.
func (id DCCLink) Fields() (fed, dccInput, tbInput int) {
	return id.FED(), id.DCCInput(), id.TBInput()
}

func (id *DCCLink) SetFED(v int) error      { return id.set(0, v) }
func (id *DCCLink) SetDCCInput(v int) error { return id.set(1, v) }
func (id *DCCLink) SetTBInput(v int) error  { return id.set(2, v) }

func (id *DCCLink) set(i, v int) error {
	raw, err := dccLayout.set(uint32(*id), i, v)
	if err != nil {
		return err
	}
	*id = DCCLink(raw)
	return nil
}

// Mask returns the bit mask of the non-wildcard fields.
func (id DCCLink) Mask() uint32 { return dccLayout.mask(uint32(id)) }

// Complete reports whether no field of the link is a wildcard.
func (id DCCLink) Complete() bool { return id.Mask() == dccLayout.full() }

// Matches reports whether id and o agree on all the fields set in both.
func (id DCCLink) Matches(o DCCLink) bool { return dccLayout.matches(uint32(id), uint32(o)) }

func (id DCCLink) Next() DCCLink { return id + 1 }
func (id DCCLink) Prev() DCCLink { return id - 1 }

// LBLink returns the LB link reached through this DCC link, on the given
// link board and connector.
func (id DCCLink) LBLink(linkBoard, connector int) (LBLink, error) {
	return NewLBLink(id.FED(), id.DCCInput(), id.TBInput(), linkBoard, connector)
}

func (id DCCLink) String() string { return dccLayout.format(uint32(id)) }
