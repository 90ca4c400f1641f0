// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

// Link board and connector ranges.
const (
	MinLinkBoard = 0
	MaxLinkBoard = 2
	MinConnector = 0
	MaxConnector = 5
)

var lbLayout = layout{
	name: "LBLink",
	fields: []field{
		{name: "fed", mask: 0xffff0000, min: MinFED, max: MaxFED},
		{name: "dccinput", mask: 0x0000fc00, min: MinDCCInput, max: MaxDCCInput},
		{name: "tbinput", mask: 0x000003e0, min: MinTBInput, max: MaxTBInput},
		{name: "linkboard", mask: 0x00000018, min: MinLinkBoard, max: MaxLinkBoard},
		{name: "connector", mask: 0x00000007, min: MinConnector, max: MaxConnector},
	},
}

// LBLink identifies a connector of a link board, as seen from the readout:
// (FED, DCC input, TB input, link board, connector).
type LBLink uint32

// NewLBLink returns the LB link for the given field values.
// Any of the values may be Wildcard.
func NewLBLink(fed, dccInput, tbInput, linkBoard, connector int) (LBLink, error) {
	raw, err := lbLayout.build(fed, dccInput, tbInput, linkBoard, connector)
	return LBLink(raw), err
}

// ParseLBLink parses the String representation of a LB link.
func ParseLBLink(s string) (LBLink, error) {
	raw, err := lbLayout.parse(s)
	return LBLink(raw), err
}

func (id LBLink) FED() int       { return lbLayout.get(uint32(id), 0) }
func (id LBLink) DCCInput() int  { return lbLayout.get(uint32(id), 1) }
func (id LBLink) TBInput() int   { return lbLayout.get(uint32(id), 2) }
func (id LBLink) LinkBoard() int { return lbLayout.get(uint32(id), 3) }
func (id LBLink) Connector() int { return lbLayout.get(uint32(id), 4) }

// Fields returns all the fields of the link.
func (id LBLink) Fields() (fed, dccInput, tbInput, linkBoard, connector int) {
	return id.FED(), id.DCCInput(), id.TBInput(), id.LinkBoard(), id.Connector()
}

func (id *LBLink) SetFED(v int) error       { return id.set(0, v) }
func (id *LBLink) SetDCCInput(v int) error  { return id.set(1, v) }
func (id *LBLink) SetTBInput(v int) error   { return id.set(2, v) }
func (id *LBLink) SetLinkBoard(v int) error { return id.set(3, v) }
func (id *LBLink) SetConnector(v int) error { return id.set(4, v) }

func (id *LBLink) set(i, v int) error {
	raw, err := lbLayout.set(uint32(*id), i, v)
	if err != nil {
		return err
	}
	*id = LBLink(raw)
	return nil
}

func (id LBLink) Mask() uint32          { return lbLayout.mask(uint32(id)) }
func (id LBLink) Complete() bool        { return id.Mask() == lbLayout.full() }
func (id LBLink) Matches(o LBLink) bool { return lbLayout.matches(uint32(id), uint32(o)) }
func (id LBLink) Next() LBLink          { return id + 1 }
func (id LBLink) Prev() LBLink          { return id - 1 }
func (id LBLink) String() string        { return lbLayout.format(uint32(id)) }

// DCCLink returns the DCC link part of the LB link.
func (id LBLink) DCCLink() DCCLink {
	link, _ := NewDCCLink(id.FED(), id.DCCInput(), id.TBInput())
	return link
}
