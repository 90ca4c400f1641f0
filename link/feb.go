// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"fmt"
)

// FEB connector ranges.
const (
	MinPin        = 1
	MaxPin        = 16
	MinFirstStrip = 1
	MaxFirstStrip = 128
)

// FEBConnector maps the 16 pins of a front-end board connector onto
// contiguous strips of a detector roll.
type FEBConnector struct {
	Det        DetID
	FirstStrip int    // strip connected to pin 1
	Slope      int    // +1 or -1
	Pins       uint16 // bit i set if pin i+1 is connected
}

// NewFEBConnector returns a validated FEB connector.
func NewFEBConnector(det DetID, first, slope int, pins uint16) (FEBConnector, error) {
	feb := FEBConnector{Det: det, FirstStrip: first, Slope: slope, Pins: pins}
	if err := feb.Validate(); err != nil {
		return FEBConnector{}, err
	}
	return feb, nil
}

// Validate checks the strip range covered by the connected pins.
func (feb FEBConnector) Validate() error {
	if feb.Slope != 1 && feb.Slope != -1 {
		return &RangeError{Field: "slope", Value: feb.Slope, Min: -1, Max: 1}
	}
	for pin := MinPin; pin <= MaxPin; pin++ {
		if !feb.HasPin(pin) {
			continue
		}
		strip := feb.FirstStrip + feb.Slope*(pin-1)
		if strip < MinFirstStrip || strip > MaxFirstStrip {
			return fmt.Errorf("link: pin %d of %v: %w", pin, feb,
				&RangeError{Field: "strip", Value: strip, Min: MinFirstStrip, Max: MaxFirstStrip},
			)
		}
	}
	return nil
}

// HasPin reports whether pin is connected to a strip.
func (feb FEBConnector) HasPin(pin int) bool {
	if pin < MinPin || pin > MaxPin {
		return false
	}
	return feb.Pins&(1<<(pin-1)) != 0
}

// Strip returns the strip connected to pin, or 0 if none is.
func (feb FEBConnector) Strip(pin int) int {
	if !feb.HasPin(pin) {
		return 0
	}
	return feb.FirstStrip + feb.Slope*(pin-1)
}

// FromMinPin returns the FEB connector whose lowest connected pin is
// attached to strip.
// This is how calibration tables record connectors.
func FromMinPin(det DetID, strip, slope int, pins uint16) (FEBConnector, error) {
	if pins == 0 {
		return FEBConnector{}, fmt.Errorf("link: FEB connector for %v without any pin", det)
	}
	minPin := MinPin
	for !(FEBConnector{Pins: pins}).HasPin(minPin) {
		minPin++
	}
	return NewFEBConnector(det, strip-slope*(minPin-1), slope, pins)
}

func (feb FEBConnector) String() string {
	return fmt.Sprintf("FEB(det=0x%08x,first=%d,slope=%d,pins=0x%04x)",
		uint32(feb.Det), feb.FirstStrip, feb.Slope, feb.Pins,
	)
}

// ParseFEBConnector parses the String representation of a FEB connector.
func ParseFEBConnector(s string) (FEBConnector, error) {
	var (
		det         uint32
		first, slpe int
		pins        uint16
	)
	_, err := fmt.Sscanf(s, "FEB(det=0x%x,first=%d,slope=%d,pins=0x%x)", &det, &first, &slpe, &pins)
	if err != nil {
		return FEBConnector{}, fmt.Errorf("link: could not parse FEB connector %q: %w", s, err)
	}
	return NewFEBConnector(DetID(det), first, slpe, pins)
}
