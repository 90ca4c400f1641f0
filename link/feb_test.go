// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"testing"

	"pgregory.net/rapid"
)

func TestFEBStrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		feb  FEBConnector
		pins map[int]int
	}{
		{
			name: "increasing",
			feb:  FEBConnector{FirstStrip: 17, Slope: +1, Pins: 0xffff},
			pins: map[int]int{0: 0, 1: 17, 3: 19, 16: 32, 17: 0},
		},
		{
			name: "decreasing",
			feb:  FEBConnector{FirstStrip: 96, Slope: -1, Pins: 0xffff},
			pins: map[int]int{1: 96, 2: 95, 16: 81},
		},
		{
			name: "masked",
			feb:  FEBConnector{FirstStrip: 1, Slope: +1, Pins: 0x00fc},
			pins: map[int]int{1: 0, 2: 0, 3: 3, 8: 8, 9: 0},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for pin, want := range tc.pins {
				if got := tc.feb.Strip(pin); got != want {
					t.Fatalf("invalid strip for pin %d: got=%d, want=%d", pin, got, want)
				}
			}
		})
	}
}

func TestFEBStripMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var (
			slope = rapid.SampledFrom([]int{-1, +1}).Draw(t, "slope")
			first = rapid.IntRange(17, 112).Draw(t, "first")
			pins  = rapid.Uint16().Draw(t, "pins")
			feb   = FEBConnector{FirstStrip: first, Slope: slope, Pins: pins}
			prev  = 0
		)
		for pin := MinPin; pin <= MaxPin; pin++ {
			strip := feb.Strip(pin)
			if !feb.HasPin(pin) {
				if strip != 0 {
					t.Fatalf("pin %d not in mask 0x%04x gave strip %d", pin, pins, strip)
				}
				continue
			}
			if prev != 0 && (strip-prev)*slope <= 0 {
				t.Fatalf("strips not monotonic: pin %d: strip=%d, previous=%d, slope=%d", pin, strip, prev, slope)
			}
			prev = strip
		}
	})
}

func TestFEBFromMinPin(t *testing.T) {
	det, err := NewDetID(0, -2, 1, 1, 1, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	feb, err := FromMinPin(det, 33, -1, 0x0ff0)
	if err != nil {
		t.Fatalf("could not create FEB connector: %+v", err)
	}
	if got, want := feb.Strip(5), 33; got != want {
		t.Fatalf("invalid strip at min pin: got=%d, want=%d", got, want)
	}
	if got, want := feb.Strip(12), 26; got != want {
		t.Fatalf("invalid strip at max pin: got=%d, want=%d", got, want)
	}

	back, err := ParseFEBConnector(feb.String())
	if err != nil {
		t.Fatalf("could not parse %q: %+v", feb.String(), err)
	}
	if back != feb {
		t.Fatalf("invalid round-trip: got=%v, want=%v", back, feb)
	}

	_, err = FromMinPin(det, 1, 1, 0)
	if err == nil {
		t.Fatalf("expected an error for an empty pin mask")
	}
}
