// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"sync/atomic"
)

// Snapshot holds the link maps valid from a given run onwards.
type Snapshot struct {
	Since int // first run of validity

	DCC     *Map[DCCLink, LBLink]
	TwinMux *Map[TwinMuxLink, LBLink]
	LB      *Map[LBLink, FEBConnector]
}

// DCCFEDs returns the sorted list of FEDs present in the DCC map.
func (snap *Snapshot) DCCFEDs() []int {
	return feds(snap.DCC.Keys(), func(k DCCLink) int { return k.FED() })
}

// TwinMuxFEDs returns the sorted list of FEDs present in the TwinMux map.
func (snap *Snapshot) TwinMuxFEDs() []int {
	return feds(snap.TwinMux.Keys(), func(k TwinMuxLink) int { return k.FED() })
}

// keys are sorted and the FED occupies the most significant bits.
func feds[K ID](keys []K, fed func(K) int) []int {
	var o []int
	for _, k := range keys {
		v := fed(k)
		if len(o) == 0 || o[len(o)-1] != v {
			o = append(o, v)
		}
	}
	return o
}

// Store publishes link map snapshots to concurrent readers.
// Snapshots are replaced as a whole, never modified in place.
type Store struct {
	snap atomic.Pointer[Snapshot]
}

// Load returns the current snapshot, or nil.
func (s *Store) Load() *Snapshot { return s.snap.Load() }

// Publish makes snap the current snapshot and returns the previous one.
func (s *Store) Publish(snap *Snapshot) *Snapshot { return s.snap.Swap(snap) }
