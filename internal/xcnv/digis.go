// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"

	"github.com/go-lpc/rpcraw/digi"
	"github.com/go-lpc/rpcraw/link"
	"go-hep.org/x/hep/lcio"
)

// NewGenericObject packs digis into a fixed-size LCIO generic object,
// one (det, strip, bx) triplet per digi.
func NewGenericObject(set *digi.Set) *lcio.GenericObject {
	var (
		ds  = set.Digis()
		obj = &lcio.GenericObject{
			Flag: lcio.BitsGOFixed,
			Params: lcio.Params{
				Strings: map[string][]string{
					"DataDescription": {descr},
				},
			},
			Data: make([]lcio.GenericObjectData, len(ds)),
		}
		i32s = make([]int32, 3*len(ds))
	)

	for i, d := range ds {
		v := i32s[3*i : 3*i+3 : 3*i+3]
		v[0] = int32(d.Det)
		v[1] = int32(d.Strip)
		v[2] = int32(d.BX)
		obj.Data[i].I32s = v
	}

	return obj
}

// DigisFrom unpacks the digis held by obj.
func DigisFrom(obj *lcio.GenericObject) (*digi.Set, error) {
	set := digi.NewSet()
	for i, data := range obj.Data {
		if len(data.I32s) != 3 {
			return nil, fmt.Errorf("xcnv: invalid digi #%d: got %d values, want 3", i, len(data.I32s))
		}
		set.Insert(digi.Digi{
			Det:   link.DetID(uint32(data.I32s[0])),
			Strip: int(data.I32s[1]),
			BX:    int(data.I32s[2]),
		})
	}
	return set, nil
}

// ReadDigis returns the digis stored in evt.
func ReadDigis(evt *lcio.Event) (*digi.Set, error) {
	if !evt.Has(Collection) {
		return nil, fmt.Errorf("xcnv: no %q collection in event %d", Collection, evt.EventNumber)
	}
	obj, ok := evt.Get(Collection).(*lcio.GenericObject)
	if !ok {
		return nil, fmt.Errorf(
			"xcnv: invalid %q collection type %T in event %d",
			Collection, evt.Get(Collection), evt.EventNumber,
		)
	}
	return DigisFrom(obj)
}
