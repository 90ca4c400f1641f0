// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert raw RPC events to LCIO digis,
// and to read them back.
package xcnv // import "github.com/go-lpc/rpcraw/internal/xcnv"

const (
	// Collection is the name of the LCIO collection holding digis.
	Collection = "RPCDigis"

	// Detector is the detector name stored in LCIO run and event headers.
	Detector = "CMS-RPC"

	descr = "det:strip:bx"
)
