// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteText writes the snapshot as a text table, one "key: value" entry
// per line.
func WriteText(w io.Writer, snap *Snapshot) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# since: %d\n", snap.Since)
	snap.DCC.Range(func(k DCCLink, v LBLink) bool {
		fmt.Fprintf(bw, "%v: %v\n", k, v)
		return true
	})
	snap.TwinMux.Range(func(k TwinMuxLink, v LBLink) bool {
		fmt.Fprintf(bw, "%v: %v\n", k, v)
		return true
	})
	snap.LB.Range(func(k LBLink, v FEBConnector) bool {
		fmt.Fprintf(bw, "%v: %v\n", k, v)
		return true
	})
	return bw.Flush()
}

// ReadText reads a snapshot from a text table written by WriteText.
func ReadText(r io.Reader) (*Snapshot, error) {
	var (
		snap = new(Snapshot)
		dcc  = NewBuilder[DCCLink, LBLink]()
		tm   = NewBuilder[TwinMuxLink, LBLink]()
		lb   = NewBuilder[LBLink, FEBConnector]()
		sc   = bufio.NewScanner(r)
		line = 0
	)

	for sc.Scan() {
		line++
		txt := strings.TrimSpace(sc.Text())
		if txt == "" {
			continue
		}
		if strings.HasPrefix(txt, "#") {
			if v, ok := strings.CutPrefix(txt, "# since:"); ok {
				since, err := strconv.Atoi(strings.TrimSpace(v))
				if err != nil {
					return nil, fmt.Errorf("link: line %d: invalid run: %w", line, err)
				}
				snap.Since = since
			}
			continue
		}

		key, val, ok := strings.Cut(txt, ": ")
		if !ok {
			return nil, fmt.Errorf("link: line %d: missing key/value separator", line)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		var err error
		switch {
		case strings.HasPrefix(key, dccLayout.name+"_"):
			err = insertText(dcc, key, val, ParseDCCLink, ParseLBLink)
		case strings.HasPrefix(key, tmLayout.name+"_"):
			err = insertText(tm, key, val, ParseTwinMuxLink, ParseLBLink)
		case strings.HasPrefix(key, lbLayout.name+"_"):
			err = insertText(lb, key, val, ParseLBLink, ParseFEBConnector)
		default:
			err = fmt.Errorf("unknown link kind %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("link: line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("link: could not scan text table: %w", err)
	}

	snap.DCC = dcc.Build()
	snap.TwinMux = tm.Build()
	snap.LB = lb.Build()
	return snap, nil
}

func insertText[K ID, V any](b *Builder[K, V], key, val string, pk func(string) (K, error), pv func(string) (V, error)) error {
	k, err := pk(key)
	if err != nil {
		return err
	}
	v, err := pv(val)
	if err != nil {
		return err
	}
	return b.Insert(k, v)
}
