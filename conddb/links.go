// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"context"
	"fmt"
	"time"

	"github.com/go-lpc/rpcraw/link"
)

// DCCLink is a row of the dcc_links table: a DCC input read out by a
// tower board.
type DCCLink struct {
	MinRun   int `db:"MinRun"`
	MaxRun   int `db:"MaxRun"`
	FED      int `db:"FED"`
	DCCInput int `db:"DCCInput"`
	TBInput  int `db:"TBInput"`
}

// TwinMuxLink is a row of the twinmux_links table: a TwinMux input
// connected to the tower board of an LB link.
type TwinMuxLink struct {
	MinRun     int `db:"MinRun"`
	MaxRun     int `db:"MaxRun"`
	FED        int `db:"FED"`
	AMC        int `db:"AMC"`
	TMInput    int `db:"TMInput"`
	LBFED      int `db:"LBFED"`
	LBDCCInput int `db:"LBDCCInput"`
	LBTBInput  int `db:"LBTBInput"`
}

// FEBConnector is a row of the feb_connectors table: a link board
// connector and the strips of the detector roll it reads out.
type FEBConnector struct {
	MinRun    int `db:"MinRun"`
	MaxRun    int `db:"MaxRun"`
	FED       int `db:"FED"`
	DCCInput  int `db:"DCCInput"`
	TBInput   int `db:"TBInput"`
	LinkBoard int `db:"LinkBoard"`
	Connector int `db:"Connector"` // 1-based
	Region    int `db:"Region"`
	Ring      int `db:"Ring"`
	Station   int `db:"Station"`
	Sector    int `db:"Sector"`
	Layer     int `db:"Layer"`
	Subsector int `db:"Subsector"`
	Roll      int `db:"Roll"`
	Strip     int `db:"Strip"` // strip of the lowest connected pin
	Slope     int `db:"Slope"`
	Pins      int `db:"Pins"`
}

func (row DCCLink) keyval() (link.DCCLink, link.LBLink, error) {
	k, err := link.NewDCCLink(row.FED, row.DCCInput, row.TBInput)
	if err != nil {
		return k, 0, err
	}
	v, err := k.LBLink(link.Wildcard, link.Wildcard)
	return k, v, err
}

func (row TwinMuxLink) keyval() (link.TwinMuxLink, link.LBLink, error) {
	k, err := link.NewTwinMuxLink(row.FED, row.AMC, row.TMInput)
	if err != nil {
		return k, 0, err
	}
	v, err := link.NewLBLink(row.LBFED, row.LBDCCInput, row.LBTBInput, link.Wildcard, link.Wildcard)
	return k, v, err
}

func (row FEBConnector) keyval() (link.LBLink, link.FEBConnector, error) {
	k, err := link.NewLBLink(row.FED, row.DCCInput, row.TBInput, row.LinkBoard, row.Connector-1)
	if err != nil {
		return k, link.FEBConnector{}, err
	}
	det, err := link.NewDetID(row.Region, row.Ring, row.Station, row.Sector, row.Layer, row.Subsector, row.Roll)
	if err != nil {
		return k, link.FEBConnector{}, err
	}
	if row.Pins < 0 || row.Pins > 0xffff {
		return k, link.FEBConnector{}, fmt.Errorf("invalid pin mask 0x%x", row.Pins)
	}
	v, err := link.FromMinPin(det, row.Strip, row.Slope, uint16(row.Pins))
	return k, v, err
}

const (
	queryDCCLinks = `
SELECT MinRun, MaxRun, FED, DCCInput, TBInput FROM dcc_links
WHERE MinRun <= ? AND MaxRun >= ?
`
	queryTwinMuxLinks = `
SELECT MinRun, MaxRun, FED, AMC, TMInput, LBFED, LBDCCInput, LBTBInput FROM twinmux_links
WHERE MinRun <= ? AND MaxRun >= ?
`
	queryFEBConnectors = `
SELECT MinRun, MaxRun, FED, DCCInput, TBInput, LinkBoard, Connector,
	Region, Ring, Station, Sector, Layer, Subsector, Roll,
	Strip, Slope, Pins
FROM feb_connectors
WHERE MinRun <= ? AND MaxRun >= ?
`
)

// LinkMaps returns the link maps valid for run.
func (db *DB) LinkMaps(ctx context.Context, run int) (*link.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		snap = &link.Snapshot{}
		err  error
	)

	snap.DCC, err = load(ctx, db, "DCC links", queryDCCLinks, run, &snap.Since, DCCLink.keyval)
	if err != nil {
		return nil, err
	}

	snap.TwinMux, err = load(ctx, db, "TwinMux links", queryTwinMuxLinks, run, &snap.Since, TwinMuxLink.keyval)
	if err != nil {
		return nil, err
	}

	snap.LB, err = load(ctx, db, "FEB connectors", queryFEBConnectors, run, &snap.Since, FEBConnector.keyval)
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// validity is a row valid over a range of runs.
type validity interface {
	DCCLink | TwinMuxLink | FEBConnector
	since() int
}

func (row DCCLink) since() int      { return row.MinRun }
func (row TwinMuxLink) since() int  { return row.MinRun }
func (row FEBConnector) since() int { return row.MinRun }

func load[Row validity, K link.ID, V any](
	ctx context.Context, db *DB, name, query string, run int, since *int,
	keyval func(Row) (K, V, error),
) (*link.Map[K, V], error) {
	rows, err := db.db.QueryxContext(ctx, query, run, run)
	if err != nil {
		return nil, fmt.Errorf("conddb: could not query %s: %w", name, err)
	}
	defer rows.Close()

	b := link.NewBuilder[K, V]()
	i := 0
	for rows.Next() {
		var row Row
		err = rows.StructScan(&row)
		if err != nil {
			return nil, fmt.Errorf("conddb: could not scan row %d of %s: %w", i, name, err)
		}
		k, v, err := keyval(row)
		if err != nil {
			return nil, fmt.Errorf("conddb: invalid row %d of %s: %w", i, name, err)
		}
		err = b.Insert(k, v)
		if err != nil {
			return nil, fmt.Errorf("conddb: could not insert row %d of %s: %w", i, name, err)
		}
		if r := row.since(); r > *since {
			*since = r
		}
		i++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conddb: could not scan db for %s: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("conddb: context error while retrieving %s: %w", name, err)
	}

	return b.Build(), nil
}
