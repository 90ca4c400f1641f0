// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// rpc-links displays the RPC readout link maps valid for a run, as a
// text link table.
//
// Usage: rpc-links [OPTIONS]
//
// Example:
//
//	$> rpc-links --db=rpcconf --run=342154 -o links.txt
//	$> rpc-links --db=rpcconf --runs
//	$> rpc-links --links=links.txt --feds
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/rpcraw/conddb"
	"github.com/go-lpc/rpcraw/link"
	"github.com/spf13/pflag"
)

func main() {
	log.SetPrefix("rpc-links: ")
	log.SetFlags(0)

	var (
		dbname = pflag.String("db", "rpcconf", "name of the conditions database")
		links  = pflag.String("links", "", "path to a text link table to read instead of the database")
		run    = pflag.Int("run", 0, "run of validity of the link maps")
		runs   = pflag.Bool("runs", false, "list the first runs of validity of the link maps")
		feds   = pflag.Bool("feds", false, "only display the FEDs of the link maps")
		oname  = pflag.StringP("output", "o", "", "path to output text link table (default: stdout)")
	)

	pflag.Parse()

	var w io.Writer = os.Stdout
	if *oname != "" {
		f, err := os.Create(*oname)
		if err != nil {
			log.Fatalf("could not create output file: %+v", err)
		}
		defer func() {
			err := f.Close()
			if err != nil {
				log.Fatalf("could not close output file: %+v", err)
			}
		}()
		w = f
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch {
	case *links != "":
		err = fromText(w, *links, *feds)
	default:
		err = fromDB(ctx, w, *dbname, *run, *runs, *feds)
	}
	if err != nil {
		log.Fatalf("could not display link maps: %+v", err)
	}
}

func fromDB(ctx context.Context, w io.Writer, dbname string, run int, runs, feds bool) error {
	db, err := conddb.Open(dbname)
	if err != nil {
		return fmt.Errorf("could not open conditions db: %w", err)
	}
	defer db.Close()

	if runs {
		vs, err := db.Runs(ctx)
		if err != nil {
			return fmt.Errorf("could not list runs: %w", err)
		}
		wbuf := bufio.NewWriter(w)
		for _, v := range vs {
			fmt.Fprintf(wbuf, "%d\n", v)
		}
		return wbuf.Flush()
	}

	snap, err := db.LinkMaps(ctx, run)
	if err != nil {
		return fmt.Errorf("could not load link maps for run %d: %w", run, err)
	}
	return display(w, snap, feds)
}

func fromText(w io.Writer, fname string, feds bool) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open link table: %w", err)
	}
	defer f.Close()

	snap, err := link.ReadText(f)
	if err != nil {
		return fmt.Errorf("could not read link table %q: %w", fname, err)
	}
	return display(w, snap, feds)
}

func display(w io.Writer, snap *link.Snapshot, feds bool) error {
	if !feds {
		return link.WriteText(w, snap)
	}

	wbuf := bufio.NewWriter(w)
	fmt.Fprintf(wbuf, "since:    %d\n", snap.Since)
	fmt.Fprintf(wbuf, "dcc:      %v (%d links)\n", snap.DCCFEDs(), snap.DCC.Len())
	fmt.Fprintf(wbuf, "twinmux:  %v (%d links)\n", snap.TwinMuxFEDs(), snap.TwinMux.Len())
	fmt.Fprintf(wbuf, "lb:       %d connectors\n", snap.LB.Len())
	return wbuf.Flush()
}
