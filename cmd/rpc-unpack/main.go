// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rpc-unpack unpacks a raw RPC event file into an LCIO file of digis.
package main // import "github.com/go-lpc/rpcraw/cmd/rpc-unpack"

import (
	"compress/flate"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	clog "github.com/charmbracelet/log"
	"github.com/go-lpc/rpcraw/internal/eformat"
	"github.com/go-lpc/rpcraw/internal/xcnv"
	"github.com/go-lpc/rpcraw/link"
	"github.com/go-lpc/rpcraw/unpack"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "rpc-unpack: ", 0)
)

func main() {
	var (
		oname = flag.String("o", "out.lcio", "path to output LCIO file")
		compr = flag.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		cfg   = flag.String("cfg", "", "path to unpacking configuration file")
		run   = flag.Int("run", 0, "run used to select link maps from the conditions db (default: run of the first event)")
		freq  = flag.Int("freq", 100, "frequency of progress messages")
		vrb   = flag.Bool("v", false, "enable verbose decoding diagnostics")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: rpc-unpack [OPTIONS] file.raw

ex:
 $> rpc-unpack -cfg ./unpack.yaml -o out.lcio -lvl=9 ./run_000042.raw

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		msg.Fatalf("missing input raw file")
	}

	if *oname == "" {
		flag.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	lvl := clog.WarnLevel
	if *vrb {
		lvl = clog.DebugLevel
	}
	dmsg := clog.NewWithOptions(os.Stderr, clog.Options{
		Prefix: "rpc-unpack",
		Level:  lvl,
	})

	err := process(*oname, *compr, *cfg, *run, *freq, flag.Arg(0), dmsg)
	if err != nil {
		msg.Fatalf("could not unpack raw file: %+v", err)
	}
}

func process(oname string, lvl int, cname string, run, freq int, fname string, dmsg *clog.Logger) error {
	ctx := context.Background()

	cfg := unpack.DefaultConfig()
	if cname != "" {
		var err error
		cfg, err = unpack.LoadConfig(cname)
		if err != nil {
			return fmt.Errorf("could not load configuration: %w", err)
		}
	}

	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open raw file: %w", err)
	}
	defer f.Close()

	if run == 0 {
		run, err = firstRun(f)
		if err != nil {
			return fmt.Errorf("could not infer run from %q: %w", fname, err)
		}
	}

	snap, err := cfg.LinkMaps(ctx, run)
	if err != nil {
		return fmt.Errorf("could not load link maps: %w", err)
	}
	store := new(link.Store)
	store.Publish(snap)

	u, err := unpack.New(cfg, store, dmsg)
	if err != nil {
		return fmt.Errorf("could not create unpacker: %w", err)
	}

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	rep, err := xcnv.Raw2LCIO(ctx, w, eformat.NewDecoder(f), u, freq, msg)
	if err != nil {
		return fmt.Errorf("could not convert raw file to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return rep.Fprint(msg.Writer())
}

// firstRun returns the run of the first event of f, and rewinds f.
func firstRun(f io.ReadSeeker) (int, error) {
	var evt eformat.Event
	err := eformat.NewDecoder(f).Decode(&evt)
	if err != nil {
		return 0, err
	}
	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		return 0, err
	}
	return int(evt.Run), nil
}
