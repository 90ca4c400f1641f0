// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unpack

import (
	"context"
	"fmt"
	"os"

	"github.com/go-lpc/rpcraw/conddb"
	"github.com/go-lpc/rpcraw/link"
	"github.com/go-lpc/rpcraw/twinmux"
	"gopkg.in/yaml.v3"
)

// Format is the readout format of the unpacked FEDs.
type Format string

const (
	DCC     Format = "dcc"
	TwinMux Format = "twinmux"
)

// Config configures an Unpacker.
type Config struct {
	Format       Format `yaml:"format"`
	CalculateCRC bool   `yaml:"calculate-crc"`
	BXMin        int    `yaml:"bx-min"` // TwinMux only
	BXMax        int    `yaml:"bx-max"` // TwinMux only

	FEDs  []int  `yaml:"feds"`  // FEDs to unpack; all FEDs of the link map if empty
	Links string `yaml:"links"` // text link table
	DB    string `yaml:"db"`    // conditions database, when no link table is given
}

// DefaultConfig returns the default unpacking configuration.
func DefaultConfig() Config {
	return Config{
		Format:       DCC,
		CalculateCRC: true,
		BXMin:        twinmux.DefaultBXMin,
		BXMax:        twinmux.DefaultBXMax,
	}
}

// LoadConfig reads a YAML configuration file.
// Missing keys keep their default value.
func LoadConfig(fname string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(fname)
	if err != nil {
		return cfg, fmt.Errorf("unpack: could not read config file: %w", err)
	}

	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("unpack: could not decode config file %q: %w", fname, err)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the consistency of the configuration.
func (cfg Config) Validate() error {
	switch cfg.Format {
	case DCC, TwinMux:
	default:
		return fmt.Errorf("unpack: invalid format %q", cfg.Format)
	}
	if cfg.BXMin > cfg.BXMax {
		return fmt.Errorf("unpack: invalid bx window [%d, %d]", cfg.BXMin, cfg.BXMax)
	}
	for _, fed := range cfg.FEDs {
		if fed < link.MinFED || fed > link.MaxFED {
			return fmt.Errorf("unpack: invalid FED %d", fed)
		}
	}
	return nil
}

// LinkMaps loads the link maps valid for run, from the text link table
// when one is configured, or from the conditions database.
func (cfg Config) LinkMaps(ctx context.Context, run int) (*link.Snapshot, error) {
	switch {
	case cfg.Links != "":
		f, err := os.Open(cfg.Links)
		if err != nil {
			return nil, fmt.Errorf("unpack: could not open link table: %w", err)
		}
		defer f.Close()

		snap, err := link.ReadText(f)
		if err != nil {
			return nil, fmt.Errorf("unpack: could not read link table %q: %w", cfg.Links, err)
		}
		return snap, nil

	case cfg.DB != "":
		db, err := conddb.Open(cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("unpack: could not open conditions db: %w", err)
		}
		defer db.Close()

		snap, err := db.LinkMaps(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("unpack: could not load link maps for run %d: %w", run, err)
		}
		return snap, nil
	}

	return nil, fmt.Errorf("unpack: no link table nor conditions db configured")
}
