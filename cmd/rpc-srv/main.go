// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rpc-srv starts a TDAQ server unpacking raw RPC events into digis.
//
// Usage: rpc-srv [tdaq-options] [unpack.yaml]
//
// Raw events are received on the /raw input end-point and the decoded digis
// are published on the /digis output end-point.
// Unpacking errors reported at /stop are mailed to MAIL_TGTS when the MAIL_XXX
// environment variables are set.
package main // import "github.com/go-lpc/rpcraw/cmd/rpc-srv"

import (
	"context"
	"io"
	"log"
	"os"

	clog "github.com/charmbracelet/log"
	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/config"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/rpcraw/daq"
	"github.com/go-lpc/rpcraw/internal/alert"
)

func main() {
	cmd := flags.New()

	srv, _ := newServer(cmd, os.Stdout, os.Stderr, alert.FromEnv())

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

// configPath returns the unpacking configuration named on the command line.
func configPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "unpack.yaml"
}

func newServer(cmd config.Process, stdout, stderr io.Writer, mail alert.Mailer) (*tdaq.Server, *daq.Server) {
	dmsg := clog.NewWithOptions(stderr, clog.Options{
		Prefix: cmd.Name,
		Level:  clog.WarnLevel,
	})

	dev := daq.NewServer(cmd.Name, configPath(cmd.Args), mail, dmsg)

	srv := tdaq.New(cmd, stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.InputHandle("/raw", dev.Input)
	srv.OutputHandle("/digis", dev.Output)

	return srv, dev
}
