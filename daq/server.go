// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package daq provides a TDAQ process unpacking raw RPC events into digis.
package daq // import "github.com/go-lpc/rpcraw/daq"

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-daq/tdaq"
	"github.com/go-lpc/rpcraw/internal/alert"
	"github.com/go-lpc/rpcraw/link"
	"github.com/go-lpc/rpcraw/unpack"
)

// Server unpacks the raw events received on its /raw input end-point and
// publishes their digis on its /digis output end-point.
// Link maps are loaded for the run of the first event, and reloaded
// whenever the run number changes.
type Server struct {
	Name string

	fname string // unpacking configuration
	mail  alert.Mailer
	msg   *log.Logger

	mu    sync.Mutex
	cfg   unpack.Config
	store link.Store
	u     *unpack.Unpacker
	run   int64 // run of the published link maps, -1 if none
	rep   unpack.Report

	ch chan DigiEvent
}

// NewServer creates a new unpacking server, configured from the YAML file
// fname at /config. A nil logger discards decoding diagnostics.
func NewServer(name, fname string, mail alert.Mailer, msg *log.Logger) *Server {
	if msg == nil {
		msg = log.New(io.Discard)
	}
	return &Server{
		Name:  name,
		fname: fname,
		mail:  mail,
		msg:   msg,
		run:   -1,
	}
}

// Report returns the decoding report of the current run.
func (srv *Server) Report() unpack.Report {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	var rep unpack.Report
	rep.Add(srv.rep)
	return rep
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	cfg, err := unpack.LoadConfig(srv.fname)
	if err != nil {
		ctx.Msg.Errorf("could not load configuration: %+v", err)
		return fmt.Errorf("could not load configuration: %w", err)
	}

	u, err := unpack.New(cfg, &srv.store, srv.msg)
	if err != nil {
		ctx.Msg.Errorf("could not create unpacker: %+v", err)
		return fmt.Errorf("could not create unpacker: %w", err)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.cfg = cfg
	srv.u = u
	srv.run = -1
	ctx.Msg.Infof("unpacking %s data (crc=%v)", cfg.Format, cfg.CalculateCRC)
	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.u == nil {
		return fmt.Errorf("unpacker not configured")
	}
	srv.reset()
	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.reset()
	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.rep = unpack.Report{}
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	rep := srv.Report()
	srv.mu.Lock()
	run := srv.run
	srv.mu.Unlock()

	ctx.Msg.Infof("received /stop command... run=%d, events=%d, errors=%d", run, rep.Events, rep.Errors())

	var o strings.Builder
	err := rep.Fprint(&o)
	if err != nil {
		return fmt.Errorf("could not format run report: %w", err)
	}
	ctx.Msg.Infof("run report:\n%s", o.String())

	if n := rep.Errors(); n > 0 && srv.mail.Enabled() {
		err = srv.mail.Send(
			fmt.Sprintf("[%s] run %d: %d unpacking errors", srv.Name, run, n),
			o.String(),
		)
		if err != nil {
			ctx.Msg.Warnf("could not send mail alert: %+v", err)
		}
	}

	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (srv *Server) reset() {
	srv.rep = unpack.Report{}
	srv.ch = make(chan DigiEvent, 16)
}

// links publishes the link maps of run, if they are not already.
func (srv *Server) links(ctx tdaq.Context, run int64) error {
	if run == srv.run {
		return nil
	}
	snap, err := srv.cfg.LinkMaps(ctx.Ctx, int(run))
	if err != nil {
		return fmt.Errorf("could not load link maps for run %d: %w", run, err)
	}
	srv.store.Publish(snap)
	srv.run = run
	ctx.Msg.Infof("published link maps for run %d (since=%d)", run, snap.Since)
	return nil
}

// Input unpacks a raw event.
func (srv *Server) Input(ctx tdaq.Context, src tdaq.Frame) error {
	var raw RawEvent
	err := raw.UnmarshalTDAQ(src.Body)
	if err != nil {
		return fmt.Errorf("could not decode raw event: %w", err)
	}

	srv.mu.Lock()
	if srv.u == nil {
		srv.mu.Unlock()
		return fmt.Errorf("unpacker not configured")
	}
	err = srv.links(ctx, int64(raw.Run))
	if err != nil {
		srv.mu.Unlock()
		return err
	}
	u := srv.u
	ch := srv.ch
	srv.mu.Unlock()

	set, rep, err := u.Unpack(ctx.Ctx, raw.FEDs)
	if err != nil {
		return fmt.Errorf("could not unpack event %d: %w", raw.Event, err)
	}

	srv.mu.Lock()
	srv.rep.Add(rep)
	srv.mu.Unlock()

	ctx.Msg.Debugf("event %d: %d digis", raw.Event, set.Len())
	select {
	case <-ctx.Ctx.Done():
		return nil
	case ch <- DigiEvent{Run: raw.Run, Event: raw.Event, Digis: set.Digis()}:
		return nil
	}
}

// Output publishes the digis of the next unpacked event.
func (srv *Server) Output(ctx tdaq.Context, dst *tdaq.Frame) error {
	srv.mu.Lock()
	ch := srv.ch
	srv.mu.Unlock()

	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case evt := <-ch:
		raw, err := evt.MarshalTDAQ()
		if err != nil {
			return fmt.Errorf("could not encode digis of event %d: %w", evt.Event, err)
		}
		dst.Body = raw
	}
	return nil
}
