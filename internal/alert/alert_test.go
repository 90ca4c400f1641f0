// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alert

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"

	mail "gopkg.in/gomail.v2"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("MAIL_USERNAME", "daq@example.org")
	t.Setenv("MAIL_PASSWORD", "s3cr3t")
	t.Setenv("MAIL_SERVER", "smtp.example.org")
	t.Setenv("MAIL_PORT", "587")
	t.Setenv("MAIL_TGTS", "shifter@example.org, expert@example.org,")

	m := FromEnv()
	want := Mailer{
		Usr:  "daq@example.org",
		Pwd:  "s3cr3t",
		Srv:  "smtp.example.org",
		Port: 587,
		Tgts: []string{"shifter@example.org", "expert@example.org"},
	}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("invalid mailer:\ngot= %+v\nwant=%+v", m, want)
	}
	if !m.Enabled() {
		t.Fatalf("mailer should be enabled")
	}

	t.Setenv("MAIL_TGTS", "")
	if FromEnv().Enabled() {
		t.Fatalf("mailer without recipients should be disabled")
	}
}

func TestSend(t *testing.T) {
	var (
		from string
		to   []string
		body = new(bytes.Buffer)
	)
	m := Mailer{
		Usr:  "daq@example.org",
		Pwd:  "s3cr3t",
		Srv:  "smtp.example.org",
		Port: 587,
		Tgts: []string{"shifter@example.org"},
		Sender: mail.SendFunc(func(f string, t []string, msg io.WriterTo) error {
			from = f
			to = t
			_, err := msg.WriteTo(body)
			return err
		}),
	}

	err := m.Send("[rpc-srv] run 42: 3 errors", "FED 790: 3 errors")
	if err != nil {
		t.Fatalf("could not send alert: %+v", err)
	}

	if got, want := from, "daq@example.org"; got != want {
		t.Fatalf("invalid sender: got=%q, want=%q", got, want)
	}
	if got, want := to, []string{"shifter@example.org"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid recipients: got=%q, want=%q", got, want)
	}
	for _, want := range []string{"run 42: 3 errors", "FED 790: 3 errors"} {
		if !strings.Contains(body.String(), want) {
			t.Fatalf("missing %q in mail:\n%s", want, body.String())
		}
	}
}

func TestSendDisabled(t *testing.T) {
	err := Mailer{}.Send("subject", "body")
	if err == nil {
		t.Fatalf("expected an error")
	}
}
