/*
NAME
  applog.go

DESCRIPTION
  applog.go wires the ausocean-av logging convention (logging.Logger over
  a lumberjack-rotated file, as cmd/rv and cmd/audio-netsender construct
  it) into a standalone binary with no cloud-side log shipper: the
  receiver and emitter daemons log to a rotated file plus, when running
  under systemd, the journal, rather than ausocean-av's netlogger.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package applog constructs the logging.Logger shared by every cmd/
// entrypoint: a rotated file sink, teed to the systemd journal when one
// is present.
package applog

import (
	"io"

	"github.com/coreos/go-systemd/journal"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"
)

// Rotation policy for the file sink, matching cmd/rv's constants.
const (
	MaxSize    = 50 // MB
	MaxBackups = 5
	MaxAge     = 28 // days
)

// New constructs a logging.Logger at level that writes to a rotated
// file at path and, when the process was started by systemd, also to
// the journal with streamName attached as a structured field.
func New(level int8, path, streamName string) logging.Logger {
	var w io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxSize,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAge,
	}
	if journal.Enabled() {
		w = io.MultiWriter(w, &journalWriter{streamName: streamName})
	}
	return logging.New(level, w, true)
}

// journalWriter adapts the journal's Send call to io.Writer so it can
// sit alongside the lumberjack sink in an io.MultiWriter; logging.New
// writes one already-formatted line per call.
type journalWriter struct {
	streamName string
}

func (j *journalWriter) Write(p []byte) (int, error) {
	vars := map[string]string{}
	if j.streamName != "" {
		vars["VBAN_STREAM"] = j.streamName
	}
	if err := journal.Send(string(p), journal.PriInfo, vars); err != nil {
		return 0, err
	}
	return len(p), nil
}
