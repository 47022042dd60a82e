/*
NAME
  pipe.go

DESCRIPTION
  pipe.go implements the FIFO/named-pipe audio backend: it creates (or
  opens) a FIFO at a fixed path and reads/writes raw PCM through it,
  letting an external process (ffplay, sox, a second VBAN instance) sit
  on the other end. Platform-specific FIFO creation lives in
  pipe_unix.go/pipe_windows.go.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipe implements the FIFO/named-pipe audio backend: a simple
// always-available sink/source for piping PCM to or from an external
// process.
package pipe

import (
	"fmt"
	"os"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/vban"
)

func init() {
	audio.Register("pipe", func(l logging.Logger) audio.Backend { return New(l) })
}

// DefaultPath is the FIFO path used when no device name is given.
const DefaultPath = defaultPath

// Backend is the pipe audio.Backend implementation.
type Backend struct {
	log  logging.Logger
	path string
	f    *os.File
}

// New returns an unopened pipe backend logging through l.
func New(l logging.Logger) *Backend { return &Backend{log: l} }

// Open creates (if needed) and opens the FIFO at path (DefaultPath if
// empty) for direction. cfg is unused: a raw pipe carries whatever
// bytes are written to it, with no format negotiation.
func (b *Backend) Open(path string, direction audio.Direction, hint int, cfg vban.StreamConfig) error {
	b.Close()
	if path == "" {
		path = DefaultPath
	}
	b.path = path

	if err := createFIFO(path); err != nil {
		return fmt.Errorf("pipe: create fifo %s: %w: %w", path, err, audio.ErrDevice)
	}

	flag := os.O_RDONLY
	if direction == audio.Out {
		flag = os.O_WRONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return fmt.Errorf("pipe: open %s: %w: %w", path, err, audio.ErrDevice)
	}
	b.f = f
	b.log.Info("pipe backend open", "path", path, "direction", direction)
	return nil
}

// Close closes the pipe and unlinks it.
func (b *Backend) Close() error {
	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	os.Remove(b.path)
	if err != nil {
		return fmt.Errorf("pipe: close: %w: %w", err, audio.ErrDevice)
	}
	return nil
}

// Write writes buf to the pipe.
func (b *Backend) Write(buf []byte) (int, error) {
	if b.f == nil {
		return 0, fmt.Errorf("pipe: not open: %w", audio.ErrDevice)
	}
	n, err := b.f.Write(buf)
	if err != nil {
		return n, fmt.Errorf("pipe: write: %w: %w", err, audio.ErrDevice)
	}
	return n, nil
}

// Read reads from the pipe.
func (b *Backend) Read(buf []byte) (int, error) {
	if b.f == nil {
		return 0, fmt.Errorf("pipe: not open: %w", audio.ErrDevice)
	}
	n, err := b.f.Read(buf)
	if err != nil {
		return n, fmt.Errorf("pipe: read: %w: %w", err, audio.ErrDevice)
	}
	return n, nil
}
