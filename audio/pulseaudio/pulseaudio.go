/*
NAME
  pulseaudio.go

DESCRIPTION
  pulseaudio.go implements the PulseAudio audio backend on top of
  github.com/mesilliac/pulse-simple, a binding for PulseAudio's "simple"
  blocking API. The backend only serves S16LE streams; Open rejects any
  other bit format rather than resample.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pulseaudio implements the PulseAudio audio backend using
// PulseAudio's simple blocking API.
package pulseaudio

import (
	"fmt"

	pulse "github.com/mesilliac/pulse-simple"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/vban"
)

func init() {
	audio.Register("pulseaudio", func(l logging.Logger) audio.Backend { return New(l) })
}

const appName = "vban"

// Backend is the PulseAudio audio.Backend implementation.
type Backend struct {
	log    logging.Logger
	stream *pulse.Stream
}

// New returns an unopened PulseAudio backend logging through l.
func New(l logging.Logger) *Backend { return &Backend{log: l} }

// Open starts a PulseAudio simple stream against the sink or source
// named device (empty selects the server default). Only 16_INT streams
// are supported, matching the simple API's fixed S16LE sample format.
func (b *Backend) Open(device string, direction audio.Direction, hint int, cfg vban.StreamConfig) error {
	b.Close()

	if cfg.BitFmt != vban.BitFormat16Int {
		return fmt.Errorf("pulseaudio: only 16_INT streams supported, got %s: %w", cfg.BitFmt, audio.ErrInvalidArgument)
	}
	spec := pulse.SampleSpec{Format: pulse.SAMPLE_S16LE, Rate: cfg.SampleRate, Channels: uint8(cfg.NbChannels)}

	var dir pulse.StreamDirection
	switch direction {
	case audio.Out:
		dir = pulse.STREAM_PLAYBACK
	case audio.In:
		dir = pulse.STREAM_RECORD
	default:
		return fmt.Errorf("pulseaudio: unknown direction %v: %w", direction, audio.ErrInvalidArgument)
	}

	// device is the PulseAudio sink/source name; empty selects the
	// server's default, as the simple API's NULL dev argument does.
	stream, err := pulse.NewStream("", appName, dir, device, appName, &spec, nil, nil)
	if err != nil {
		return fmt.Errorf("pulseaudio: open: %w: %w", err, audio.ErrDevice)
	}
	b.stream = stream
	b.log.Info("pulseaudio stream opened", "direction", direction, "rate", cfg.SampleRate, "device", device)
	return nil
}

// Close frees the PulseAudio stream. Close is idempotent.
func (b *Backend) Close() error {
	if b.stream == nil {
		return nil
	}
	b.stream.Drain()
	b.stream.Free()
	b.stream = nil
	return nil
}

// Write writes buf to the playback stream, blocking until PulseAudio
// accepts it.
func (b *Backend) Write(buf []byte) (int, error) {
	if b.stream == nil {
		return 0, fmt.Errorf("pulseaudio: not open: %w", audio.ErrDevice)
	}
	n, err := b.stream.Write(buf)
	if err != nil {
		return n, fmt.Errorf("pulseaudio: write: %w: %w", err, audio.ErrDevice)
	}
	return n, nil
}

// Read fills buf from the capture stream, blocking until PulseAudio has
// enough data.
func (b *Backend) Read(buf []byte) (int, error) {
	if b.stream == nil {
		return 0, fmt.Errorf("pulseaudio: not open: %w", audio.ErrDevice)
	}
	n, err := b.stream.Read(buf)
	if err != nil {
		return n, fmt.Errorf("pulseaudio: read: %w: %w", err, audio.ErrDevice)
	}
	return n, nil
}
