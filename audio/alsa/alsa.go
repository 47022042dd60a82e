/*
NAME
  alsa.go

DESCRIPTION
  alsa.go implements the ALSA audio backend on top of
  github.com/yobert/alsa: a playback sink for the receiver, a capture
  source for the emitter. Hardware parameters are negotiated in the
  order channels, rate, format, period, buffer size.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package alsa implements the ALSA audio backend for both playback
// (receiver) and capture (emitter) directions.
package alsa

import (
	"fmt"

	yalsa "github.com/yobert/alsa"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/vban"
)

func init() {
	audio.Register("alsa", func(l logging.Logger) audio.Backend { return New(l) })
}

// Backend is the ALSA audio.Backend implementation.
type Backend struct {
	log       logging.Logger
	dev       *yalsa.Device
	title     string
	frameSize int // negotiated channels * sample size, set at Open.
}

// New returns an unopened ALSA backend logging through l.
func New(l logging.Logger) *Backend { return &Backend{log: l} }

// Open negotiates device (ALSA device title; "" selects the first
// matching device) for direction and cfg, following
// channels-then-rate-then-format-then-period negotiation order.
func (b *Backend) Open(device string, direction audio.Direction, hint int, cfg vban.StreamConfig) error {
	b.Close()
	b.title = device

	fmtType, err := alsaFormat(cfg.BitFmt)
	if err != nil {
		return err
	}

	want := yalsa.PCM
	playback := direction == audio.Out

	cards, err := yalsa.OpenCards()
	if err != nil {
		return fmt.Errorf("alsa: open cards: %w: %w", err, audio.ErrDevice)
	}
	defer yalsa.CloseCards(cards)

	for _, card := range cards {
		devices, err := card.Devices()
		if err != nil {
			continue
		}
		for _, dev := range devices {
			if dev.Type != want {
				continue
			}
			if playback && !dev.Play {
				continue
			}
			if !playback && !dev.Record {
				continue
			}
			if b.title != "" && dev.Title != b.title {
				continue
			}
			b.dev = dev
			break
		}
		if b.dev != nil {
			break
		}
	}
	if b.dev == nil {
		return fmt.Errorf("alsa: no matching device found (title %q, playback %v): %w", b.title, playback, audio.ErrDevice)
	}

	b.log.Debug("opening alsa device", "title", b.dev.Title)
	if err := b.dev.Open(); err != nil {
		return fmt.Errorf("alsa: open device: %w: %w", err, audio.ErrDevice)
	}

	channels, err := b.dev.NegotiateChannels(cfg.NbChannels)
	if err != nil {
		b.Close()
		return fmt.Errorf("alsa: negotiate %d channels: %w: %w", cfg.NbChannels, err, audio.ErrDevice)
	}
	b.log.Debug("alsa channels negotiated", "channels", channels)

	rate, err := b.dev.NegotiateRate(int(cfg.SampleRate))
	if err != nil {
		b.Close()
		return fmt.Errorf("alsa: negotiate rate %d: %w: %w", cfg.SampleRate, err, audio.ErrDevice)
	}
	b.log.Debug("alsa rate negotiated", "rate", rate)

	devFmt, err := b.dev.NegotiateFormat(fmtType)
	if err != nil {
		b.Close()
		return fmt.Errorf("alsa: negotiate format: %w: %w", err, audio.ErrDevice)
	}
	b.log.Debug("alsa format negotiated", "format", devFmt)

	// The shared hint is a byte count; ALSA periods are counted in
	// frames, so convert via the negotiated frame size.
	b.frameSize = channels * cfg.BitFmt.SampleSize()
	wantPeriod := hint
	if b.frameSize > 0 {
		wantPeriod = hint / b.frameSize
	}
	if wantPeriod < 1 {
		wantPeriod = 1
	}
	period, err := b.dev.NegotiatePeriodSize(wantPeriod)
	if err != nil {
		b.Close()
		return fmt.Errorf("alsa: negotiate period size %d: %w: %w", wantPeriod, err, audio.ErrDevice)
	}
	b.log.Debug("alsa period negotiated", "period", period)

	bufSize, err := b.dev.NegotiateBufferSize(period * 4)
	if err != nil {
		b.Close()
		return fmt.Errorf("alsa: negotiate buffer size: %w: %w", err, audio.ErrDevice)
	}
	b.log.Debug("alsa buffer size negotiated", "buffer", bufSize)

	if err := b.dev.Prepare(); err != nil {
		b.Close()
		return fmt.Errorf("alsa: prepare: %w: %w", err, audio.ErrDevice)
	}

	return nil
}

// Close releases the ALSA device. Close is idempotent.
func (b *Backend) Close() error {
	if b.dev == nil {
		return nil
	}
	b.dev.Close()
	b.dev = nil
	return nil
}

// Write writes buf to the ALSA playback device. ALSA underruns are
// recovered by the yobert/alsa binding internally; any error that
// survives that is reported as a DeviceError.
func (b *Backend) Write(buf []byte) (int, error) {
	if b.dev == nil {
		return 0, fmt.Errorf("alsa: not open: %w", audio.ErrDevice)
	}
	err := b.dev.Write(buf, len(buf)/b.frameSize)
	if err != nil {
		return 0, fmt.Errorf("alsa: write: %w: %w", err, audio.ErrDevice)
	}
	return len(buf), nil
}

// Read reads from the ALSA capture device, filling buf completely or
// returning an error.
func (b *Backend) Read(buf []byte) (int, error) {
	if b.dev == nil {
		return 0, fmt.Errorf("alsa: not open: %w", audio.ErrDevice)
	}
	err := b.dev.Read(buf)
	if err != nil {
		return 0, fmt.Errorf("alsa: read: %w: %w", err, audio.ErrDevice)
	}
	return len(buf), nil
}

// alsaFormat maps a VBAN bit format to the nearest ALSA sample format
// the yobert/alsa binding supports. 24_INT, 32_FLOAT and 64_FLOAT have
// no equivalent in this binding.
func alsaFormat(bf vban.BitFormat) (yalsa.FormatType, error) {
	switch bf {
	case vban.BitFormat8Int:
		return yalsa.S8, nil
	case vban.BitFormat16Int:
		return yalsa.S16_LE, nil
	case vban.BitFormat32Int:
		return yalsa.S32_LE, nil
	default:
		return 0, fmt.Errorf("alsa: bit format %s not supported by this backend: %w", bf, audio.ErrInvalidArgument)
	}
}
