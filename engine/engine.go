/*
NAME
  engine.go

DESCRIPTION
  engine.go implements the audio engine: it owns the current stream
  configuration and channel map, decides when the backend needs
  reopening, and performs channel remapping between the wire layout and
  the device layout.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package engine implements the VBAN audio engine: the stream-format
// state machine that reopens the backend on format change, and the
// channel remap stage between the wire layout and the device layout.
package engine

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/vban"
)

// Config describes how an Engine should open its backend: which
// backend, which device, what direction, and the buffer-size hint.
type Config struct {
	Direction audio.Direction
	Backend   audio.Backend
	Device    string
	Hint      int
}

// Engine owns the current stream configuration and channel map for one
// direction of the pipeline.
type Engine struct {
	cfg Config
	log logging.Logger

	current *vban.StreamConfig // nil until the first SetStreamConfig.
	chanMap []int              // nil when no map is configured.

	scratch []byte // remap destination buffer, grown on demand.
}

// New constructs an Engine for cfg, logging through l. The engine
// starts unconfigured: current is nil until the first SetStreamConfig
// call, so the very first packet always triggers a backend open.
func New(cfg Config, l logging.Logger) *Engine {
	return &Engine{cfg: cfg, log: l}
}

// Close releases the engine's backend. It is safe to call on an engine
// whose backend was never opened, and from a goroutine other than the
// one driving Write/Read, to unblock an in-flight blocking backend call
// on shutdown. Close does not touch the cached stream configuration:
// the engine is being torn down, not reconfigured.
func (e *Engine) Close() error {
	return e.cfg.Backend.Close()
}

// deviceConfig returns the configuration the backend itself should be
// opened with. The map's channel count only overrides the device side
// on the receive direction (Out/playback): the map picks channels from
// the wire and delivers them to the device, so the device is opened
// with as many channels as the map has entries. On the emit direction
// (In/capture) the device keeps the engine's own channel count; the
// map there narrows what's sent to the wire on Read, not what's
// requested from the capture device.
func (e *Engine) deviceConfig(stream vban.StreamConfig) vban.StreamConfig {
	if e.chanMap != nil && e.cfg.Direction == audio.Out {
		stream.NbChannels = len(e.chanMap)
	}
	return stream
}

// SetStreamConfig compares cfg to the cached configuration; if they're
// equal, this is a no-op. Otherwise it closes the backend, reopens it
// with the new device configuration, and caches cfg. On open failure
// the cache is cleared so the next packet retries.
func (e *Engine) SetStreamConfig(cfg vban.StreamConfig) error {
	if e.current != nil && *e.current == cfg {
		return nil
	}

	e.log.Info("new stream config", "config", cfg.String())

	if err := e.cfg.Backend.Close(); err != nil {
		e.log.Warning("could not close backend before reconfigure", "error", err.Error())
	}

	dev := e.deviceConfig(cfg)
	if err := e.cfg.Backend.Open(e.cfg.Device, e.cfg.Direction, e.cfg.Hint, dev); err != nil {
		e.current = nil
		return errors.Wrapf(err, "engine: could not open backend with new config %s", dev)
	}

	e.current = &cfg
	return nil
}

// StreamConfig returns the currently cached stream configuration, as
// seen from the wire side: on the emit direction (In/capture), the
// map's channel count overrides the cached (capture-native) channel
// count, since the map is what's actually sent over the wire. On the
// receive direction the cached config already is the wire config.
// Returns false if no stream is configured yet.
func (e *Engine) StreamConfig() (vban.StreamConfig, bool) {
	if e.current == nil {
		return vban.StreamConfig{}, false
	}
	cfg := *e.current
	if e.cfg.Direction == audio.In && e.chanMap != nil {
		cfg.NbChannels = len(e.chanMap)
	}
	return cfg, true
}

// SetMapConfig caches m as the engine's channel map. It does not
// reopen the backend: the next stream reconfiguration will pick up the
// new map's channel count. A nil or empty m clears the map.
func (e *Engine) SetMapConfig(m []int) {
	if len(m) == 0 {
		e.chanMap = nil
		return
	}
	e.log.Info("new map config", "channels", len(m))
	e.chanMap = m
}

// Write forwards buf (PCM at the wire's stream configuration) to the
// backend, remapping channels first if a map is configured (receive
// direction).
func (e *Engine) Write(buf []byte) (int, error) {
	if e.current == nil {
		return 0, fmt.Errorf("engine: write before stream config is set: %w", audio.ErrInvalidArgument)
	}
	if e.chanMap == nil {
		return e.cfg.Backend.Write(buf)
	}

	out := e.remapScratch(len(buf) / e.current.FrameSize() * len(e.chanMap) * e.current.BitFmt.SampleSize())
	n := Remap(buf, out, *e.current, e.chanMap)
	return e.cfg.Backend.Write(out[:n])
}

// Read fills buf from the backend (emit direction), reverse-remapping
// into buf if a map is configured: the map picks channels from the
// capture device and delivers them to the wire.
func (e *Engine) Read(buf []byte) (int, error) {
	if e.current == nil {
		return 0, fmt.Errorf("engine: read before stream config is set: %w", audio.ErrInvalidArgument)
	}
	if e.chanMap == nil {
		return e.cfg.Backend.Read(buf)
	}

	// On the emit direction deviceConfig returns e.current unmodified: the
	// capture device always runs at the engine's own channel count, and
	// the map only narrows what's handed to the wire below.
	srcCfg := e.deviceConfig(*e.current)
	captureSize := len(buf) / (len(e.chanMap) * e.current.BitFmt.SampleSize()) * srcCfg.FrameSize()
	in := e.remapScratch(captureSize)
	n, err := e.cfg.Backend.Read(in)
	if err != nil {
		return 0, err
	}
	return Remap(in[:n], buf, srcCfg, e.chanMap), nil
}

// remapScratch returns e.scratch grown to at least n bytes, reused
// across calls to avoid an allocation on the hot path.
func (e *Engine) remapScratch(n int) []byte {
	if cap(e.scratch) < n {
		e.scratch = make([]byte, n)
	}
	return e.scratch[:n]
}
