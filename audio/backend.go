/*
NAME
  backend.go

DESCRIPTION
  backend.go defines the polymorphic audio backend contract: the
  {open, close, write, read} capability set every concrete sink/source
  implements, and the quality-index-to-buffer-size-hint table used by
  both CLI entrypoints.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package audio defines the pluggable audio backend contract shared by the
// VBAN receive and emit pipelines, and the registry concrete backends
// (alsa, pulseaudio, jack, pipe, file) register themselves into.
package audio

import (
	"fmt"
	"sort"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/vban"
)

// Direction selects whether a Backend is opened for playback (receiver
// side) or capture (emitter side).
type Direction int

const (
	// Out is a playback sink: the receiver writes decoded PCM to it.
	Out Direction = iota
	// In is a capture source: the emitter reads captured PCM from it.
	In
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Backend is the capability set every concrete audio sink/source
// implements. Open is idempotent: calling it again on an
// already-open backend closes and reopens the device with the new
// format. Close is safe to call on a backend that was never opened.
type Backend interface {
	// Open prepares device for direction with the given stream format.
	// hint is a target period size in bytes; the backend may coerce it
	// to the nearest size its driver supports.
	Open(device string, direction Direction, hint int, cfg vban.StreamConfig) error
	// Close releases the device.
	Close() error
	// Write sends buf to an Out backend. It may write fewer bytes than
	// len(buf); a short write is not itself an error.
	Write(buf []byte) (int, error)
	// Read fills buf from an In backend. It may read fewer bytes than
	// len(buf); a short read is not itself an error.
	Read(buf []byte) (int, error)
}

// Constructor builds a fresh, unopened Backend instance that logs
// through l.
type Constructor func(l logging.Logger) Backend

// registry maps backend identifiers (alsa, pulseaudio, jack, pipe,
// file) to their constructors. Concrete backend packages populate it
// from their own init() via Register; which identifiers are actually
// reachable therefore depends on which backend packages the final
// binary imports.
var registry = map[string]Constructor{}

// defaultName is the first backend registered; it becomes New's
// default when called with an empty name.
var defaultName string

// Register adds a backend constructor under name. It is called from the
// init() of each concrete backend package that is blank-imported by a
// cmd/ entrypoint. The first call to Register in a process sets the
// default backend.
func Register(name string, ctor Constructor) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("audio: backend %q already registered", name))
	}
	if defaultName == "" {
		defaultName = name
	}
	registry[name] = ctor
}

// New constructs the backend registered under name, logging through l.
// An empty name selects the default backend (the first one registered).
func New(name string, l logging.Logger) (Backend, error) {
	if name == "" {
		name = defaultName
	}
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("audio: backend %q not available (compiled in: %s): %w", name, Names(), ErrInvalidArgument)
	}
	return ctor(l), nil
}

// Names returns the sorted list of backend identifiers available in this
// binary, for the CLIs' -b flag help text.
func Names() string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// qualityFrames maps a quality index (0..4) to a base frame count.
// Index 1 is the default quality.
var qualityFrames = [5]int{512, 1024, 2048, 4096, 8192}

// BufferSizeHint computes the target backend buffer size, in bytes,
// for quality (clamped to 0..4): qualityFrames[quality] * 3,
// lower-bounded by vban.ProtocolMaxSize. The hint is a byte count;
// backends that think in periods (audio/alsa) convert it to frames
// themselves using the frame size they negotiated.
func BufferSizeHint(quality int) int {
	if quality < 0 {
		quality = 0
	}
	if quality > 4 {
		quality = 4
	}
	n := qualityFrames[quality] * 3
	if n < vban.ProtocolMaxSize {
		n = vban.ProtocolMaxSize
	}
	return n
}
