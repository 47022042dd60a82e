/*
NAME
  jack.go

DESCRIPTION
  jack.go implements the callback-driven JACK Audio Connection Kit
  backend, the one backend whose driver calls back into our code from
  its own realtime thread rather than being called synchronously from
  the pipeline loop. Samples are handed across that boundary through a
  lock-free ring buffer (audio/ring), and driver shutdown is handed
  back as a status byte the pipeline observes on its next Write.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package jack implements the JACK Audio Connection Kit audio backend:
// a callback-driven playback sink fed through a lock-free SPSC ring
// buffer, because JACK drives playback from its own thread.
package jack

import (
	"fmt"
	"math"
	"sync/atomic"

	jacklib "github.com/xthexder/go-jack"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/audio/ring"
	"github.com/ausocean/vban/vban"
)

func init() {
	audio.Register("jack", func(l logging.Logger) audio.Backend { return New(l) })
}

// nBuffers is the ring buffer's size multiple over one period.
const nBuffers = 2

// state is the callback backend's lifecycle: idle until the driver's
// first process callback fires, active while serving audio, shutdown
// once the driver calls our shutdown callback.
type state int32

const (
	stateIdle state = iota
	stateActive
	stateShutdown
)

// Backend is the JACK audio.Backend implementation.
type Backend struct {
	log    logging.Logger
	client *jacklib.Client
	ports  []*jacklib.Port

	ring       *ring.Buffer
	bitFmt     vban.BitFormat
	nbChannels int
	sampleSize int
	chanBufs   [][]jacklib.AudioSample // reused by process to avoid allocating on the audio thread.

	state atomic.Int32 // holds a state value; set from the audio thread, read from the pipeline thread.
}

// New returns an unopened JACK backend logging through l.
func New(l logging.Logger) *Backend { return &Backend{log: l} }

// Open starts (or restarts) a JACK client named device (or "vban" if
// empty), registers nbChannels output ports, and autoconnects them to
// the first physical playback ports JACK reports.
func (b *Backend) Open(device string, direction audio.Direction, hint int, cfg vban.StreamConfig) error {
	if direction != audio.Out {
		return fmt.Errorf("jack: capture not supported: %w", audio.ErrInvalidArgument)
	}
	b.Close()

	if device == "" {
		device = "vban"
	}
	client, status := jacklib.ClientOpen(device, jacklib.NoStartServer)
	if client == nil {
		return fmt.Errorf("jack: client open failed (status %v): %w", status, audio.ErrDevice)
	}
	b.client = client
	b.nbChannels = cfg.NbChannels
	b.bitFmt = cfg.BitFmt
	b.sampleSize = cfg.BitFmt.SampleSize()
	b.state.Store(int32(stateIdle))

	period := int(client.GetBufferSize()) * b.nbChannels * b.sampleSize
	size := hint
	if size < period {
		size = period
	}
	size *= nBuffers
	b.ring = ring.New(size)
	b.ring.Fill(size / 2)

	b.ports = make([]*jacklib.Port, b.nbChannels)
	b.chanBufs = make([][]jacklib.AudioSample, b.nbChannels)
	for i := 0; i < b.nbChannels; i++ {
		name := fmt.Sprintf("playback_%d", i+1)
		port := client.PortRegister(name, jacklib.DEFAULT_AUDIO_TYPE, jacklib.PortIsOutput, 0)
		if port == nil {
			b.Close()
			return fmt.Errorf("jack: could not register port %s: %w", name, audio.ErrDevice)
		}
		b.ports[i] = port
	}

	if code := client.SetProcessCallback(b.process); code != 0 {
		b.Close()
		return fmt.Errorf("jack: set process callback failed (%v): %w", code, audio.ErrDevice)
	}
	client.OnShutdown(b.shutdown)

	if code := client.Activate(); code != 0 {
		b.Close()
		return fmt.Errorf("jack: activate failed (%v): %w", code, audio.ErrDevice)
	}
	b.log.Debug("jack client activated", "channels", b.nbChannels, "ring_bytes", size)

	// XXX autoconnect is convenient for a VBAN endpoint that plays
	// straight to hardware, but it is a policy decision; a future CLI
	// flag could disable it.
	physical := client.GetPorts("", "", jacklib.PortIsPhysical|jacklib.PortIsInput)
	for i := 0; i < len(physical) && i < b.nbChannels; i++ {
		if code := client.Connect(b.ports[i].GetName(), physical[i]); code != 0 {
			b.log.Warning("could not autoconnect jack port", "port", b.ports[i].GetName(), "target", physical[i])
		}
	}

	return nil
}

// Close deactivates and closes the JACK client. Close is safe to call
// when Open was never called or already failed.
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	b.client.Deactivate()
	code := b.client.Close()
	b.client = nil
	b.ports = nil
	b.chanBufs = nil
	b.ring = nil
	if code != 0 {
		return fmt.Errorf("jack: close failed (%v): %w", code, audio.ErrDevice)
	}
	return nil
}

// Write enqueues buf into the ring for the process callback to consume.
// If there isn't enough free space the whole write is dropped and 0 is
// returned; that is back-pressure, not a device error.
func (b *Backend) Write(buf []byte) (int, error) {
	if b.ring == nil {
		return 0, fmt.Errorf("jack: not open: %w", audio.ErrDevice)
	}
	if state(b.state.Load()) == stateShutdown {
		return 0, fmt.Errorf("jack: client shut down: %w", audio.ErrDevice)
	}
	n := b.ring.Write(buf)
	if n == 0 && len(buf) > 0 {
		b.log.Warning("jack short write", "size", len(buf), "free", b.ring.Free())
	}
	return n, nil
}

// Read is unsupported: the JACK backend only implements the receiver
// (playback) direction in this endpoint.
func (b *Backend) Read(buf []byte) (int, error) {
	return 0, fmt.Errorf("jack: capture not supported: %w", audio.ErrInvalidArgument)
}

// process is JACK's realtime callback. It must never block or
// allocate: buffers are fetched from the pre-sized port/ring state
// captured at Open, and sampleParts is a fixed-size array, not a slice
// literal, to avoid an escape to the heap.
func (b *Backend) process(nframes uint32) int {
	b.state.Store(int32(stateActive))

	out := b.chanBufs
	for c := range b.ports {
		out[c] = b.ports[c].GetBuffer(nframes)
	}

	need := int(nframes) * b.nbChannels * b.sampleSize
	vecs := b.ring.ReadVectors(need)
	total := len(vecs[0].Buf) + len(vecs[1].Buf)
	if total < need {
		b.log.Warning("jack short read", "want", need, "got", total)
		for c := range out {
			for i := range out[c] {
				out[c][i] = 0
			}
		}
		return 0
	}

	var sampleParts [8]byte
	seg, off := 0, 0
	next := func() byte {
		for off == len(vecs[seg].Buf) {
			seg++
			off = 0
		}
		v := vecs[seg].Buf[off]
		off++
		return v
	}

	for f := 0; f < int(nframes); f++ {
		for c := 0; c < b.nbChannels; c++ {
			for i := 0; i < b.sampleSize; i++ {
				sampleParts[i] = next()
			}
			out[c][f] = convertSample(sampleParts[:b.sampleSize], b.bitFmt)
		}
	}
	b.ring.Advance(need)

	return 0
}

// shutdown is JACK's notification that the client has been shut down
// from outside (e.g. the server exited). It must not call back into
// Close reentrantly; it only flips the status the pipeline observes on
// its next Write.
func (b *Backend) shutdown() {
	b.state.Store(int32(stateShutdown))
}

// convertSample demuxes one interleaved sample of raw[:sampleSize]
// into a 32-bit float.
func convertSample(raw []byte, bitFmt vban.BitFormat) jacklib.AudioSample {
	switch bitFmt {
	case vban.BitFormat8Int:
		return jacklib.AudioSample(int8(raw[0])) / (1 << 7)
	case vban.BitFormat16Int:
		v := int16(raw[0]) | int16(raw[1])<<8
		return jacklib.AudioSample(v) / (1 << 15)
	case vban.BitFormat24Int:
		v := int32(raw[0]) | int32(raw[1])<<8 | int32(raw[2])<<16
		if v&0x800000 != 0 {
			v |= -1 << 24 // sign-extend.
		}
		return jacklib.AudioSample(v) / (1 << 23)
	case vban.BitFormat32Int:
		v := int32(raw[0]) | int32(raw[1])<<8 | int32(raw[2])<<16 | int32(raw[3])<<24
		return jacklib.AudioSample(v) / (1 << 31)
	case vban.BitFormat32Float:
		bits := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
		return jacklib.AudioSample(math.Float32frombits(bits))
	default:
		// 64_FLOAT is unsupported: emit silence.
		return 0
	}
}
