/*
NAME
  receive.go

DESCRIPTION
  receive.go implements the receive loop: read a datagram, validate it
  against the configured stream name, derive the stream configuration
  it carries, push that configuration and payload through the engine.
  Process-signal handling lives in cmd/; the loop itself is cancelled
  through a context.Context.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline implements the receive and emit loops that couple a
// socket, the packet codec and an audio engine.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/engine"
	"github.com/ausocean/vban/socket"
	"github.com/ausocean/vban/vban"
)

// Receive reads datagrams from sock, validates them against streamName,
// and writes their payload through eng, reconfiguring eng whenever the
// packet's stream configuration changes. It runs until ctx is done,
// sock.Read returns an IoError, or the backend reports a device error on
// write (the callback backend signals driver shutdown this way).
// Malformed packets, wrong-stream packets and unsupported
// sub-protocols are logged and skipped.
//
// sock.Read blocks indefinitely on the underlying UDP socket with no
// application-level timeout, and Go has no way to interrupt a single
// in-flight ReadFromUDP with a context, so Receive closes sock from a
// watcher goroutine when ctx is done, which unblocks Read with a
// use-of-closed-connection error; that error is recognised below as a
// graceful shutdown rather than an IoError.
func Receive(ctx context.Context, sock *socket.Socket, eng *engine.Engine, streamName string, log logging.Logger) error {
	buf := make([]byte, vban.ProtocolMaxSize)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			sock.Close()
		case <-stop:
		}
	}()

	for {
		n, err := sock.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, socket.ErrIo) {
				return fmt.Errorf("pipeline: receive: %w", err)
			}
			log.Warning("receive: transient socket error", "error", err.Error())
			continue
		}

		pkt := buf[:n]
		if err := vban.Validate(streamName, pkt); err != nil {
			switch {
			case errors.Is(err, vban.ErrWrongStream):
				log.Debug("receive: packet for a different stream", "error", err.Error())
			default:
				log.Warning("receive: dropping invalid packet", "error", err.Error())
			}
			continue
		}

		cfg := vban.GetStreamConfig(pkt)
		if err := eng.SetStreamConfig(cfg); err != nil {
			log.Error("receive: could not reconfigure backend", "error", err.Error())
			continue
		}

		if _, err := eng.Write(pkt[vban.HeaderSize:]); err != nil {
			// A device error on write means the backend is gone (e.g. the
			// callback backend's driver shut down); anything else is a
			// transient worth riding out.
			if errors.Is(err, audio.ErrDevice) {
				return fmt.Errorf("pipeline: receive: backend write failed: %w", err)
			}
			log.Warning("receive: backend write failed", "error", err.Error())
		}
	}
}
