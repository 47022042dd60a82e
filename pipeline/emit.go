/*
NAME
  emit.go

DESCRIPTION
  emit.go implements the emit loop: configure the engine once at
  start-up, build a template header, then repeatedly read PCM from the
  engine's backend, stamp the header with the new payload size, and
  send the datagram.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"context"
	"fmt"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/engine"
	"github.com/ausocean/vban/socket"
	"github.com/ausocean/vban/vban"
)

// Emit configures eng with cfg — the capture device's own stream
// configuration, before any channel map narrows it — then reads PCM
// from its backend and sends it over sock as VBAN audio packets
// addressed to streamName, until ctx is done or the backend read
// fails. The wire header is built from eng.StreamConfig(), which is
// cfg itself unless a channel map is active, in which case it carries
// the map's (narrower) channel count. A backend read failure is always
// terminal: the capture source is gone.
//
// A blocking capture backend's Read, like a blocking socket's Read,
// has no application-level timeout: Emit unblocks it on cancellation
// by closing eng's backend from a watcher goroutine, the same
// technique Receive uses for its socket.
func Emit(ctx context.Context, sock *socket.Socket, eng *engine.Engine, cfg vban.StreamConfig, streamName string, log logging.Logger) error {
	if err := eng.SetStreamConfig(cfg); err != nil {
		return fmt.Errorf("pipeline: emit: initial configure: %w", err)
	}
	wireCfg, _ := eng.StreamConfig()

	buf := make([]byte, vban.ProtocolMaxSize)
	if err := vban.InitHeader(buf, wireCfg, streamName); err != nil {
		return fmt.Errorf("pipeline: emit: init header: %w", err)
	}
	maxPayload := vban.MaxPayloadSize(buf)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			eng.Close()
		case <-stop:
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := eng.Read(buf[vban.HeaderSize : vban.HeaderSize+maxPayload])
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("pipeline: emit: backend read failed: %w", err)
		}
		if n == 0 {
			continue
		}

		if err := vban.SetNewContent(buf, n); err != nil {
			log.Warning("emit: dropping short read", "bytes", n, "error", err.Error())
			continue
		}

		pkt := buf[:vban.HeaderSize+n]
		if err := vban.Validate(streamName, pkt); err != nil {
			log.Error("emit: built an invalid packet, dropping", "error", err.Error())
			continue
		}

		if _, err := sock.Write(pkt); err != nil {
			log.Warning("emit: socket write failed", "error", err.Error())
		}
	}
}
