/*
NAME
  main.go

DESCRIPTION
  vban-receiver is the VBAN audio receiver daemon: it listens for VBAN
  audio packets addressed to a configured stream name and plays them
  through a pluggable audio backend, reconfiguring the backend whenever
  the stream's format changes.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command vban-receiver plays a VBAN audio stream through a local
// audio backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"

	"github.com/ausocean/utils/logging"

	_ "github.com/ausocean/vban/audio/alsa"
	_ "github.com/ausocean/vban/audio/file"
	_ "github.com/ausocean/vban/audio/jack"
	_ "github.com/ausocean/vban/audio/pipe"
	_ "github.com/ausocean/vban/audio/pulseaudio"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/engine"
	"github.com/ausocean/vban/internal/applog"
	"github.com/ausocean/vban/pipeline"
	"github.com/ausocean/vban/pipeline/config"
	"github.com/ausocean/vban/socket"
)

const logPath = "/var/log/vban/vban-receiver.log"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		ip         = flag.String("i", "", "MANDATORY. ip address to get stream from")
		port       = flag.Int("p", 0, "MANDATORY. port to listen to")
		streamName = flag.String("s", "", "MANDATORY. streamname to play")
		backend    = flag.String("b", "", fmt.Sprintf("audio backend to use (%s)", audio.Names()))
		quality    = flag.Int("q", config.DefaultQuality, "network quality indicator from 0 (low latency) to 4")
		channels   = flag.String("c", "", "channels from the stream to use, e.g. 1,2,3; default forwards the stream as-is")
		device     = flag.String("d", "", "audio device name (file path, jack client name, alsa device, pulseaudio sink name)")
		deprecated = flag.String("o", "", "DEPRECATED, use -d")
		logLevel   = flag.Int("l", int(logging.Error), "log level, from Debug to Fatal")
	)
	flag.Parse()

	if *ip == "" || *port == 0 || *streamName == "" {
		fmt.Fprintln(os.Stderr, "vban-receiver: -i, -p and -s are mandatory")
		flag.Usage()
		return 1
	}
	if *logLevel < int(logging.Debug) || *logLevel > int(logging.Fatal) {
		fmt.Fprintf(os.Stderr, "vban-receiver: invalid log level %d\n", *logLevel)
		return 1
	}
	if *device == "" {
		*device = *deprecated
	}

	log := applog.New(int8(*logLevel), logPath, *streamName)
	log.Info("starting vban-receiver", "stream", *streamName)

	be, err := audio.New(*backend, log)
	if err != nil {
		log.Error("could not construct audio backend", "error", err.Error())
		return 1
	}

	sock, err := socket.New(socket.Config{Direction: socket.In, IPAddress: *ip, Port: *port}, log)
	if err != nil {
		log.Error("could not open socket", "error", err.Error())
		return 1
	}
	defer sock.Close()

	eng := engine.New(engine.Config{
		Direction: audio.Out,
		Backend:   be,
		Device:    *device,
		Hint:      audio.BufferSizeHint(*quality),
	}, log)
	defer eng.Close()
	eng.SetMapConfig(config.ParseChannelMap(*channels))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("received shutdown signal")
		cancel()
	}()

	if ok, _ := daemon.SdNotify(false, daemon.SdNotifyReady); ok {
		log.Debug("notified systemd of readiness")
	}
	watchdogPing(ctx, log)

	// Once the loop has started, any exit is a shutdown: the failure is
	// logged above the loop's own release path, and nonzero exit codes
	// are reserved for argument and setup errors.
	if err := pipeline.Receive(ctx, sock, eng, *streamName, log); err != nil {
		log.Error("receive loop terminated", "error", err.Error())
	}
	return 0
}

// watchdogPing starts a goroutine that periodically notifies systemd's
// watchdog, if WATCHDOG_USEC was set in the environment for this unit
// (daemon.SdWatchdogEnabled returns 0 when the service isn't running
// under a watchdog-enabled systemd unit, in which case this is a
// no-op). It pings at half the configured interval, the usual margin
// against a missed tick, and stops when ctx is done.
func watchdogPing(ctx context.Context, log logging.Logger) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}

	go func() {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if ok, _ := daemon.SdNotify(false, daemon.SdNotifyWatchdog); !ok {
					log.Warning("systemd watchdog notification failed")
				}
			}
		}
	}()
}
