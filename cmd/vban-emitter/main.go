/*
NAME
  main.go

DESCRIPTION
  vban-emitter is the VBAN audio emitter daemon: it captures PCM from a
  pluggable audio backend at a fixed stream configuration and sends it
  as VBAN audio packets to a configured peer.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command vban-emitter captures audio from a local backend and streams
// it over VBAN to a configured peer.
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
	"github.com/ausocean/vban/vban"
)

const logPath = "/var/log/vban/vban-emitter.log"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		ip         = flag.String("i", "", "MANDATORY. ip address to send stream to")
		port       = flag.Int("p", 0, "MANDATORY. port to use")
		streamName = flag.String("s", "", "MANDATORY. streamname to use")
		backend    = flag.String("b", "", fmt.Sprintf("audio backend to use (%s)", audio.Names()))
		device     = flag.String("d", "", "audio device name (file path, jack client name, alsa device, pulseaudio source name)")
		sampleRate = flag.Int("r", config.DefaultSampleRate, "audio device sample rate")
		nbChannels = flag.Int("n", config.DefaultChannels, "audio device number of channels")
		bitFmt     = flag.String("f", "16I", "audio sample format (8I, 16I, 24I, 32I, 32F, 64F, 12I, 10I)")
		channels   = flag.String("c", "", "channels from the capture device to send, e.g. 1,2,3; default sends as captured")
		logLevel   = flag.Int("l", int(logging.Error), "log level, from Debug to Fatal")
	)
	flag.Parse()

	if *ip == "" || *port == 0 || *streamName == "" {
		fmt.Fprintln(os.Stderr, "vban-emitter: -i, -p and -s are mandatory")
		flag.Usage()
		return 1
	}
	if *logLevel < int(logging.Debug) || *logLevel > int(logging.Fatal) {
		fmt.Fprintf(os.Stderr, "vban-emitter: invalid log level %d\n", *logLevel)
		return 1
	}

	bf, ok := vban.BitFormatFromString(*bitFmt)
	if !ok {
		fmt.Fprintf(os.Stderr, "vban-emitter: unrecognised bit format %q\n", *bitFmt)
		return 1
	}

	log := applog.New(int8(*logLevel), logPath, *streamName)
	log.Info("starting vban-emitter", "stream", *streamName)

	be, err := audio.New(*backend, log)
	if err != nil {
		log.Error("could not construct audio backend", "error", err.Error())
		return 1
	}

	sock, err := socket.New(socket.Config{Direction: socket.Out, IPAddress: *ip, Port: *port}, log)
	if err != nil {
		log.Error("could not open socket", "error", err.Error())
		return 1
	}
	defer sock.Close()

	eng := engine.New(engine.Config{
		Direction: audio.In,
		Backend:   be,
		Device:    *device,
		Hint:      audio.BufferSizeHint(config.DefaultQuality),
	}, log)
	defer eng.Close()
	chanMap := config.ParseChannelMap(*channels)
	eng.SetMapConfig(chanMap)

	cfg := vban.StreamConfig{NbChannels: *nbChannels, SampleRate: uint32(*sampleRate), BitFmt: bf}

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
	if err := pipeline.Emit(ctx, sock, eng, cfg, *streamName, log); err != nil {
		log.Error("emit loop terminated", "error", err.Error())
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
