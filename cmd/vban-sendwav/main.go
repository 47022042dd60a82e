/*
NAME
  main.go

DESCRIPTION
  vban-sendwav streams an existing WAV file as a VBAN audio stream at
  its native sample rate and channel count, rate-limited to real time.
  Useful for feeding a receiver without live capture hardware.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command vban-sendwav streams a WAV file as a VBAN audio stream,
// useful for testing a receiver without live audio hardware.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/internal/applog"
	"github.com/ausocean/vban/socket"
	"github.com/ausocean/vban/vban"
)

const (
	logPath          = "/var/log/vban/vban-sendwav.log"
	samplesPerPacket = 128 // samples per channel per packet, lowered when needed to keep the payload within DataMaxSize
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		path       = flag.String("w", "", "MANDATORY. path to a 16-bit PCM WAV file")
		ip         = flag.String("i", "", "MANDATORY. ip address to send stream to")
		port       = flag.Int("p", vban.DefaultPort, "port to use")
		streamName = flag.String("s", "WavStream", "streamname to use")
		logLevel   = flag.Int("l", int(logging.Error), "log level, from Debug to Fatal")
	)
	flag.Parse()

	if *path == "" || *ip == "" {
		fmt.Fprintln(os.Stderr, "vban-sendwav: -w and -i are mandatory")
		flag.Usage()
		return 1
	}

	log := applog.New(int8(*logLevel), logPath, *streamName)

	f, err := os.Open(*path)
	if err != nil {
		log.Error("could not open wav file", "error", err.Error())
		return 1
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		log.Error("not a valid wav file", "path", *path)
		return 1
	}
	format := dec.Format()
	if dec.BitDepth != 16 {
		log.Error("only 16-bit PCM wav files are supported", "bits", dec.BitDepth)
		return 1
	}

	cfg := vban.StreamConfig{NbChannels: format.NumChannels, SampleRate: uint32(format.SampleRate), BitFmt: vban.BitFormat16Int}
	if _, ok := vban.SRIndex(cfg.SampleRate); !ok {
		log.Error("wav sample rate has no VBAN equivalent", "rate", cfg.SampleRate)
		return 1
	}
	log.Info("streaming wav file", "path", *path, "config", cfg.String())

	sock, err := socket.New(socket.Config{Direction: socket.Out, IPAddress: *ip, Port: *port}, log)
	if err != nil {
		log.Error("could not open socket", "error", err.Error())
		return 1
	}
	defer sock.Close()

	buf := make([]byte, vban.ProtocolMaxSize)
	if err := vban.InitHeader(buf, cfg, *streamName); err != nil {
		log.Error("could not init header", "error", err.Error())
		return 1
	}

	frames := samplesPerPacket
	if max := vban.MaxPayloadSize(buf) / cfg.FrameSize(); frames > max {
		frames = max
	}
	pcmBuf := &goaudio.IntBuffer{
		Format:         format,
		Data:           make([]int, frames*cfg.NbChannels),
		SourceBitDepth: 16,
	}

	var totalSamples int
	start := time.Now()
	for {
		n, err := dec.PCMBuffer(pcmBuf)
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			log.Error("could not read wav samples", "error", err.Error())
			return 1
		}

		payload := encode16(pcmBuf.Data[:n])
		if err := vban.SetNewContent(buf, len(payload)); err != nil {
			log.Warning("dropping malformed chunk", "samples", n, "error", err.Error())
			continue
		}
		copy(buf[vban.HeaderSize:], payload)
		pkt := buf[:vban.HeaderSize+len(payload)]

		if _, err := sock.Write(pkt); err != nil {
			log.Warning("socket write failed", "error", err.Error())
		}

		totalSamples += n / cfg.NbChannels
		wantElapsed := time.Duration(float64(totalSamples) / float64(cfg.SampleRate) * float64(time.Second))
		if sleep := wantElapsed - time.Since(start); sleep > 0 {
			time.Sleep(sleep)
		}
	}

	log.Info("finished streaming wav file")
	return 0
}

// encode16 packs int samples (already scaled to int16 range by the
// decoder) into little-endian byte pairs.
func encode16(data []int) []byte {
	out := make([]byte, len(data)*2)
	for i, v := range data {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
