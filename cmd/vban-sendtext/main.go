/*
NAME
  main.go

DESCRIPTION
  vban-sendtext sends a single VBAN TXT-subprotocol datagram: it builds
  one packet by hand (the TXT sub-protocol has no stream-configuration
  payload for vban.InitHeader to negotiate) and writes it once.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command vban-sendtext sends a single VBAN text datagram to a peer.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/internal/applog"
	"github.com/ausocean/vban/socket"
	"github.com/ausocean/vban/vban"
)

const logPath = "/var/log/vban/vban-sendtext.log"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		ip         = flag.String("i", "", "MANDATORY. ip address to send stream to")
		port       = flag.Int("p", 0, "MANDATORY. port to use")
		streamName = flag.String("s", "", "MANDATORY. streamname to use")
		bps        = flag.Int("b", 0, "data bitrate indicator, default 0 (no special bitrate)")
		ident      = flag.Int("n", 0, "subchannel identification")
		format     = flag.Int("f", int(vban.TextFormatUTF8), "text format: 0 ASCII, 1 UTF8, 2 WCHAR, 240 USER")
		logLevel   = flag.Int("l", int(logging.Error), "log level, from Debug to Fatal")
	)
	flag.Parse()

	if *ip == "" || *port == 0 || *streamName == "" {
		fmt.Fprintln(os.Stderr, "vban-sendtext: -i, -p and -s are mandatory")
		flag.Usage()
		return 1
	}
	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "vban-sendtext: exactly one MESSAGE argument is required")
		flag.Usage()
		return 1
	}
	msg := args[0]
	if len(msg) > vban.DataMaxSize-1 {
		fmt.Fprintf(os.Stderr, "vban-sendtext: message too long, max length is %d\n", vban.DataMaxSize-1)
		return 1
	}
	if len(*streamName) > vban.StreamNameSize {
		fmt.Fprintf(os.Stderr, "vban-sendtext: streamname too long, max length is %d\n", vban.StreamNameSize)
		return 1
	}
	if *bps < 0 || *bps > 31 {
		fmt.Fprintln(os.Stderr, "vban-sendtext: bitrate indicator must be in 0..31")
		return 1
	}
	if *ident < 0 || *ident > 255 {
		fmt.Fprintln(os.Stderr, "vban-sendtext: subchannel identification must be in 0..255")
		return 1
	}

	log := applog.New(int8(*logLevel), logPath, *streamName)

	sock, err := socket.New(socket.Config{Direction: socket.Out, IPAddress: *ip, Port: *port}, log)
	if err != nil {
		log.Error("could not open socket", "error", err.Error())
		return 1
	}
	defer sock.Close()

	var h vban.Header
	h.FourCC = vban.HeaderMagic
	h.SRByte = uint8(*bps) | uint8(vban.SubProtocolTxt)
	h.Nbs = 0
	h.Nbc = uint8(*ident)
	h.BitByte = uint8(*format)
	copy(h.StreamName[:], *streamName)

	hdr, err := h.MarshalBinary()
	if err != nil {
		log.Error("could not marshal header", "error", err.Error())
		return 1
	}
	pkt := append(hdr, []byte(msg)...)

	log.Debug("sending text packet", "streamname", *streamName, "message", msg)
	if _, err := sock.Write(pkt); err != nil {
		log.Error("could not send packet", "error", err.Error())
		return 1
	}
	return 0
}
