/*
NAME
  config.go

DESCRIPTION
  config.go is the CLI-facing configuration type shared by the receive
  and emit pipelines, following revid/config.Config's shape: a plain
  struct with defaulted fields and a Logger field of type
  logging.Logger.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config holds the configuration types populated by each cmd/
// entrypoint's flags and handed to the pipeline package.
package config

import (
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/vban"
)

// Defaults for the emitter's capture configuration.
const (
	DefaultChannels   = 2
	DefaultSampleRate = 44100
	DefaultBitFormat  = vban.BitFormat16Int
	DefaultQuality    = 1
)

// Receive holds the receiver daemon's configuration.
type Receive struct {
	IPAddress  string
	Port       int
	StreamName string
	Backend    string
	Device     string
	Quality    int
	ChannelMap []int
	LogLevel   int8

	Logger logging.Logger
}

// Emit holds the emitter daemon's configuration.
type Emit struct {
	IPAddress  string
	Port       int
	StreamName string
	Backend    string
	Device     string
	SampleRate uint32
	NbChannels int
	BitFmt     vban.BitFormat
	ChannelMap []int
	LogLevel   int8

	Logger logging.Logger
}

// StreamConfig returns the vban.StreamConfig this Emit configuration
// describes.
func (c Emit) StreamConfig() vban.StreamConfig {
	return vban.StreamConfig{NbChannels: c.NbChannels, SampleRate: c.SampleRate, BitFmt: c.BitFmt}
}

// ParseChannelMap parses the -c flag's comma-separated 1-based channel
// list into the engine's 0-based map. Parsing stops at the first
// out-of-range or non-numeric token rather than failing outright: a
// partial map is better than none. An empty s returns a nil map.
func ParseChannelMap(s string) []int {
	if s == "" {
		return nil
	}
	var m []int
	for _, tok := range strings.Split(s, ",") {
		if len(m) >= vban.ChannelsMaxNb {
			break
		}
		chan1, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || chan1 < 1 || chan1 > vban.ChannelsMaxNb {
			break
		}
		m = append(m, chan1-1)
	}
	return m
}
