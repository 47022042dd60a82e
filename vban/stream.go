package vban

import "fmt"

// StreamConfig is the triple identifying an audio format: channel count,
// sample rate and bit format.
type StreamConfig struct {
	NbChannels int
	SampleRate uint32
	BitFmt     BitFormat
}

// FrameSize returns the byte size of one frame (one sample across every
// channel) of this configuration.
func (c StreamConfig) FrameSize() int {
	return c.NbChannels * c.BitFmt.SampleSize()
}

func (c StreamConfig) String() string {
	return fmt.Sprintf("%dch@%dHz/%s", c.NbChannels, c.SampleRate, c.BitFmt)
}
