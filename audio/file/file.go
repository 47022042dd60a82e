/*
NAME
  file.go

DESCRIPTION
  file.go implements the file audio backend. Out streams are written as
  a WAV container via github.com/go-audio/wav and github.com/go-audio/audio,
  so a captured or replayed stream is directly playable with any
  WAV-aware tool. An empty device name falls back to a headerless raw
  dump to stdout, since a WAV container needs a seekable file to patch
  its header length at Close.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file implements the file audio backend: a WAV-container sink
// for the receiver (falling back to a headerless raw stream on stdout
// when no path is given) and a WAV-file source for the emitter.
package file

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/vban"
)

func init() {
	audio.Register("file", func(l logging.Logger) audio.Backend { return New(l) })
}

// audioFormatPCM is the WAV "audio format" tag for uncompressed PCM.
const audioFormatPCM = 1

// Backend is the file audio.Backend implementation.
type Backend struct {
	log logging.Logger

	f   *os.File
	raw bool // true when falling back to a headerless stdout dump.

	cfg     vban.StreamConfig
	encoder *wav.Encoder
	decoder *wav.Decoder
}

// New returns an unopened file backend logging through l.
func New(l logging.Logger) *Backend { return &Backend{log: l} }

// Open creates (Out) or opens (In) the WAV file at path. For Out, an
// empty path falls back to a raw headerless dump on stdout; In needs a
// path. WAV files are only opened for integer bit formats.
func (b *Backend) Open(path string, direction audio.Direction, hint int, cfg vban.StreamConfig) error {
	b.Close()
	b.cfg = cfg

	if path == "" && direction == audio.Out {
		b.f = os.Stdout
		b.raw = true
		b.log.Info("file backend writing raw stream to stdout")
		return nil
	}

	switch cfg.BitFmt {
	case vban.BitFormat8Int, vban.BitFormat16Int, vban.BitFormat24Int, vban.BitFormat32Int:
	default:
		return fmt.Errorf("file: bit format %s has no WAV integer PCM depth: %w", cfg.BitFmt, audio.ErrInvalidArgument)
	}

	switch direction {
	case audio.Out:
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("file: create %s: %w: %w", path, err, audio.ErrDevice)
		}
		b.f = f
		b.encoder = wav.NewEncoder(f, int(cfg.SampleRate), wavBitDepth(cfg.BitFmt), cfg.NbChannels, audioFormatPCM)

	case audio.In:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("file: open %s: %w: %w", path, err, audio.ErrDevice)
		}
		b.f = f
		b.decoder = wav.NewDecoder(f)
		if !b.decoder.IsValidFile() {
			b.Close()
			return fmt.Errorf("file: %s is not a valid WAV file: %w", path, audio.ErrDevice)
		}

	default:
		return fmt.Errorf("file: unknown direction %v: %w", direction, audio.ErrInvalidArgument)
	}

	b.log.Info("file backend open", "path", path, "direction", direction)
	return nil
}

// Close finalizes the WAV header (if writing) and closes the file.
func (b *Backend) Close() error {
	if b.f == nil {
		return nil
	}
	var err error
	if b.encoder != nil {
		err = b.encoder.Close()
	}
	if b.f != os.Stdout {
		if cerr := b.f.Close(); err == nil {
			err = cerr
		}
	}
	b.f, b.encoder, b.decoder, b.raw = nil, nil, nil, false
	if err != nil {
		return fmt.Errorf("file: close: %w: %w", err, audio.ErrDevice)
	}
	return nil
}

// Write appends buf to the WAV file (or the raw stdout stream).
func (b *Backend) Write(buf []byte) (int, error) {
	if b.f == nil {
		return 0, fmt.Errorf("file: not open: %w", audio.ErrDevice)
	}
	if b.raw {
		n, err := b.f.Write(buf)
		if err != nil {
			return n, fmt.Errorf("file: write: %w: %w", err, audio.ErrDevice)
		}
		return n, nil
	}

	ib := bytesToIntBuffer(buf, b.cfg)
	if err := b.encoder.Write(ib); err != nil {
		return 0, fmt.Errorf("file: encode: %w: %w", err, audio.ErrDevice)
	}
	return len(buf), nil
}

// Read fills buf from the WAV file (or the raw stdin-style stream,
// unused here since Open never assigns b.raw for In).
func (b *Backend) Read(buf []byte) (int, error) {
	if b.f == nil {
		return 0, fmt.Errorf("file: not open: %w", audio.ErrDevice)
	}
	sampleSize := b.cfg.BitFmt.SampleSize()
	if sampleSize == 0 {
		return 0, fmt.Errorf("file: bit format %s not PCM-playable: %w", b.cfg.BitFmt, audio.ErrInvalidArgument)
	}
	nSamples := len(buf) / sampleSize
	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{SampleRate: int(b.cfg.SampleRate), NumChannels: b.cfg.NbChannels},
		Data:           make([]int, nSamples),
		SourceBitDepth: wavBitDepth(b.cfg.BitFmt),
	}
	n, err := b.decoder.PCMBuffer(ib)
	if err != nil {
		return 0, fmt.Errorf("file: decode: %w: %w", err, audio.ErrDevice)
	}
	return intBufferToBytes(buf, ib.Data[:n], b.cfg), nil
}

// wavBitDepth maps a VBAN bit format to the nearest WAV PCM bit depth.
// 32_FLOAT, 64_FLOAT, 12_INT and 10_INT have no integer PCM equivalent;
// Open rejects them for WAV files (so an engine reopen with one of them
// fails), and this backend only claims integer formats.
func wavBitDepth(bf vban.BitFormat) int {
	switch bf {
	case vban.BitFormat8Int:
		return 8
	case vban.BitFormat16Int:
		return 16
	case vban.BitFormat24Int:
		return 24
	case vban.BitFormat32Int:
		return 32
	default:
		return 16
	}
}

// bytesToIntBuffer unpacks raw little-endian PCM bytes into a
// go-audio IntBuffer sized to cfg's channel count and bit depth.
func bytesToIntBuffer(buf []byte, cfg vban.StreamConfig) *goaudio.IntBuffer {
	sampleSize := cfg.BitFmt.SampleSize()
	n := len(buf) / sampleSize
	data := make([]int, n)
	for i := 0; i < n; i++ {
		data[i] = decodeSample(buf[i*sampleSize:(i+1)*sampleSize], cfg.BitFmt)
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{SampleRate: int(cfg.SampleRate), NumChannels: cfg.NbChannels},
		Data:           data,
		SourceBitDepth: wavBitDepth(cfg.BitFmt),
	}
}

// intBufferToBytes repacks decoded int samples into raw little-endian
// PCM bytes, returning the number of bytes written into out.
func intBufferToBytes(out []byte, data []int, cfg vban.StreamConfig) int {
	sampleSize := cfg.BitFmt.SampleSize()
	n := 0
	for i, v := range data {
		if (i+1)*sampleSize > len(out) {
			break
		}
		encodeSample(out[i*sampleSize:(i+1)*sampleSize], v, cfg.BitFmt)
		n += sampleSize
	}
	return n
}

func decodeSample(raw []byte, bf vban.BitFormat) int {
	switch bf {
	case vban.BitFormat8Int:
		return int(int8(raw[0]))
	case vban.BitFormat16Int:
		return int(int16(uint16(raw[0]) | uint16(raw[1])<<8))
	case vban.BitFormat24Int:
		v := int32(raw[0]) | int32(raw[1])<<8 | int32(raw[2])<<16
		if v&0x800000 != 0 {
			v |= -1 << 24
		}
		return int(v)
	case vban.BitFormat32Int:
		return int(int32(uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24))
	default:
		return 0
	}
}

func encodeSample(out []byte, v int, bf vban.BitFormat) {
	switch bf {
	case vban.BitFormat8Int:
		out[0] = byte(int8(v))
	case vban.BitFormat16Int:
		u := uint16(int16(v))
		out[0], out[1] = byte(u), byte(u>>8)
	case vban.BitFormat24Int:
		u := uint32(v)
		out[0], out[1], out[2] = byte(u), byte(u>>8), byte(u>>16)
	case vban.BitFormat32Int:
		u := uint32(int32(v))
		out[0], out[1], out[2], out[3] = byte(u), byte(u>>8), byte(u>>16), byte(u>>24)
	}
}
