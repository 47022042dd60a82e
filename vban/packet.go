/*
NAME
  packet.go

DESCRIPTION
  packet.go implements the VBAN packet codec: validation of an inbound
  buffer, extraction of the stream configuration it carries, and
  construction of outbound packet headers.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vban

import (
	"bytes"
	"fmt"
)

// Validate checks that buf holds a structurally valid VBAN packet
// addressed to streamname. It requires buf to be longer than the header
// (HeaderSize bytes), to carry the 'VBAN' fourcc, to have its reserved
// bit clear, and to carry the audio sub-protocol; any other sub-protocol
// fails with ErrUnsupportedProtocol. It further requires the PCM codec
// and checks that len(buf) matches the payload-size equation implied by
// the header's nbs/nbc/bit-format fields.
//
// GetStreamConfig must not be called on buf until Validate has returned
// nil for it.
func Validate(streamname string, buf []byte) error {
	if len(streamname) == 0 {
		return fmt.Errorf("vban: empty streamname: %w", ErrInvalidArgument)
	}
	if len(buf) <= HeaderSize {
		return fmt.Errorf("vban: packet too small (%d bytes): %w", len(buf), ErrMalformed)
	}

	var h Header
	if err := h.UnmarshalBinary(buf); err != nil {
		return fmt.Errorf("vban: %w: %w", err, ErrMalformed)
	}

	if h.FourCC != headerMagic {
		return fmt.Errorf("vban: bad fourcc: %w", ErrMalformed)
	}

	if !streamNameMatches(streamname, h.StreamName) {
		return fmt.Errorf("vban: streamname mismatch: %w", ErrWrongStream)
	}

	if h.ReservedSet() {
		return fmt.Errorf("vban: reserved format bit set: %w", ErrMalformed)
	}

	switch h.SubProtocol() {
	case SubProtocolAudio:
		if h.Codec() != CodecPCM {
			return fmt.Errorf("vban: non-PCM codec: %w", ErrUnsupportedProtocol)
		}
		return validateAudioPayload(&h, len(buf))
	default:
		return fmt.Errorf("vban: sub-protocol %s not supported: %w", h.SubProtocol(), ErrUnsupportedProtocol)
	}
}

// streamNameMatches compares name against the fixed 16-byte streamname
// field the way the wire format requires: name is compared byte-for-byte
// against the field up to len(name), and if name is shorter than
// StreamNameSize the next byte on the wire must be NUL. This treats the
// field as a fixed NUL-padded buffer rather than a C string of arbitrary
// length.
func streamNameMatches(name string, field [StreamNameSize]byte) bool {
	if len(name) > StreamNameSize {
		return false
	}
	if !bytes.Equal([]byte(name), field[:len(name)]) {
		return false
	}
	if len(name) < StreamNameSize && field[len(name)] != 0 {
		return false
	}
	return true
}

// validateAudioPayload checks the payload-size equation for an audio PCM
// packet: size == HeaderSize + nbs*sample_size*nbc, and that the
// sample-rate index and bit-format are within range.
func validateAudioPayload(h *Header, size int) error {
	bitFmt := h.BitFormat()
	sampleSize := bitFmt.SampleSize()
	if sampleSize == 0 {
		return fmt.Errorf("vban: bit format %s is not PCM-playable: %w", bitFmt, ErrMalformed)
	}
	if int(h.SRIndex()) >= len(SRTable) {
		return fmt.Errorf("vban: sample-rate index %d out of range: %w", h.SRIndex(), ErrMalformed)
	}

	nbSamples := h.NbSamples()
	nbChannels := h.NbChannels()
	wantPayload := nbSamples * sampleSize * nbChannels
	gotPayload := size - HeaderSize
	if wantPayload != gotPayload {
		return fmt.Errorf("vban: payload size mismatch: want %d, got %d: %w", wantPayload, gotPayload, ErrMalformed)
	}
	return nil
}

// GetStreamConfig extracts the stream configuration carried by buf. It is
// a pure projection and must only be called after Validate has accepted
// buf.
func GetStreamConfig(buf []byte) StreamConfig {
	var h Header
	// buf has already passed Validate, so UnmarshalBinary cannot fail.
	_ = h.UnmarshalBinary(buf)
	return StreamConfig{
		NbChannels: h.NbChannels(),
		SampleRate: SRTable[h.SRIndex()],
		BitFmt:     h.BitFormat(),
	}
}

// InitHeader writes a fresh header for an outbound audio PCM stream into
// buf, which must be at least HeaderSize bytes. The frame counter starts
// at zero.
func InitHeader(buf []byte, cfg StreamConfig, streamname string) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("vban: buffer too small for header: %w", ErrInvalidArgument)
	}
	srIdx, ok := SRIndex(cfg.SampleRate)
	if !ok {
		return fmt.Errorf("vban: unsupported sample rate %d: %w", cfg.SampleRate, ErrInvalidArgument)
	}
	if cfg.NbChannels < 1 || cfg.NbChannels > ChannelsMaxNb {
		return fmt.Errorf("vban: channel count %d out of range: %w", cfg.NbChannels, ErrInvalidArgument)
	}

	h := Header{
		FourCC:  headerMagic,
		SRByte:  uint8(SubProtocolAudio) | srIdx,
		Nbc:     uint8(cfg.NbChannels - 1),
		BitByte: uint8(CodecPCM) | uint8(cfg.BitFmt&bitFormatMask),
	}
	h.setStreamName(streamname)

	raw, err := h.MarshalBinary()
	if err != nil {
		return err
	}
	copy(buf[:HeaderSize], raw)
	return nil
}

// SetNewContent updates buf's header to describe a payload of
// payloadSize bytes and increments the frame counter. The caller
// guarantees payloadSize is an exact multiple of the configured frame
// size.
func SetNewContent(buf []byte, payloadSize int) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("vban: buffer too small for header: %w", ErrInvalidArgument)
	}
	var h Header
	if err := h.UnmarshalBinary(buf); err != nil {
		return err
	}
	frameSize := h.NbChannels() * h.BitFormat().SampleSize()
	if frameSize == 0 || payloadSize%frameSize != 0 {
		return fmt.Errorf("vban: payload size %d not a multiple of frame size %d: %w", payloadSize, frameSize, ErrInvalidArgument)
	}
	nbSamples := payloadSize / frameSize
	if nbSamples < 1 || nbSamples > SamplesMaxNb {
		return fmt.Errorf("vban: sample count %d out of range: %w", nbSamples, ErrInvalidArgument)
	}

	buf[5] = uint8(nbSamples - 1) // Nbs field offset.
	h.FrameCtr++
	byteOrder.PutUint32(buf[24:28], h.FrameCtr)
	return nil
}

// MaxPayloadSize returns the largest payload, in bytes, a packet may
// legally carry for the stream configuration currently written into
// buf's header: min(DataMaxSize, SamplesMaxNb * frame_size), rounded
// down to a whole number of frames.
func MaxPayloadSize(buf []byte) int {
	var h Header
	_ = h.UnmarshalBinary(buf)
	frameSize := h.NbChannels() * h.BitFormat().SampleSize()
	if frameSize == 0 {
		return 0
	}
	sampleCount := DataMaxSize / frameSize
	if sampleCount > SamplesMaxNb {
		sampleCount = SamplesMaxNb
	}
	return sampleCount * frameSize
}
