/*
NAME
  header.go

DESCRIPTION
  header.go defines the 28-byte VBAN header and its wire marshaling.

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

// Header is the 28-byte VBAN header as laid out on the wire. All
// multi-byte fields are little-endian.
type Header struct {
	FourCC     uint32
	SRByte     uint8 // low 5 bits: sample-rate index; high 3 bits: SubProtocol.
	Nbs        uint8 // samples-per-frame - 1.
	Nbc        uint8 // channels - 1.
	BitByte    uint8 // low 3 bits: BitFormat; bit 3: Codec; bit 4: reserved; high 3: codec ext.
	StreamName [StreamNameSize]byte
	FrameCtr   uint32
}

// SubProtocol returns the sub-protocol carried by h.
func (h *Header) SubProtocol() SubProtocol {
	return SubProtocol(h.SRByte) & subProtocolMask
}

// SRIndex returns the raw sample-rate index field.
func (h *Header) SRIndex() uint8 {
	return h.SRByte & srIndexMask
}

// BitFormat returns the sample bit-format carried by h.
func (h *Header) BitFormat() BitFormat {
	return BitFormat(h.BitByte) & bitFormatMask
}

// Codec returns the codec bit of h.
func (h *Header) Codec() Codec {
	return Codec(h.BitByte) & codecMask
}

// ReservedSet reports whether the header's reserved bit (bit 4 of the bit
// byte) is set; a valid packet never sets it.
func (h *Header) ReservedSet() bool {
	return h.BitByte&reservedMask != 0
}

// NbChannels returns the decoded (1-based) channel count.
func (h *Header) NbChannels() int { return int(h.Nbc) + 1 }

// NbSamples returns the decoded (1-based) samples-per-frame count.
func (h *Header) NbSamples() int { return int(h.Nbs) + 1 }

// StreamNameString returns the stream name, stopping at the first NUL
// byte (or at StreamNameSize if unterminated).
func (h *Header) StreamNameString() string {
	n := bytes.IndexByte(h.StreamName[:], 0)
	if n == -1 {
		n = StreamNameSize
	}
	return string(h.StreamName[:n])
}

// setStreamName copies name into the header's fixed streamname field,
// zero-padding any remaining bytes.
func (h *Header) setStreamName(name string) {
	n := copy(h.StreamName[:], name)
	for i := n; i < StreamNameSize; i++ {
		h.StreamName[i] = 0
	}
}

// MarshalBinary writes h to a new HeaderSize-byte slice.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	byteOrder.PutUint32(buf[0:4], h.FourCC)
	buf[4] = h.SRByte
	buf[5] = h.Nbs
	buf[6] = h.Nbc
	buf[7] = h.BitByte
	copy(buf[8:24], h.StreamName[:])
	byteOrder.PutUint32(buf[24:28], h.FrameCtr)
	return buf, nil
}

// UnmarshalBinary reads a Header from the first HeaderSize bytes of data.
// It does not validate the fourcc or any other field; use Validate for
// that.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("vban: short buffer for header: got %d bytes, need %d", len(data), HeaderSize)
	}
	h.FourCC = byteOrder.Uint32(data[0:4])
	h.SRByte = data[4]
	h.Nbs = data[5]
	h.Nbc = data[6]
	h.BitByte = data[7]
	copy(h.StreamName[:], data[8:24])
	h.FrameCtr = byteOrder.Uint32(data[24:28])
	return nil
}
