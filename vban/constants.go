/*
NAME
  constants.go

DESCRIPTION
  constants.go holds the wire-level constants, tables and enumerations
  defined by the VBAN protocol: the header layout, the sample-rate table,
  the bit-format table and the sub-protocol identifiers.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vban implements the wire format, framing and validation rules of
// the VBAN audio-over-UDP protocol.
package vban

import "encoding/binary"

// byteOrder is the endianness of every multi-byte field on the wire.
var byteOrder = binary.LittleEndian

// Header and packet size limits (VBAN protocol spec, section 2).
const (
	HeaderSize        = 28   // Size in bytes of the fixed VBAN header.
	StreamNameSize    = 16   // Size in bytes of the streamname field.
	DataMaxSize       = 1436 // Largest payload a single VBAN packet may carry.
	SamplesMaxNb      = 256  // Largest number of samples-per-frame a packet may carry.
	ProtocolMaxSize   = DataMaxSize + HeaderSize
	ChannelsMaxNb     = 256 // Largest channel count the audio sub-protocol allows.
	headerMagicString = "VBAN"
)

// headerMagic is the 4-byte 'VBAN' fourcc, read/written as a little-endian
// uint32 to avoid a [4]byte comparison on every packet.
var headerMagic = byteOrder.Uint32([]byte(headerMagicString))

// HeaderMagic exports headerMagic for callers outside the package that
// build a Header directly, such as the sendtext command, which
// constructs a non-audio sub-protocol packet InitHeader doesn't cover.
var HeaderMagic = headerMagic

// SubProtocol identifies the kind of payload carried by a packet; it
// occupies the upper 3 bits of the header's sr byte.
type SubProtocol uint8

const (
	SubProtocolAudio   SubProtocol = 0x00
	SubProtocolSerial  SubProtocol = 0x20
	SubProtocolTxt     SubProtocol = 0x40
	SubProtocolService SubProtocol = 0x60
	subProtocolMask    SubProtocol = 0xE0
)

func (sp SubProtocol) String() string {
	switch sp & subProtocolMask {
	case SubProtocolAudio:
		return "audio"
	case SubProtocolSerial:
		return "serial"
	case SubProtocolTxt:
		return "txt"
	case SubProtocolService:
		return "service"
	default:
		return "undefined"
	}
}

// srIndexMask extracts the sample-rate index from the header's sr byte.
const srIndexMask uint8 = 0x1F

// SRTable maps an on-wire sample-rate index to its value in Hz. Index is
// the position in the slice; indices 21..31 are undefined by the protocol.
var SRTable = [21]uint32{
	6000, 12000, 24000, 48000, 96000, 192000, 384000,
	8000, 16000, 32000, 64000, 128000, 256000, 512000,
	11025, 22050, 44100, 88200, 176400, 352800, 705600,
}

// SRIndex returns the wire index for rate, and false if rate is not in
// SRTable.
func SRIndex(rate uint32) (uint8, bool) {
	for i, r := range SRTable {
		if r == rate {
			return uint8(i), true
		}
	}
	return 0, false
}

// BitFormat identifies the sample encoding used by an audio payload; it
// occupies the low 3 bits of the header's bit byte.
type BitFormat uint8

const (
	BitFormat8Int    BitFormat = 0
	BitFormat16Int   BitFormat = 1
	BitFormat24Int   BitFormat = 2
	BitFormat32Int   BitFormat = 3
	BitFormat32Float BitFormat = 4
	BitFormat64Float BitFormat = 5
	BitFormat12Int   BitFormat = 6
	BitFormat10Int   BitFormat = 7
	bitFormatMask    BitFormat = 0x07
)

// sampleSizeTable gives the byte width of one sample for each BitFormat.
// 12_INT and 10_INT have no whole-byte representation and are not
// PCM-playable; their entries are 0 so size-based validation rejects them.
var sampleSizeTable = [8]int{
	BitFormat8Int:    1,
	BitFormat16Int:   2,
	BitFormat24Int:   3,
	BitFormat32Int:   4,
	BitFormat32Float: 4,
	BitFormat64Float: 8,
	BitFormat12Int:   0,
	BitFormat10Int:   0,
}

// SampleSize returns the byte width of a single sample in bf, or 0 if bf
// has no fixed-width byte representation.
func (bf BitFormat) SampleSize() int {
	return sampleSizeTable[bf&bitFormatMask]
}

func (bf BitFormat) String() string {
	switch bf & bitFormatMask {
	case BitFormat8Int:
		return "8I"
	case BitFormat16Int:
		return "16I"
	case BitFormat24Int:
		return "24I"
	case BitFormat32Int:
		return "32I"
	case BitFormat32Float:
		return "32F"
	case BitFormat64Float:
		return "64F"
	case BitFormat12Int:
		return "12I"
	case BitFormat10Int:
		return "10I"
	default:
		return "unknown"
	}
}

// BitFormatFromString parses the bit-format strings accepted on the
// command line (8I, 16I, 24I, 32I, 32F, 64F, 12I, 10I).
func BitFormatFromString(s string) (BitFormat, bool) {
	switch s {
	case "8I":
		return BitFormat8Int, true
	case "16I":
		return BitFormat16Int, true
	case "24I":
		return BitFormat24Int, true
	case "32I":
		return BitFormat32Int, true
	case "32F":
		return BitFormat32Float, true
	case "64F":
		return BitFormat64Float, true
	case "12I":
		return BitFormat12Int, true
	case "10I":
		return BitFormat10Int, true
	default:
		return 0, false
	}
}

// Codec identifies the codec applied to an audio payload; it occupies bit
// 3 of the header's bit byte (bit 4 is reserved, bits 5-7 are a codec
// extension not used by this implementation).
type Codec uint8

const (
	CodecPCM     Codec = 0x00
	codecMask    Codec = 0x08
	reservedMask uint8 = 0x10
)

// TextFormat identifies the encoding of a TXT sub-protocol payload.
type TextFormat uint8

const (
	TextFormatASCII TextFormat = 0
	TextFormatUTF8  TextFormat = 1
	TextFormatWChar TextFormat = 2
	TextFormatUser  TextFormat = 240
)

// DefaultPort is the conventional VBAN UDP port.
const DefaultPort = 6980
