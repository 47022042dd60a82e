package vban

import "errors"

// Sentinel errors identifying the kinds of failure the codec reports.
// Callers distinguish them with errors.Is.
var (
	// ErrInvalidArgument indicates a null/malformed argument at an API
	// boundary.
	ErrInvalidArgument = errors.New("vban: invalid argument")

	// ErrMalformed indicates a packet failed structural validation: too
	// short, bad fourcc, reserved bit set, or a payload-size mismatch.
	ErrMalformed = errors.New("vban: malformed packet")

	// ErrWrongStream indicates a structurally valid packet addressed to a
	// different stream name. Callers should log and skip, not treat this
	// as fatal.
	ErrWrongStream = errors.New("vban: wrong stream name")

	// ErrUnsupportedProtocol indicates a non-audio sub-protocol, or a
	// non-PCM codec on an audio packet.
	ErrUnsupportedProtocol = errors.New("vban: unsupported sub-protocol or codec")
)
