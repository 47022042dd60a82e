package audio

import "errors"

// Sentinel errors for the audio package. ErrDevice marks a failed or
// lost device; ErrTransient marks a recoverable short read or write.
var (
	ErrInvalidArgument = errors.New("audio: invalid argument")
	ErrDevice          = errors.New("audio: device error")
	ErrTransient       = errors.New("audio: transient error")
)
