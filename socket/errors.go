package socket

import "errors"

// Sentinel errors for the socket package. ErrIo marks failures the
// pipeline should treat as terminal; ErrTransient marks ones worth
// riding out.
var (
	ErrInvalidArgument = errors.New("socket: invalid argument")
	ErrIo              = errors.New("socket: io error")
	ErrTransient       = errors.New("socket: transient error")
)
