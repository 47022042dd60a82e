//go:build windows

package socket

import "net"

// enableBroadcast sets SO_BROADCAST on conn. net.UDPConn on Windows
// already permits broadcast datagrams without an explicit setsockopt
// call for the common case this endpoint uses (a connected UDP socket
// dialed to a broadcast peer), so this is a no-op rather than reaching
// into syscall.RawConn for a Windows-specific option constant.
func enableBroadcast(conn *net.UDPConn) error {
	return nil
}
