/*
NAME
  socket.go

DESCRIPTION
  socket.go implements the UDP transport endpoint used by both the
  receiver and emitter pipelines: an IN-direction socket bound to a
  local port that filters inbound datagrams by source address, and an
  OUT-direction socket that sends to a fixed peer, enabling SO_BROADCAST
  when the peer address is a subnet broadcast address.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package socket implements the VBAN UDP endpoint: a bound, direction-aware
// wrapper around net.UDPConn that filters inbound traffic by source address
// and enables broadcast delivery to subnet broadcast peers.
package socket

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Direction selects whether a Socket receives (IN) or sends (OUT).
type Direction int

const (
	// In binds to 0.0.0.0:Port and accepts datagrams only from IPAddress.
	In Direction = iota
	// Out sends datagrams to IPAddress:Port.
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Config describes how to open a Socket.
type Config struct {
	Direction Direction
	IPAddress string // Peer address for Out; expected source address for In.
	Port      int
}

// Socket is a direction-aware UDP endpoint.
type Socket struct {
	cfg  Config
	conn *net.UDPConn
	log  logging.Logger

	peerAddr *net.UDPAddr // Resolved once, for Out sockets.
}

// New opens a Socket per cfg. For Config.Direction == In, it binds
// 0.0.0.0:cfg.Port. For Out, it resolves cfg.IPAddress:cfg.Port as the send
// target and enables SO_BROADCAST if that address ends in ".255".
func New(cfg Config, l logging.Logger) (*Socket, error) {
	if cfg.IPAddress == "" {
		return nil, fmt.Errorf("socket: empty ip address: %w", ErrInvalidArgument)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("socket: port %d out of range: %w", cfg.Port, ErrInvalidArgument)
	}

	s := &Socket{cfg: cfg, log: l}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Socket) open() error {
	s.log.Info("opening socket", "direction", s.cfg.Direction.String(), "port", s.cfg.Port)

	switch s.cfg.Direction {
	case In:
		addr := &net.UDPAddr{IP: net.IPv4zero, Port: s.cfg.Port}
		conn, err := net.ListenUDP("udp4", addr)
		if err != nil {
			return fmt.Errorf("socket: bind: %w: %w", err, ErrIo)
		}
		s.conn = conn

	case Out:
		peer, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", s.cfg.IPAddress, s.cfg.Port))
		if err != nil {
			return fmt.Errorf("socket: resolve peer: %w: %w", err, ErrInvalidArgument)
		}
		s.peerAddr = peer

		conn, err := net.DialUDP("udp4", nil, peer)
		if err != nil {
			return fmt.Errorf("socket: dial: %w: %w", err, ErrIo)
		}
		s.conn = conn

		if isBroadcastAddress(s.cfg.IPAddress) {
			s.log.Debug("broadcast address detected", "ip", s.cfg.IPAddress)
			if err := enableBroadcast(conn); err != nil {
				s.conn.Close()
				s.conn = nil
				return fmt.Errorf("socket: set broadcast: %w: %w", err, ErrIo)
			}
		}

	default:
		return fmt.Errorf("socket: unknown direction %v: %w", s.cfg.Direction, ErrInvalidArgument)
	}

	s.log.Info("socket open", "port", s.cfg.Port)
	return nil
}

// isBroadcastAddress reports whether ip is a subnet broadcast address,
// i.e. its last octet is 255.
func isBroadcastAddress(ip string) bool {
	return strings.HasSuffix(ip, ".255")
}

// Close closes the underlying connection. Close is idempotent.
func (s *Socket) Close() error {
	if s.conn == nil {
		return nil
	}
	s.log.Info("closing socket", "port", s.cfg.Port)
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("socket: close: %w: %w", err, ErrIo)
	}
	return nil
}

// Read reads the next datagram into buf, retrying until one arrives from
// the configured IPAddress. Read is only valid on an In socket.
func (s *Socket) Read(buf []byte) (int, error) {
	if s.conn == nil {
		return 0, fmt.Errorf("socket: not open: %w", ErrInvalidArgument)
	}
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return 0, fmt.Errorf("socket: read: %w: %w", err, ErrIo)
			}
			return 0, fmt.Errorf("socket: read: %w: %w", err, ErrTransient)
		}
		if addr.IP.String() != s.cfg.IPAddress {
			s.log.Debug("packet received from wrong ip", "want", s.cfg.IPAddress, "got", addr.IP.String())
			continue
		}
		return n, nil
	}
}

// Write sends buf to the configured peer. Write is only valid on an Out
// socket.
func (s *Socket) Write(buf []byte) (int, error) {
	if s.conn == nil {
		return 0, fmt.Errorf("socket: not open: %w", ErrInvalidArgument)
	}
	n, err := s.conn.Write(buf)
	if err != nil {
		return n, fmt.Errorf("socket: write: %w: %w", err, ErrTransient)
	}
	return n, nil
}
