/*
NAME
  ring.go

DESCRIPTION
  ring.go implements the lock-free single-producer/single-consumer byte
  ring buffer used by the callback-driven audio backend. One thread
  (the pipeline loop) calls Write; a different thread (the audio
  driver's process callback) calls ReadVectors and Advance. The two
  never take a lock: the write index is published with a release store
  and observed with an acquire load on the read side, and vice versa
  for the read index, so bytes written before a store to head are
  visible to the reader that loads it. The semantics mirror JACK's own
  jack_ringbuffer_t.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ring implements a lock-free SPSC byte ring buffer for handing
// audio samples from a blocking pipeline thread to a realtime audio
// callback thread without locks or allocation on the hot path.
package ring

import "sync/atomic"

// Buffer is a fixed-capacity single-producer/single-consumer ring
// buffer. The zero value is not usable; construct with New.
//
// head is the next byte index to write, tail the next byte index to
// read, both mod len(buf) and both monotonically increasing (so
// occupancy is always head-tail without a separate "full" flag).
// Writer owns head, reader owns tail; each publishes its index with a
// Store and observes the other's with a Load, giving release/acquire
// ordering on the bytes transferred through buf.
type Buffer struct {
	buf  []byte
	head atomic.Uint64
	tail atomic.Uint64
}

// New allocates a Buffer with the given capacity in bytes.
func New(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, capacity)}
}

// Cap returns the buffer's total capacity in bytes.
func (b *Buffer) Cap() int { return len(b.buf) }

// Len returns the number of unread bytes currently in the buffer. Safe
// to call from either thread; the value observed may be stale by the
// time the caller acts on it, which callers must tolerate (this is the
// nature of SPSC polling).
func (b *Buffer) Len() int {
	return int(b.head.Load() - b.tail.Load())
}

// Free returns the number of bytes that can currently be written
// without overwriting unread data.
func (b *Buffer) Free() int {
	return len(b.buf) - b.Len()
}

// Write copies p into the buffer and advances head. It writes all of p
// or none of it: the pipeline thread checks Free first and drops the
// whole write on insufficient space rather than partially filling the
// ring.
func (b *Buffer) Write(p []byte) int {
	if len(p) > b.Free() {
		return 0
	}
	head := b.head.Load()
	start := int(head % uint64(len(b.buf)))
	n := copy(b.buf[start:], p)
	if n < len(p) {
		copy(b.buf[:len(p)-n], p[n:])
	}
	b.head.Store(head + uint64(len(p)))
	return len(p)
}

// Fill writes n zero bytes into the buffer, used to pre-fill with
// silence on open so the first callback does not see an empty ring.
func (b *Buffer) Fill(n int) {
	zeros := make([]byte, n)
	b.Write(zeros)
}

// Vector is one contiguous segment of unread bytes as returned by
// ReadVectors: at most two segments are needed because the ring wraps
// at most once.
type Vector struct {
	Buf []byte
}

// ReadVectors returns up to two slices covering the next n unread bytes
// without copying and without advancing tail; the caller must call
// Advance once it has consumed the data. It returns fewer than n total
// bytes if the buffer holds less than n, in which case the caller
// should treat this as a short read rather than block.
func (b *Buffer) ReadVectors(n int) [2]Vector {
	avail := b.Len()
	if n > avail {
		n = avail
	}
	tail := b.tail.Load()
	start := int(tail % uint64(len(b.buf)))
	var out [2]Vector
	if start+n <= len(b.buf) {
		out[0] = Vector{Buf: b.buf[start : start+n]}
		return out
	}
	first := len(b.buf) - start
	out[0] = Vector{Buf: b.buf[start:]}
	out[1] = Vector{Buf: b.buf[:n-first]}
	return out
}

// Advance marks n bytes as consumed, freeing their space for the
// writer. n must not exceed the total length of the vectors most
// recently returned by ReadVectors.
func (b *Buffer) Advance(n int) {
	b.tail.Store(b.tail.Load() + uint64(n))
}
