// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package binio is a small bounds-checked little-endian cursor over an
// in-memory byte slice, the primitive every decoder in this module
// builds on. Buffers are small (single asset files, typically under
// 10MB) so there is no streaming reader here, only a slice + offset.
package binio

import (
	"math"

	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
)

// Cursor reads little-endian primitives from a byte slice, advancing
// an internal offset. Every read is bounds-checked; a read past the
// end of the buffer returns a Truncated error instead of panicking.
type Cursor struct {
	buf []byte
	pos int
}

// New returns a Cursor positioned at the start of buf.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the current read position, for end-of-stream checks.
func (c *Cursor) Offset() int { return c.pos }

// Len returns the total buffer length.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Seek repositions the cursor to an absolute offset.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return kaguyaerr.New(kaguyaerr.Truncated, "binio.Seek", nil)
	}
	c.pos = pos
	return nil
}

func (c *Cursor) need(n int) error {
	if c.pos+n > len(c.buf) || n < 0 {
		return kaguyaerr.New(kaguyaerr.Truncated, "binio.Cursor", nil)
	}
	return nil
}

// Bytes reads and returns the next n raw bytes.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// U8 reads a single unsigned byte.
func (c *Cursor) U8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// U16LE reads an unsigned 16-bit little-endian integer.
func (c *Cursor) U16LE() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := uint16(c.buf[c.pos]) | uint16(c.buf[c.pos+1])<<8
	c.pos += 2
	return v, nil
}

// U32LE reads an unsigned 32-bit little-endian integer.
func (c *Cursor) U32LE() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := uint32(c.buf[c.pos]) | uint32(c.buf[c.pos+1])<<8 |
		uint32(c.buf[c.pos+2])<<16 | uint32(c.buf[c.pos+3])<<24
	c.pos += 4
	return v, nil
}

// I32LE reads a signed 32-bit little-endian integer.
func (c *Cursor) I32LE() (int32, error) {
	v, err := c.U32LE()
	return int32(v), err
}

// F32LE reads an IEEE-754 32-bit little-endian float.
func (c *Cursor) F32LE() (float32, error) {
	v, err := c.U32LE()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F64LE reads an IEEE-754 64-bit little-endian float.
func (c *Cursor) F64LE() (float64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(c.buf[c.pos+i]) << (8 * i)
	}
	c.pos += 8
	return math.Float64frombits(v), nil
}

// FourCC reads the next 4 bytes and returns them as an ASCII string,
// used for file magics ("AAR\x00", "QNT\x00", "POL\x00", "MOT\x00",
// "ZLB\x00").
func (c *Cursor) FourCC() (string, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Unmask is a per-byte transform applied while reading a C string,
// used by AAR v2 to de-obfuscate entry names.
type Unmask func(byte) byte

// CStr reads bytes up to and including the next zero byte, returning
// the string with the terminator stripped. If unmask is non-nil it is
// applied to each byte after the zero terminator has been located on
// the raw bytes; the terminator itself is never masked.
func (c *Cursor) CStr(unmask Unmask) (string, error) {
	start := c.pos
	for {
		if c.pos >= len(c.buf) {
			return "", kaguyaerr.New(kaguyaerr.Truncated, "binio.CStr", nil)
		}
		if c.buf[c.pos] == 0 {
			break
		}
		c.pos++
	}
	raw := c.buf[start:c.pos]
	c.pos++ // consume terminator
	if unmask == nil {
		return string(raw), nil
	}
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = unmask(b)
	}
	return string(out), nil
}
