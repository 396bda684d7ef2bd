// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binio

import (
	"errors"
	"testing"

	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
)

func TestCursorPrimitives(t *testing.T) {
	buf := []byte{
		0x7B,                   // u8 123
		0x34, 0x12,             // u16 0x1234
		0x78, 0x56, 0x34, 0x12, // u32 0x12345678
		'P', 'O', 'L', 0,
		'h', 'i', 0,
	}
	c := New(buf)

	u8, err := c.U8()
	if err != nil || u8 != 0x7B {
		t.Fatalf("U8 = %v, %v", u8, err)
	}
	u16, err := c.U16LE()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("U16LE = %v, %v", u16, err)
	}
	u32, err := c.U32LE()
	if err != nil || u32 != 0x12345678 {
		t.Fatalf("U32LE = %v, %v", u32, err)
	}
	magic, err := c.FourCC()
	if err != nil || magic != "POL\x00" {
		t.Fatalf("FourCC = %q, %v", magic, err)
	}
	s, err := c.CStr(nil)
	if err != nil || s != "hi" {
		t.Fatalf("CStr = %q, %v", s, err)
	}
	if c.Offset() != len(buf) {
		t.Fatalf("offset = %d, want %d", c.Offset(), len(buf))
	}
}

func TestCursorTruncated(t *testing.T) {
	c := New([]byte{0x01, 0x02})
	_, err := c.U32LE()
	if err == nil {
		t.Fatal("expected Truncated error")
	}
	var kerr *kaguyaerr.Error
	if !errors.As(err, &kerr) || kerr.Kind != kaguyaerr.Truncated {
		t.Fatalf("expected kaguyaerr.Truncated, got %v", err)
	}
}

func TestCStrUnmask(t *testing.T) {
	// AAR v2 unmask: b -> (b - 0x60) mod 256
	masked := []byte{byte('a' + 0x60), byte('b' + 0x60), 0}
	c := New(masked)
	s, err := c.CStr(func(b byte) byte { return b - 0x60 })
	if err != nil || s != "ab" {
		t.Fatalf("CStr unmask = %q, %v", s, err)
	}
}

func TestU16RoundTrip(t *testing.T) {
	c := New([]byte{0xFF, 0xFF})
	v, err := c.U16LE()
	if err != nil || v != 0xFFFF {
		t.Fatalf("U16LE = %v, %v", v, err)
	}
}
