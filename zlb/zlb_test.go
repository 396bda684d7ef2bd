// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zlb

import (
	"bytes"
	"testing"
)

// helloDeflated is the zlib-compressed form of "hello", precomputed
// so the test has no dependency on compress/zlib's exact encoder output
// beyond what this package itself decodes.
var helloDeflated = []byte{0x78, 0x9c, 0xcb, 0x48, 0xcd, 0xc9, 0xc9, 0x07, 0x00, 0x06, 0x2c, 0x02, 0x15}

func TestInflateExactSize(t *testing.T) {
	out, err := Inflate(helloDeflated, 5)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(out, []byte("hello")) {
		t.Fatalf("Inflate = %q, want %q", out, "hello")
	}
}

func TestInflateSizeMismatch(t *testing.T) {
	if _, err := Inflate(helloDeflated, 4); err == nil {
		t.Fatal("expected SizeMismatch error for undersized expectedSize")
	}
	if _, err := Inflate(helloDeflated, 6); err == nil {
		t.Fatal("expected SizeMismatch error for oversized expectedSize")
	}
}

func TestParseFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ZLB\x00")
	buf.Write([]byte{0, 0, 0, 0})                     // version 0
	buf.Write([]byte{5, 0, 0, 0})                      // out size 5
	buf.Write([]byte{byte(len(helloDeflated)), 0, 0, 0}) // in size
	buf.Write(helloDeflated)

	frame, payload, err := ParseFrame(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if frame.OutSize != 5 || frame.InSize != len(helloDeflated) {
		t.Fatalf("frame = %+v", frame)
	}
	out, err := Inflate(payload, frame.OutSize)
	if err != nil || string(out) != "hello" {
		t.Fatalf("Inflate(payload) = %q, %v", out, err)
	}
}

func TestParseFrameBadMagic(t *testing.T) {
	_, _, err := ParseFrame([]byte("XXXX\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	if err == nil {
		t.Fatal("expected BadMagic error")
	}
}
