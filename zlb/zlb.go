// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zlb decompresses the zlib payloads embedded throughout this
// asset family, and parses the small "ZLB\0" framing AAR wraps around
// each compressed directory entry. No third-party zlib-compatible
// codec appears anywhere in this module's reference corpus (the one
// comparable binary mesh format retrieved, tbogdala/gombz, also calls
// compress/zlib directly), so this is the one place the module
// reaches for the standard library instead of an ecosystem package.
package zlb

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
)

// Inflate decompresses compressed and returns exactly expectedSize
// bytes. It is an error, SizeMismatch, if the decompressed length
// differs from expectedSize in either direction.
func Inflate(compressed []byte, expectedSize int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, kaguyaerr.New(kaguyaerr.DecompressFailed, "zlb.Inflate", err)
	}
	defer r.Close()

	out := make([]byte, expectedSize)
	n, err := io.ReadFull(r, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, kaguyaerr.New(kaguyaerr.DecompressFailed, "zlb.Inflate", err)
	}
	if n != expectedSize {
		return nil, kaguyaerr.New(kaguyaerr.SizeMismatch, "zlb.Inflate", nil)
	}
	// Confirm there is no additional output beyond expectedSize.
	var extra [1]byte
	if m, _ := r.Read(extra[:]); m > 0 {
		return nil, kaguyaerr.New(kaguyaerr.SizeMismatch, "zlb.Inflate", nil)
	}
	return out, nil
}

// Frame is a parsed "ZLB\0" header: magic, a zero version field,
// uncompressed size and compressed size, immediately followed by the
// zlib payload itself in the source buffer.
type Frame struct {
	OutSize int
	InSize  int
}

// ParseFrame reads the 16-byte ZLB header from the start of buf and
// returns the frame along with the payload bytes that follow it.
func ParseFrame(buf []byte) (Frame, []byte, error) {
	if len(buf) < 16 {
		return Frame{}, nil, kaguyaerr.New(kaguyaerr.Truncated, "zlb.ParseFrame", nil)
	}
	if string(buf[0:4]) != "ZLB\x00" {
		return Frame{}, nil, kaguyaerr.New(kaguyaerr.BadMagic, "zlb.ParseFrame", nil)
	}
	version := le32(buf[4:8])
	if version != 0 {
		return Frame{}, nil, kaguyaerr.New(kaguyaerr.UnsupportedVersion, "zlb.ParseFrame", nil)
	}
	outSize := int(le32(buf[8:12]))
	inSize := int(le32(buf[12:16]))
	payload := buf[16:]
	if len(payload) < inSize {
		return Frame{}, nil, kaguyaerr.New(kaguyaerr.Truncated, "zlb.ParseFrame", nil)
	}
	return Frame{OutSize: outSize, InSize: inSize}, payload[:inSize], nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
