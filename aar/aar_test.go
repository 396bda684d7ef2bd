// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aar

import (
	"bytes"
	"compress/zlib"
	"testing"
)

func writeU32(buf *bytes.Buffer, v uint32) {
	buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func writeI32(buf *bytes.Buffer, v int32) {
	writeU32(buf, uint32(v))
}

func TestOpenEmptyV2(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("AAR\x00")
	writeU32(&buf, 2)  // version
	writeU32(&buf, 0)  // nr_entries
	writeU32(&buf, 16) // first_entry_offset

	a, err := Open(buf.Bytes())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(a.Filenames()) != 0 {
		t.Fatalf("Filenames = %v, want empty", a.Filenames())
	}
	if a.Exists("anything") {
		t.Fatal("Exists should be false on an empty archive")
	}
	if _, err := a.Load("anything"); err == nil {
		t.Fatal("expected error loading from empty archive")
	}
}

func TestOpenBadMagic(t *testing.T) {
	if _, err := Open([]byte("XXXX\x00\x00\x00\x00")); err == nil {
		t.Fatal("expected BadMagic error")
	}
}

func TestRawEntryV0(t *testing.T) {
	const payload = "raw-bytes"
	var buf bytes.Buffer
	buf.WriteString("AAR\x00")
	writeU32(&buf, 0) // version
	writeU32(&buf, 1) // nr_entries
	// The directory starts at byte 12: the header's fourth field,
	// first_entry_offset, is also the first entry's offset field.
	headerLen := 12
	dirEntryLen := 4 + 4 + 4 + len("r.txt") + 1
	firstEntryOffset := headerLen + dirEntryLen
	writeU32(&buf, uint32(firstEntryOffset)) // first_entry_offset = entry 0's offset

	writeU32(&buf, uint32(len(payload)))      // size
	writeI32(&buf, int32(Raw))                // type
	buf.WriteString("r.txt\x00")
	buf.WriteString(payload)

	a, err := Open(buf.Bytes())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !a.Exists("R.TXT") {
		t.Fatal("case-insensitive Exists should match R.TXT")
	}
	got, err := a.Load("R.TXT")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("Load = %q, want %q", got, payload)
	}
}

func TestCompressedEntryAARZLB(t *testing.T) {
	const want = "hello"
	var deflated bytes.Buffer
	w := zlib.NewWriter(&deflated)
	w.Write([]byte(want))
	w.Close()

	var zlbFrame bytes.Buffer
	zlbFrame.WriteString("ZLB\x00")
	writeU32(&zlbFrame, 0)                        // version
	writeU32(&zlbFrame, uint32(len(want)))         // out size
	writeU32(&zlbFrame, uint32(deflated.Len()))    // in size
	zlbFrame.Write(deflated.Bytes())

	var buf bytes.Buffer
	buf.WriteString("AAR\x00")
	writeU32(&buf, 0) // version
	writeU32(&buf, 1) // nr_entries
	headerLen := 12 // directory starts at 12; see TestRawEntryV0
	dirEntryLen := 4 + 4 + 4 + len("h.txt") + 1
	firstEntryOffset := headerLen + dirEntryLen
	writeU32(&buf, uint32(firstEntryOffset)) // first_entry_offset = entry 0's offset

	writeU32(&buf, uint32(zlbFrame.Len()))       // entry size: must equal in_size+16
	writeI32(&buf, int32(Compressed))             // type
	buf.WriteString("h.txt\x00")
	buf.Write(zlbFrame.Bytes())

	a, err := Open(buf.Bytes())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := a.Load("h.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != want {
		t.Fatalf("Load = %q, want %q", got, want)
	}
}

func TestSymlinkNotImplemented(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("AAR\x00")
	writeU32(&buf, 2) // version
	writeU32(&buf, 1) // nr_entries
	headerLen := 12 // directory starts at 12; see TestRawEntryV0
	nameLen := len("s.lnk") + 1
	targetLen := len("target.txt") + 1
	dirEntryLen := 4 + 4 + 4 + nameLen + targetLen
	firstEntryOffset := headerLen + dirEntryLen
	writeU32(&buf, uint32(firstEntryOffset)) // first_entry_offset = entry 0's offset

	// maskedCStr masks each character byte-wise (AAR v2's b -> b+0x60
	// encoding, inverse of the reader's b -> b-0x60) and appends an
	// unmasked NUL terminator, matching binio.Cursor.CStr's contract
	// that the terminator itself is never masked.
	maskedCStr := func(s string) []byte {
		out := make([]byte, len(s)+1)
		for i := 0; i < len(s); i++ {
			out[i] = s[i] + 0x60
		}
		out[len(s)] = 0
		return out
	}

	writeU32(&buf, 0) // size
	writeI32(&buf, int32(Symlink))
	buf.Write(maskedCStr("s.lnk"))
	buf.Write(maskedCStr("target.txt"))

	a, err := Open(buf.Bytes())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !a.Exists("s.lnk") {
		t.Fatal("Exists should find the unmasked symlink name")
	}
	if _, err := a.Load("s.lnk"); err == nil {
		t.Fatal("expected NotImplemented error loading a symlink entry")
	}
}
