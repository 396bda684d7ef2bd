// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mot

import (
	"bytes"
	"math"
	"testing"
)

func writeU32(buf *bytes.Buffer, v uint32) {
	buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func writeF32(buf *bytes.Buffer, v float32) {
	writeU32(buf, math.Float32bits(v))
}

func writeBone(buf *bytes.Buffer, name string, id, parent uint32, frames int) {
	buf.WriteString(name)
	buf.WriteByte(0)
	writeU32(buf, id)
	writeU32(buf, parent)
	for i := 0; i < frames; i++ {
		// position
		writeF32(buf, float32(i))
		writeF32(buf, 0)
		writeF32(buf, 0)
		// rotation quaternion
		writeF32(buf, 1)
		writeF32(buf, 0)
		writeF32(buf, 0)
		writeF32(buf, 0)
		// aux quaternion
		writeF32(buf, 1)
		writeF32(buf, 0)
		writeF32(buf, 0)
		writeF32(buf, 0)
	}
}

func TestDecodeTwoBones(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("MOT\x00")
	writeU32(&buf, 0) // version
	writeU32(&buf, 3) // frame_count
	writeU32(&buf, 2) // bone_count
	writeBone(&buf, "hip", 0, 0xFFFFFFFF, 3)
	writeBone(&buf, "knee", 1, 0, 3)

	mot, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if mot.FrameCount != 3 {
		t.Fatalf("FrameCount = %d", mot.FrameCount)
	}
	if len(mot.Bones) != 2 {
		t.Fatalf("len(Bones) = %d", len(mot.Bones))
	}
	hip := mot.Bones[0]
	if hip.Name != "hip" || hip.ID != 0 {
		t.Fatalf("hip = %+v", hip)
	}
	if len(hip.Frames) != 3 {
		t.Fatalf("len(hip.Frames) = %d", len(hip.Frames))
	}
	// frame 1's x position was written as raw 1.0; the coordinate
	// convention scales by 0.0254 (inches to meters) and does not
	// touch x.
	want := float32(1) * 0.0254
	if hip.Frames[1].Pos.X != want {
		t.Fatalf("Frames[1].Pos.X = %v, want %v", hip.Frames[1].Pos.X, want)
	}
	if hip.Frames[0].Rot.W != 1 {
		t.Fatalf("Frames[0].Rot.W = %v", hip.Frames[0].Rot.W)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	if _, err := Decode([]byte("XXXX\x00\x00\x00\x00")); err == nil {
		t.Fatal("expected BadMagic error")
	}
}
