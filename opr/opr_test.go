// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opr

import (
	"strings"
	"testing"
)

func TestDecodeBasic(t *testing.T) {
	src := strings.Join([]string{
		`BlendMode = Add`, // before any header: ignored
		`Mesh = "body"`,
		`BlendMode = Add`,
		`Edge = 0`,
		`EdgeColor = (1,0,0)`,
		`EdgeSize = 1.5`,
		`UVScroll = (0.1,-0.2)`,
		`Mesh = "face"`,
		`Unknown = whatever`,
	}, "\n")

	ov, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(ov.Meshes) != 2 {
		t.Fatalf("len(Meshes) = %d", len(ov.Meshes))
	}
	body, ok := ov.Meshes["body"]
	if !ok {
		t.Fatal(`missing "body"`)
	}
	if !body.AdditiveBlending {
		t.Fatal("AdditiveBlending should be true")
	}
	if !body.NoEdge {
		t.Fatal("NoEdge should be true")
	}
	if body.EdgeColor == nil || body.EdgeColor.X != 1 {
		t.Fatalf("EdgeColor = %+v", body.EdgeColor)
	}
	if body.EdgeSize != 1.5 {
		t.Fatalf("EdgeSize = %v", body.EdgeSize)
	}
	if !body.HasUVScroll || body.UVScroll.X != 0.1 || body.UVScroll.Y != -0.2 {
		t.Fatalf("UVScroll = %+v", body.UVScroll)
	}

	face, ok := ov.Meshes["face"]
	if !ok {
		t.Fatal(`missing "face"`)
	}
	if face.AdditiveBlending {
		t.Fatal("face should not inherit body's BlendMode")
	}
}

func TestDecodeEmpty(t *testing.T) {
	ov, err := Decode([]byte(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(ov.Meshes) != 0 {
		t.Fatalf("len(Meshes) = %d, want 0", len(ov.Meshes))
	}
}
