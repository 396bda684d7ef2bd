// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gltfsink

import (
	"testing"

	"github.com/aoi-engine/kaguya/math32"
	"github.com/aoi-engine/kaguya/qnt"
	"github.com/aoi-engine/kaguya/scene"
)

func TestCreateTextureAddsImageAndTexture(t *testing.T) {
	s := New()
	img := &qnt.Image{Width: 2, Height: 2, Pixels: make([]byte, 2*2*4)}

	h, err := s.CreateTexture(img)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if len(s.Document().Images) != 1 {
		t.Fatalf("Images = %d, want 1", len(s.Document().Images))
	}
	if len(s.Document().Textures) != 1 {
		t.Fatalf("Textures = %d, want 1", len(s.Document().Textures))
	}
	if _, ok := h.(uint32); !ok {
		t.Fatalf("texture handle type = %T, want uint32", h)
	}
}

func TestCreateMaterialAndSetTexture(t *testing.T) {
	s := New()
	img := &qnt.Image{Width: 1, Height: 1, Pixels: make([]byte, 4)}
	tex, err := s.CreateTexture(img)
	if err != nil {
		t.Fatal(err)
	}

	mat, err := s.CreateMaterial(scene.MaterialDesc{Name: "skin", ColorRole: scene.RoleMap})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	s.SetMaterialTexture(mat, scene.RoleMap, tex)

	matIdx := mat.(uint32)
	gm := s.Document().Materials[matIdx]
	if gm.PBRMetallicRoughness == nil || gm.PBRMetallicRoughness.BaseColorTexture == nil {
		t.Fatal("base color texture was not set")
	}
}

func TestCreateMaterialAdditiveAndEdgeExtras(t *testing.T) {
	s := New()
	mat, err := s.CreateMaterial(scene.MaterialDesc{
		Name:             "glow",
		ColorRole:        scene.RoleMap,
		AdditiveBlending: true,
		NoEdge:           true,
		HasEdgeColor:     true,
		EdgeColor:        math32.Vector3{X: 1, Y: 0, Z: 0},
		EdgeSize:         2,
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	gm := s.Document().Materials[mat.(uint32)]
	extras, ok := gm.Extras.(map[string]interface{})
	if !ok {
		t.Fatal("Extras was not populated")
	}
	if extras["additiveBlending"] != true {
		t.Fatal("additiveBlending extra missing")
	}
	if extras["noEdge"] != true {
		t.Fatal("noEdge extra missing")
	}
	if extras["edgeSize"] != float32(2) {
		t.Fatalf("edgeSize extra = %v, want 2", extras["edgeSize"])
	}
}

func TestSetMaterialUVOffset(t *testing.T) {
	s := New()
	mat, err := s.CreateMaterial(scene.MaterialDesc{Name: "scroll", ColorRole: scene.RoleMap})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	s.SetMaterialUVOffset(mat, [2]float32{0.25, 0.5})

	gm := s.Document().Materials[mat.(uint32)]
	extras, ok := gm.Extras.(map[string]interface{})
	if !ok {
		t.Fatal("Extras was not populated")
	}
	off, ok := extras["uvOffset"].([2]float32)
	if !ok || off[0] != 0.25 || off[1] != 0.5 {
		t.Fatalf("uvOffset extra = %v", extras["uvOffset"])
	}
}

func TestCreateGeometryOneGroupPerSubmaterial(t *testing.T) {
	s := New()
	desc := scene.GeometryDesc{
		Positions: math32.ArrayF32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:   math32.ArrayF32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		UVs:       math32.ArrayF32{0, 0, 1, 0, 0, 1},
		Groups:    []scene.GeometryGroup{{Start: 0, Count: 3, MaterialIndex: 0}},
	}
	h, err := s.CreateGeometry(desc)
	if err != nil {
		t.Fatalf("CreateGeometry: %v", err)
	}
	idx := h.(uint32)
	if len(s.Document().Meshes[idx].Primitives) != 1 {
		t.Fatalf("Primitives = %d, want 1", len(s.Document().Meshes[idx].Primitives))
	}
}
