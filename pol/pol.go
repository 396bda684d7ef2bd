// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pol decodes POL polygonal-model files: a material tree, a
// list of meshes with per-vertex skinning and per-corner attribute
// indirection, and a bone hierarchy. Versions 1 and 2 differ in
// weight-index width and vertex-color encoding; both are handled by
// the same parse functions, switched on the version field.
package pol

import (
	"github.com/aoi-engine/kaguya/binio"
	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
	"github.com/aoi-engine/kaguya/internal/logx"
)

const magic = "POL\x00"

// Pol is a fully decoded POL file.
type Pol struct {
	Version   uint32
	Materials []*Material
	Meshes    []Mesh
	Bones     []Bone
}

// Decode stream-parses a complete POL file in one pass.
func Decode(data []byte) (*Pol, error) {
	c := binio.New(data)

	m, err := c.FourCC()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, kaguyaerr.New(kaguyaerr.BadMagic, "pol.Decode", nil)
	}
	version, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	if version != 1 && version != 2 {
		return nil, kaguyaerr.New(kaguyaerr.UnsupportedVersion, "pol.Decode", nil)
	}

	nrMaterials, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	materials, err := parseMaterials(c, nrMaterials)
	if err != nil {
		return nil, err
	}

	nrMeshes, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	meshes, err := parseMeshes(c, nrMeshes, version, materials, nrMaterials)
	if err != nil {
		return nil, err
	}

	nrBones, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	bones, err := parseBones(c, nrBones)
	if err != nil {
		return nil, err
	}

	if c.Offset() != c.Len() {
		logx.Warn("pol: %d trailing bytes after a complete parse", c.Len()-c.Offset())
	}

	return &Pol{Version: version, Materials: materials, Meshes: meshes, Bones: bones}, nil
}
