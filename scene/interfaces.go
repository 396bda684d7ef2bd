// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scene assembles decoded POL/MOT/OPR/QNT data into a
// renderer-neutral scene: a bind-pose skeleton, flattened geometry
// buffers grouped by submaterial, and material descriptors with
// texture roles. It consumes a BlobSource for byte/image access and
// emits calls against a SceneSink; it creates no GPU resources itself.
package scene

import "github.com/aoi-engine/kaguya/qnt"

// BlobSource is the asset source the builder pulls bytes and images
// from. Names use backslash path separators as they appear in
// archives. Implementations: blob.FilesLoader, blob.ArchiveLoader.
type BlobSource interface {
	Exists(name string) bool
	Filenames() []string
	Load(name string) ([]byte, error)
	LoadImage(name string) (*qnt.Image, error)
	// LoadImageList resolves base (without extension) to an ordered
	// animation frame set, e.g. "tex", "tex_1", "tex_2", ...
	LoadImageList(base string) ([]*qnt.Image, error)
	// LoadTxa parses a texture-animation table: ASCII integers, one per
	// line.
	LoadTxa(name string) ([]int, error)
}

// Sink receives the assembled scene. It is the one worked
// implementation this module ships (sink/gltfsink) but any renderer
// backend can implement it.
type Sink interface {
	CreateTexture(img *qnt.Image) (TextureHandle, error)
	CreateMaterial(desc MaterialDesc) (MaterialHandle, error)
	CreateGeometry(desc GeometryDesc) (GeometryHandle, error)
	// CreateSkinnedMesh binds one material handle per geometry group
	// (mats[i] corresponds to GeometryDesc.Groups[i]); a nil entry
	// means the mesh has no material (material index -1).
	CreateSkinnedMesh(geom GeometryHandle, mats []MaterialHandle, skel *Skeleton) (MeshHandle, error)
	SetBoneLocalPose(mesh MeshHandle, jointIndex int, pos [3]float32, rot [4]float32)
	SetMaterialTexture(mat MaterialHandle, role string, tex TextureHandle)
	// SetMaterialUVOffset records the current accumulated UV-scroll
	// offset for a material with HasUVScroll set; called once per
	// ApplyMotion frame for such materials.
	SetMaterialUVOffset(mat MaterialHandle, offset [2]float32)
}

// Handles are opaque resource identifiers minted by a Sink
// implementation; the builder never interprets them.
type (
	TextureHandle  interface{}
	MaterialHandle interface{}
	GeometryHandle interface{}
	MeshHandle     interface{}
)
