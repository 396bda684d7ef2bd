// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"strings"

	"github.com/aoi-engine/kaguya/internal/logx"
	"github.com/aoi-engine/kaguya/math32"
	"github.com/aoi-engine/kaguya/opr"
	"github.com/aoi-engine/kaguya/pol"
	"github.com/aoi-engine/kaguya/qnt"
)

// Texture role names, passed to Sink.SetMaterialTexture.
const (
	RoleMap        = "map"
	RoleMatcap     = "matcap"
	RoleNormalMap  = "normalMap"
	RoleLightMap   = "lightMap"
	RoleAlphaMap   = "alphaMap"
)

const lightMapIntensity = 0.5
const alphaTestThreshold = 0.1

// MaterialDesc is the flag bundle passed to Sink.CreateMaterial.
type MaterialDesc struct {
	Name               string
	ColorRole          string // RoleMap or RoleMatcap
	Transparent        bool
	AlphaTestThreshold float32 // 0 disables alpha testing
	HasLightMap        bool
	LightMapIntensity  float32
	NormalScaleY       float32 // inverted relative to the source convention
	DoubleSided        bool
	AdditiveBlending   bool

	NoEdge       bool // OPR Edge=0: suppress the renderer's outline pass
	HasEdgeColor bool
	EdgeColor    math32.Vector3
	EdgeSize     float32
}

// BuiltMaterial is the builder-side record of a created material: the
// sink handle plus whatever state per-frame motion application needs
// (texture-animation frames, UV scroll).
type BuiltMaterial struct {
	Handle MaterialHandle

	ColorFrames   []*qnt.Image
	ColorTextures []TextureHandle
	FrameIndex    int

	HasUVScroll  bool
	UVScrollRate math32.Vector2
	uvElapsed    float32
}

// buildMaterial resolves one top-level-or-child POL material (which
// never has children of its own by construction) into a sink
// material. env marks a mesh using this material with the (env)
// attribute, switching the color role to matcap. ov is the mesh's OPR
// overlay, if any; its blend/edge flags must be folded into
// MaterialDesc before CreateMaterial, since the Sink only learns about
// them once.
func buildMaterial(src BlobSource, sink Sink, reg *Registry, m *pol.Material, env bool, ov *opr.MeshOverlay) (*BuiltMaterial, error) {
	desc := MaterialDesc{
		Name:              m.Name,
		ColorRole:         RoleMap,
		LightMapIntensity: lightMapIntensity,
		NormalScaleY:      -1,
		DoubleSided:       m.Attrs.Both,
	}
	if env {
		desc.ColorRole = RoleMatcap
	}
	if ov != nil {
		desc.AdditiveBlending = ov.AdditiveBlending
		desc.NoEdge = ov.NoEdge
		if ov.EdgeColor != nil {
			desc.HasEdgeColor = true
			desc.EdgeColor = *ov.EdgeColor
			desc.EdgeSize = ov.EdgeSize
		}
	}

	colorFile, hasColor := m.Textures[pol.ColorMap]
	built := &BuiltMaterial{}

	var colorImg *qnt.Image
	if hasColor {
		frames, err := src.LoadImageList(stripExt(colorFile))
		if err != nil {
			return nil, err
		}
		built.ColorFrames = frames
		if len(frames) > 0 {
			colorImg = frames[0]
		}
	}

	if alphaFile, ok := m.Textures[pol.AlphaMap]; ok && alphaFile != colorFile {
		desc.Transparent = true
	} else if colorImg != nil && colorImg.HasAlpha {
		desc.AlphaTestThreshold = alphaTestThreshold
	}

	if _, ok := m.Textures[pol.LightMap]; ok {
		desc.HasLightMap = true
	}

	handle, err := sink.CreateMaterial(desc)
	if err != nil {
		return nil, err
	}
	built.Handle = handle

	for _, img := range built.ColorFrames {
		tex, err := sink.CreateTexture(img)
		if err != nil {
			return nil, err
		}
		reg.Track(func() {})
		built.ColorTextures = append(built.ColorTextures, tex)
	}
	if len(built.ColorTextures) > 0 {
		sink.SetMaterialTexture(handle, desc.ColorRole, built.ColorTextures[0])
	}

	if normalFile, ok := m.Textures[pol.NormalMap]; ok {
		img, err := src.LoadImage(normalFile)
		if err != nil {
			return nil, err
		}
		tex, err := sink.CreateTexture(img)
		if err != nil {
			return nil, err
		}
		reg.Track(func() {})
		sink.SetMaterialTexture(handle, RoleNormalMap, tex)
	}

	if lightFile, ok := m.Textures[pol.LightMap]; ok {
		img, err := src.LoadImage(lightFile)
		if err != nil {
			return nil, err
		}
		tex, err := sink.CreateTexture(img)
		if err != nil {
			return nil, err
		}
		reg.Track(func() {})
		sink.SetMaterialTexture(handle, RoleLightMap, tex)
	}

	if alphaFile, ok := m.Textures[pol.AlphaMap]; ok && alphaFile != colorFile {
		img, err := src.LoadImage(alphaFile)
		if err != nil {
			return nil, err
		}
		tex, err := sink.CreateTexture(img)
		if err != nil {
			return nil, err
		}
		reg.Track(func() {})
		sink.SetMaterialTexture(handle, RoleAlphaMap, tex)
	}

	reg.Track(func() {})
	return built, nil
}

// ApplyTxa advances a material's color texture to txaFrame (a frame
// outside its own frame range falls back to frame 0), returning true
// if the texture changed.
func (bm *BuiltMaterial) ApplyTxa(txaFrame int) bool {
	if len(bm.ColorTextures) == 0 {
		return false
	}
	idx := txaFrame
	if idx < 0 || idx >= len(bm.ColorTextures) {
		logx.Warn("scene: txa frame %d out of range (%d frames), clamping to 0", txaFrame, len(bm.ColorTextures))
		idx = 0
	}
	if idx == bm.FrameIndex {
		return false
	}
	bm.FrameIndex = idx
	return true
}

func stripExt(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name
	}
	return name[:i]
}
