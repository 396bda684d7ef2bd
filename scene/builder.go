// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"path"
	"strings"

	"github.com/aoi-engine/kaguya/internal/logx"
	"github.com/aoi-engine/kaguya/mot"
	"github.com/aoi-engine/kaguya/opr"
	"github.com/aoi-engine/kaguya/pol"
)

// builtMesh is one POL mesh's assembled sink-side representation plus
// the material(s) its triangle groups reference, in group order.
type builtMesh struct {
	name      string
	geom      GeometryHandle
	materials []*BuiltMaterial
	handle    MeshHandle
}

// SceneBuilder assembles a POL model, its optional MOT motion and OPR
// overlay, into a Sink. One builder handles one model; Build may only
// be called once.
type SceneBuilder struct {
	Source BlobSource
	Sink   Sink

	Registry Registry
	Skeleton *Skeleton

	meshes  []*builtMesh
	overlay *opr.Overlay
	motion  *mot.Mot
	txa     []int
}

// BuildOptions names the optional MOT/OPR/TXA side files explicitly;
// any field left empty falls back to polName's base name with that
// extension (e.g. "chr\\hero.pol" -> "chr\\hero.mot").
type BuildOptions struct {
	Mot string
	Opr string
	Txa string
}

// Build parses polName (and, if present in Source, the matching .mot,
// .opr and .txa side files) and assembles the full scene against Sink.
func Build(src BlobSource, sink Sink, polName string, opts BuildOptions) (*SceneBuilder, error) {
	raw, err := src.Load(polName)
	if err != nil {
		return nil, err
	}
	model, err := pol.Decode(raw)
	if err != nil {
		return nil, err
	}

	b := &SceneBuilder{Source: src, Sink: sink}

	if len(model.Bones) > 0 {
		sk, err := BuildSkeleton(model.Bones)
		if err != nil {
			return nil, err
		}
		b.Skeleton = sk
	}

	base := strings.TrimSuffix(polName, path.Ext(polName))
	oprName := opts.Opr
	if oprName == "" {
		oprName = base + ".opr"
	}
	if src.Exists(oprName) {
		oraw, err := src.Load(oprName)
		if err != nil {
			return nil, err
		}
		ov, err := opr.Decode(oraw)
		if err != nil {
			return nil, err
		}
		b.overlay = ov
	}
	motName := opts.Mot
	if motName == "" {
		motName = base + ".mot"
	}
	if src.Exists(motName) {
		mraw, err := src.Load(motName)
		if err != nil {
			return nil, err
		}
		m, err := mot.Decode(mraw)
		if err != nil {
			return nil, err
		}
		b.motion = m
	}
	txaName := opts.Txa
	if txaName == "" {
		txaName = base + ".txa"
	}
	if src.Exists(txaName) {
		table, err := src.LoadTxa(txaName)
		if err != nil {
			return nil, err
		}
		b.txa = table
	}

	for mi := range model.Meshes {
		mesh := &model.Meshes[mi]
		if mesh.IsNull {
			continue
		}
		bm, err := b.buildOneMesh(mesh, model.Materials)
		if err != nil {
			return nil, err
		}
		b.meshes = append(b.meshes, bm)
	}

	return b, nil
}

func (b *SceneBuilder) buildOneMesh(mesh *pol.Mesh, materials []*pol.Material) (*builtMesh, error) {
	var children []*pol.Material
	var topMaterial *pol.Material
	if mesh.MaterialIndex >= 0 {
		topMaterial = materials[mesh.MaterialIndex]
		if len(topMaterial.Children) > 0 {
			children = topMaterial.Children
		}
	}

	geomDesc := buildGeometry(mesh, len(children), b.Skeleton != nil)
	geomHandle, err := b.Sink.CreateGeometry(*geomDesc)
	if err != nil {
		return nil, err
	}
	b.Registry.Track(func() {})

	bm := &builtMesh{name: mesh.Name, geom: geomHandle}

	overlayMesh := b.meshOverlay(mesh.Name)

	if len(children) == 0 {
		var mat *BuiltMaterial
		if topMaterial != nil {
			m, err := buildMaterial(b.Source, b.Sink, &b.Registry, topMaterial, mesh.Attrs.Env, overlayMesh)
			if err != nil {
				return nil, err
			}
			applyOverlay(m, overlayMesh)
			mat = m
		}
		bm.materials = []*BuiltMaterial{mat}
	} else {
		for _, child := range children {
			m, err := buildMaterial(b.Source, b.Sink, &b.Registry, child, mesh.Attrs.Env, overlayMesh)
			if err != nil {
				return nil, err
			}
			applyOverlay(m, overlayMesh)
			bm.materials = append(bm.materials, m)
		}
	}

	matHandles := make([]MaterialHandle, len(bm.materials))
	for i, m := range bm.materials {
		if m != nil {
			matHandles[i] = m.Handle
		}
	}
	meshHandle, err := b.Sink.CreateSkinnedMesh(geomHandle, matHandles, b.Skeleton)
	if err != nil {
		return nil, err
	}
	b.Registry.Track(func() {})
	bm.handle = meshHandle

	return bm, nil
}

func (b *SceneBuilder) meshOverlay(name string) *opr.MeshOverlay {
	if b.overlay == nil {
		return nil
	}
	return b.overlay.Meshes[name]
}

// applyOverlay layers the one OPR effect that lives on BuiltMaterial
// rather than MaterialDesc: per-frame UV scroll state. Additive
// blending and edge flags are folded into MaterialDesc by
// buildMaterial itself, since the Sink only learns about them once, at
// CreateMaterial time.
func applyOverlay(m *BuiltMaterial, ov *opr.MeshOverlay) {
	if ov == nil || m == nil {
		return
	}
	if ov.HasUVScroll {
		m.HasUVScroll = true
		m.UVScrollRate = ov.UVScroll
	}
}

// ApplyMotion sets every joint's local pose and color-texture frame
// for frame F of the loaded motion, in the fixed order the overlay/
// motion/TXA channels are meant to update: UV scroll, then bones, then
// texture-animation frame swap.
func (b *SceneBuilder) ApplyMotion(f int) {
	for _, bm := range b.meshes {
		for _, m := range bm.materials {
			if m == nil || !m.HasUVScroll {
				continue
			}
			// Elapsed seconds at the fixed 30Hz tick rate, not the raw
			// frame counter: offset is the authored per-second rate
			// times t, wrapped to [0,1) so it stays stable across an
			// arbitrarily long playback.
			t := float32(f) / 30
			u := m.UVScrollRate.X * t
			v := m.UVScrollRate.Y * t
			u -= float32(int(u))
			v -= float32(int(v))
			if u < 0 {
				u++
			}
			if v < 0 {
				v++
			}
			m.uvElapsed = u
			b.Sink.SetMaterialUVOffset(m.Handle, [2]float32{u, v})
		}
	}

	if b.motion != nil && b.Skeleton != nil {
		fc := b.motion.FrameCount
		idx := 0
		if fc > 1 {
			idx = (f % int(fc-1)) + 1
		}
		for bi := range b.motion.Bones {
			bone := &b.motion.Bones[bi]
			ref, ok := b.Skeleton.Resolve(bone.Name, bone.ID)
			if !ok {
				logx.Warn("scene: motion bone %q has no matching joint, skipping", bone.Name)
				continue
			}
			if idx >= len(bone.Frames) {
				continue
			}
			frame := bone.Frames[idx]
			b.Skeleton.SetLocalPose(ref.Index, frame.Pos, frame.Rot)
		}
		for _, bm := range b.meshes {
			for ji := range b.Skeleton.Joints {
				j := &b.Skeleton.Joints[ji]
				b.Sink.SetBoneLocalPose(bm.handle, ji,
					[3]float32{j.LocalPos.X, j.LocalPos.Y, j.LocalPos.Z},
					[4]float32{j.LocalRot.X, j.LocalRot.Y, j.LocalRot.Z, j.LocalRot.W})
			}
		}
	}

	if len(b.txa) > 0 {
		txaIdx := b.txa[f%len(b.txa)]
		for _, bm := range b.meshes {
			for _, m := range bm.materials {
				if m == nil || len(m.ColorTextures) <= 1 {
					continue
				}
				if m.ApplyTxa(txaIdx) {
					b.Sink.SetMaterialTexture(m.Handle, RoleMap, m.ColorTextures[m.FrameIndex])
				}
			}
		}
	}
}
