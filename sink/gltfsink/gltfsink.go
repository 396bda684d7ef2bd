// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gltfsink implements scene.Sink by assembling a glTF 2.0
// document in memory with github.com/qmuntal/gltf and
// github.com/qmuntal/gltf/modeler, the worked renderer-neutral backend
// this module ships alongside the parser pipeline. It never opens a
// window or renders a frame; callers write the finished binary glTF
// by passing Document() to gltf.SaveBinary.
package gltfsink

import (
	"bytes"
	"image"
	"image/png"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/aoi-engine/kaguya/qnt"
	"github.com/aoi-engine/kaguya/scene"
)

// Sink accumulates a single glTF document. Handles returned to the
// builder are indices into the document's own arrays (uint32), boxed
// as interface{} per scene.Sink's opaque-handle contract.
type Sink struct {
	doc *gltf.Document

	// materialState records each material's color role at
	// CreateMaterial time. SetMaterialTexture does not consult it:
	// both the map and matcap roles bind the base color texture.
	materialState map[uint32]materialFlags
}

type materialFlags struct {
	colorRole string // scene.RoleMap or scene.RoleMatcap
}

// New starts a fresh, empty glTF document with one default scene.
func New() *Sink {
	doc := gltf.NewDocument()
	doc.Scene = gltf.Index(0)
	doc.Scenes = []*gltf.Scene{{}}
	return &Sink{doc: doc, materialState: make(map[uint32]materialFlags)}
}

// Document exposes the underlying glTF document for callers that want
// to inspect or further customize it before saving.
func (s *Sink) Document() *gltf.Document { return s.doc }

func (s *Sink) CreateTexture(img *qnt.Image) (scene.TextureHandle, error) {
	png, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	bv := modeler.WriteBufferView(s.doc, gltf.TargetNone, png)
	imgIdx := uint32(len(s.doc.Images))
	s.doc.Images = append(s.doc.Images, &gltf.Image{
		MimeType:   "image/png",
		BufferView: gltf.Index(bv),
	})
	texIdx := uint32(len(s.doc.Textures))
	s.doc.Textures = append(s.doc.Textures, &gltf.Texture{Source: gltf.Index(imgIdx)})
	return texIdx, nil
}

func (s *Sink) CreateMaterial(desc scene.MaterialDesc) (scene.MaterialHandle, error) {
	m := &gltf.Material{
		Name:                 desc.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
		DoubleSided:          desc.DoubleSided,
	}
	if desc.Transparent {
		m.AlphaMode = gltf.AlphaBlend
	} else if desc.AlphaTestThreshold > 0 {
		m.AlphaMode = gltf.AlphaMask
		cutoff := desc.AlphaTestThreshold
		m.AlphaCutoff = &cutoff
	}
	if desc.HasLightMap {
		m.Extras = map[string]interface{}{"lightMapIntensity": desc.LightMapIntensity}
	}
	if desc.AdditiveBlending {
		if m.Extras == nil {
			m.Extras = map[string]interface{}{}
		}
		m.Extras.(map[string]interface{})["additiveBlending"] = true
	}
	if desc.NoEdge {
		if m.Extras == nil {
			m.Extras = map[string]interface{}{}
		}
		m.Extras.(map[string]interface{})["noEdge"] = true
	}
	if desc.HasEdgeColor {
		if m.Extras == nil {
			m.Extras = map[string]interface{}{}
		}
		extras := m.Extras.(map[string]interface{})
		extras["edgeColor"] = [3]float32{desc.EdgeColor.X, desc.EdgeColor.Y, desc.EdgeColor.Z}
		extras["edgeSize"] = desc.EdgeSize
	}

	idx := uint32(len(s.doc.Materials))
	s.doc.Materials = append(s.doc.Materials, m)
	s.materialState[idx] = materialFlags{colorRole: desc.ColorRole}
	return idx, nil
}

func (s *Sink) SetMaterialTexture(mat scene.MaterialHandle, role string, tex scene.TextureHandle) {
	matIdx := mat.(uint32)
	texIdx := tex.(uint32)
	m := s.doc.Materials[matIdx]

	switch role {
	case scene.RoleMap, scene.RoleMatcap:
		m.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: texIdx}
	case scene.RoleNormalMap:
		m.NormalTexture = &gltf.NormalTexture{Index: texIdx}
	case scene.RoleLightMap:
		if m.Extras == nil {
			m.Extras = map[string]interface{}{}
		}
		m.Extras.(map[string]interface{})["lightMapTexture"] = texIdx
	case scene.RoleAlphaMap:
		if m.Extras == nil {
			m.Extras = map[string]interface{}{}
		}
		m.Extras.(map[string]interface{})["alphaMapTexture"] = texIdx
	}
}

func (s *Sink) SetMaterialUVOffset(mat scene.MaterialHandle, offset [2]float32) {
	matIdx := mat.(uint32)
	m := s.doc.Materials[matIdx]
	if m.Extras == nil {
		m.Extras = map[string]interface{}{}
	}
	m.Extras.(map[string]interface{})["uvOffset"] = offset
}

func (s *Sink) CreateGeometry(desc scene.GeometryDesc) (scene.GeometryHandle, error) {
	mesh := &gltf.Mesh{}

	for _, grp := range desc.Groups {
		prim := &gltf.Primitive{
			Attributes: make(map[string]uint32),
			Mode:       gltf.PrimitiveTriangles,
		}
		lo, hi := grp.Start, grp.Start+grp.Count

		prim.Attributes[gltf.POSITION] = modeler.WritePosition(s.doc, toVec3(desc.Positions, lo, hi))
		if len(desc.Normals) > 0 {
			prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(s.doc, toVec3(desc.Normals, lo, hi))
		}
		if len(desc.UVs) > 0 {
			prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(s.doc, toVec2(desc.UVs, lo, hi))
		}
		if len(desc.UV2s) > 0 {
			prim.Attributes[gltf.TEXCOORD_1] = modeler.WriteTextureCoord(s.doc, toVec2(desc.UV2s, lo, hi))
		}
		if len(desc.Colors) > 0 {
			prim.Attributes[gltf.COLOR_0] = modeler.WriteColor(s.doc, toVec4(desc.Colors, lo, hi))
		}
		if desc.HasSkin && len(desc.SkinIndices) > 0 {
			prim.Attributes[gltf.JOINTS_0] = modeler.WriteJoints(s.doc, toJoints4(desc.SkinIndices, lo, hi))
			prim.Attributes[gltf.WEIGHTS_0] = modeler.WriteWeights(s.doc, toVec4(desc.SkinWeights, lo, hi))
		}
		mesh.Primitives = append(mesh.Primitives, prim)
	}

	idx := uint32(len(s.doc.Meshes))
	s.doc.Meshes = append(s.doc.Meshes, mesh)
	return idx, nil
}

func (s *Sink) CreateSkinnedMesh(geom scene.GeometryHandle, mats []scene.MaterialHandle, skel *scene.Skeleton) (scene.MeshHandle, error) {
	meshIdx := geom.(uint32)
	prims := s.doc.Meshes[meshIdx].Primitives
	for i, p := range prims {
		if i >= len(mats) {
			break
		}
		if matIdx, ok := mats[i].(uint32); ok {
			m := matIdx
			p.Material = &m
		}
	}

	node := &gltf.Node{Mesh: gltf.Index(meshIdx)}

	if skel != nil {
		skinIdx, jointNodes := s.buildSkin(skel)
		node.Skin = gltf.Index(skinIdx)
		s.doc.Nodes = append(s.doc.Nodes, jointNodes...)
	}

	nodeIdx := uint32(len(s.doc.Nodes))
	s.doc.Nodes = append(s.doc.Nodes, node)
	s.doc.Scenes[0].Nodes = append(s.doc.Scenes[0].Nodes, nodeIdx)

	return nodeIdx, nil
}

// buildSkin emits one glTF node per joint (parented per the skeleton's
// bind-pose hierarchy) plus a Skin referencing them and their inverse
// bind matrices, returning the new skin's index. The caller still owns
// appending the returned joint nodes to the document.
func (s *Sink) buildSkin(skel *scene.Skeleton) (uint32, []*gltf.Node) {
	base := uint32(len(s.doc.Nodes))
	nodes := make([]*gltf.Node, len(skel.Joints))
	joints := make([]uint32, len(skel.Joints))
	inverses := make([][16]float32, len(skel.Joints))

	for i, j := range skel.Joints {
		nodes[i] = &gltf.Node{
			Name:        j.Name,
			Translation: [3]float32{j.LocalPos.X, j.LocalPos.Y, j.LocalPos.Z},
			Rotation:    [4]float32{j.LocalRot.X, j.LocalRot.Y, j.LocalRot.Z, j.LocalRot.W},
		}
		joints[i] = base + uint32(i)
		inverses[i] = [16]float32(j.InverseBind)
	}
	for i, j := range skel.Joints {
		if j.Parent < 0 {
			continue
		}
		p := nodes[j.Parent]
		p.Children = append(p.Children, base+uint32(i))
	}

	ibmAccessor := modeler.WriteAccessor(s.doc, gltf.TargetNone, inverses)
	skinIdx := uint32(len(s.doc.Skins))
	s.doc.Skins = append(s.doc.Skins, &gltf.Skin{
		Joints:              joints,
		InverseBindMatrices: gltf.Index(ibmAccessor),
	})
	return skinIdx, nodes
}

func (s *Sink) SetBoneLocalPose(mesh scene.MeshHandle, jointIndex int, pos [3]float32, rot [4]float32) {
	nodeIdx, ok := mesh.(uint32)
	if !ok {
		return
	}
	node := s.doc.Nodes[nodeIdx]
	if node.Skin == nil {
		return
	}
	skin := s.doc.Skins[*node.Skin]
	if jointIndex < 0 || jointIndex >= len(skin.Joints) {
		return
	}
	joint := s.doc.Nodes[skin.Joints[jointIndex]]
	joint.Translation = pos
	joint.Rotation = rot
}

func encodePNG(img *qnt.Image) ([]byte, error) {
	rgba := &image.NRGBA{
		Pix:    img.Pixels,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toVec3(flat []float32, lo, hi int) [][3]float32 {
	out := make([][3]float32, hi-lo)
	for i := lo; i < hi; i++ {
		out[i-lo] = [3]float32{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return out
}

func toVec2(flat []float32, lo, hi int) [][2]float32 {
	out := make([][2]float32, hi-lo)
	for i := lo; i < hi; i++ {
		out[i-lo] = [2]float32{flat[i*2], flat[i*2+1]}
	}
	return out
}

func toVec4(flat []float32, lo, hi int) [][4]float32 {
	out := make([][4]float32, hi-lo)
	for i := lo; i < hi; i++ {
		out[i-lo] = [4]float32{flat[i*4], flat[i*4+1], flat[i*4+2], flat[i*4+3]}
	}
	return out
}

func toJoints4(flat []float32, lo, hi int) [][4]uint16 {
	out := make([][4]uint16, hi-lo)
	for i := lo; i < hi; i++ {
		out[i-lo] = [4]uint16{
			uint16(flat[i*4]), uint16(flat[i*4+1]), uint16(flat[i*4+2]), uint16(flat[i*4+3]),
		}
	}
	return out
}
