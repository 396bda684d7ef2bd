// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"sort"

	"github.com/aoi-engine/kaguya/math32"
	"github.com/aoi-engine/kaguya/pol"
)

const maxSkinInfluences = 4

// GeometryGroup is one contiguous triangle run sharing a submaterial
// index, in the flattened, submaterial-sorted index buffer. There is
// one group per submaterial even when it has no triangles, so a Sink
// can create one renderable part per child material unconditionally.
type GeometryGroup struct {
	Start int
	Count int
	// MaterialIndex is the submaterial slot (0..childCount-1), the same
	// index CreateSkinnedMesh's mats slice is keyed by — not a global
	// material registry index.
	MaterialIndex int
}

// GeometryDesc is the flattened, interleaved-by-attribute-array vertex
// data passed to Sink.CreateGeometry. Every slice is flat (no stride
// struct): Positions/Normals are 3 floats per corner, UVs/UV2s are 2,
// Colors are 4, SkinIndices/SkinWeights are maxSkinInfluences each.
// There is no shared index buffer: every triangle corner is expanded,
// matching POL's per-triangle-corner indirection (vertex/uv/color/alpha
// indices can each vary independently per corner).
type GeometryDesc struct {
	Positions   math32.ArrayF32
	Normals     math32.ArrayF32
	UVs         math32.ArrayF32
	UV2s        math32.ArrayF32
	Colors      math32.ArrayF32
	SkinIndices math32.ArrayF32
	SkinWeights math32.ArrayF32
	HasSkin     bool
	Groups      []GeometryGroup
}

// buildGeometry flattens one POL mesh into submaterial-grouped flat
// vertex arrays. childCount is the number of children of the mesh's
// material (0 if it has none), and determines the group count: a
// material with no children always produces a single group.
func buildGeometry(mesh *pol.Mesh, childCount int, hasSkeleton bool) *GeometryDesc {
	groupCount := childCount
	if groupCount == 0 {
		groupCount = 1
	}

	order := make([]int, len(mesh.Triangles))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return mesh.Triangles[order[a]].SubmaterialIndex < mesh.Triangles[order[b]].SubmaterialIndex
	})

	g := &GeometryDesc{HasSkin: hasSkeleton}
	groupCounts := make([]int, groupCount)

	// Triangles are already sorted by submaterial index, so each
	// submaterial's corners land in one contiguous run.
	for _, ti := range order {
		tri := &mesh.Triangles[ti]
		for c := 0; c < 3; c++ {
			appendCorner(g, mesh, tri, c, hasSkeleton)
		}
		groupCounts[tri.SubmaterialIndex] += 3
	}

	g.Groups = make([]GeometryGroup, groupCount)
	offset := 0
	for gi := 0; gi < groupCount; gi++ {
		g.Groups[gi] = GeometryGroup{Start: offset, Count: groupCounts[gi], MaterialIndex: gi}
		offset += groupCounts[gi]
	}

	return g
}

func appendCorner(g *GeometryDesc, mesh *pol.Mesh, tri *pol.Triangle, c int, hasSkeleton bool) {
	vi := tri.VertIndex[c]
	v := mesh.Vertices[vi]
	g.Positions.AppendVector3(&v.Pos)
	g.Normals.AppendVector3(&tri.Normals[c])

	uv := mesh.UVs[tri.UVIndex[c]]
	g.UVs.AppendVector2(&uv)

	if len(mesh.LightUVs) > 0 && tri.HasLightUV {
		luv := mesh.LightUVs[tri.LightUVIndex[c]]
		g.UV2s.AppendVector2(&luv)
	} else {
		g.UV2s.Append(0, 0)
	}

	color := math32.Color4{R: 1, G: 1, B: 1, A: 1}
	if len(mesh.Colors) > 0 {
		col := mesh.Colors[tri.ColorIndex[c]]
		color.R, color.G, color.B = col.X, col.Y, col.Z
	}
	if tri.HasAlphaIndex && len(mesh.Alphas) > 0 {
		color.A = mesh.Alphas[tri.AlphaIndex[c]]
	}
	g.Colors.AppendColor4(&color)

	if !hasSkeleton {
		return
	}
	var idx, wt [maxSkinInfluences]float32
	sum := float32(0)
	for i := 0; i < maxSkinInfluences && i < len(v.Weights); i++ {
		idx[i] = float32(v.Weights[i].Bone)
		wt[i] = v.Weights[i].Weight
		sum += v.Weights[i].Weight
	}
	if sum > 0 {
		for i := range wt {
			wt[i] /= sum
		}
	}
	g.SkinIndices.Append(idx[:]...)
	g.SkinWeights.Append(wt[:]...)
}
