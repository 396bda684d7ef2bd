// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"sort"

	"github.com/aoi-engine/kaguya/binio"
	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
	"github.com/aoi-engine/kaguya/internal/logx"
	"github.com/aoi-engine/kaguya/math32"
)

const inchesToMeters = 0.0254

// BoneWeight is one skinning influence on a vertex.
type BoneWeight struct {
	Bone   uint32
	Weight float32
}

// Vertex is a mesh control point with its skinning weights, sorted by
// descending weight.
type Vertex struct {
	Pos     math32.Vector3
	Weights []BoneWeight
}

// Triangle is one face's per-corner attribute indices plus per-face
// normals and the submaterial selector.
type Triangle struct {
	VertIndex        [3]uint32
	UVIndex          [3]uint32
	LightUVIndex     [3]uint32
	HasLightUV       bool
	ColorIndex       [3]uint32
	AlphaIndex       [3]uint32
	HasAlphaIndex    bool
	Normals          [3]math32.Vector3
	SubmaterialIndex uint32
}

// Mesh is a fully parsed POL mesh record.
type Mesh struct {
	IsNull        bool
	Name          string
	Attrs         Attrs
	MaterialIndex int32
	Vertices      []Vertex
	UVs           []math32.Vector2
	LightUVs      []math32.Vector2
	Colors        []math32.Vector3
	Alphas        []float32
	Triangles     []Triangle
}

// parseMeshes reads nr_meshes mesh records.
func parseMeshes(c *binio.Cursor, count uint32, version uint32, materials []*Material, nrTopMaterials uint32) ([]Mesh, error) {
	meshes := make([]Mesh, 0, count)
	for i := uint32(0); i < count; i++ {
		m, err := parseMesh(c, version, materials, nrTopMaterials)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

func parseMesh(c *binio.Cursor, version uint32, materials []*Material, nrTopMaterials uint32) (Mesh, error) {
	typ, err := c.I32LE()
	if err != nil {
		return Mesh{}, err
	}
	switch typ {
	case -1:
		return Mesh{IsNull: true}, nil
	case 0:
		// present; fall through
	default:
		return Mesh{}, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "pol.parseMesh", nil)
	}

	name, err := c.CStr(nil)
	if err != nil {
		return Mesh{}, err
	}
	mesh := Mesh{Name: name, Attrs: parseAttrs(name)}

	material, err := c.I32LE()
	if err != nil {
		return Mesh{}, err
	}
	if material < -1 || material >= int32(nrTopMaterials) {
		return Mesh{}, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "pol.parseMesh", nil)
	}
	mesh.MaterialIndex = material

	nrVertices, err := c.U32LE()
	if err != nil {
		return Mesh{}, err
	}
	mesh.Vertices = make([]Vertex, 0, nrVertices)
	for i := uint32(0); i < nrVertices; i++ {
		v, err := parseVertex(c, version)
		if err != nil {
			return Mesh{}, err
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	nrUVs, err := c.U32LE()
	if err != nil {
		return Mesh{}, err
	}
	mesh.UVs = make([]math32.Vector2, 0, nrUVs)
	for i := uint32(0); i < nrUVs; i++ {
		u, err := c.F32LE()
		if err != nil {
			return Mesh{}, err
		}
		v, err := c.F32LE()
		if err != nil {
			return Mesh{}, err
		}
		mesh.UVs = append(mesh.UVs, math32.Vector2{X: u, Y: -v})
	}

	nrLightUVs, err := c.U32LE()
	if err != nil {
		return Mesh{}, err
	}
	if nrLightUVs > 0 {
		mesh.LightUVs = make([]math32.Vector2, 0, nrLightUVs)
		for i := uint32(0); i < nrLightUVs; i++ {
			u, err := c.F32LE()
			if err != nil {
				return Mesh{}, err
			}
			v, err := c.F32LE()
			if err != nil {
				return Mesh{}, err
			}
			mesh.LightUVs = append(mesh.LightUVs, math32.Vector2{X: u, Y: -v})
		}
	}

	nrColors, err := c.U32LE()
	if err != nil {
		return Mesh{}, err
	}
	mesh.Colors = make([]math32.Vector3, 0, nrColors)
	for i := uint32(0); i < nrColors; i++ {
		col, err := parseColor(c, version, name)
		if err != nil {
			return Mesh{}, err
		}
		mesh.Colors = append(mesh.Colors, col)
	}

	var nrAlphas uint32
	if version == 2 {
		nrAlphas, err = c.U32LE()
		if err != nil {
			return Mesh{}, err
		}
		mesh.Alphas = make([]float32, 0, nrAlphas)
		for i := uint32(0); i < nrAlphas; i++ {
			b, err := c.U8()
			if err != nil {
				return Mesh{}, err
			}
			mesh.Alphas = append(mesh.Alphas, float32(b)/255)
		}
	}

	nrTriangles, err := c.U32LE()
	if err != nil {
		return Mesh{}, err
	}
	mesh.Triangles = make([]Triangle, 0, nrTriangles)

	childCount := submaterialChildCount(materials, material)

	for i := uint32(0); i < nrTriangles; i++ {
		tri, err := parseTriangle(c, nrUVs, nrLightUVs, nrColors, nrAlphas, uint32(len(mesh.Vertices)), childCount)
		if err != nil {
			return Mesh{}, err
		}
		mesh.Triangles = append(mesh.Triangles, tri)
	}

	if version == 1 {
		footerA, err := c.U32LE()
		if err != nil {
			return Mesh{}, err
		}
		footerB, err := c.U32LE()
		if err != nil {
			return Mesh{}, err
		}
		if footerA != 1 || footerB != 0 {
			return Mesh{}, kaguyaerr.New(kaguyaerr.UnexpectedFooter, "pol.parseMesh", nil)
		}
	}

	return mesh, nil
}

func parseVertex(c *binio.Cursor, version uint32) (Vertex, error) {
	pos, err := readPosition(c)
	if err != nil {
		return Vertex{}, err
	}
	v := Vertex{Pos: pos}

	var nrWeights uint32
	if version == 1 {
		n, err := c.U32LE()
		if err != nil {
			return Vertex{}, err
		}
		nrWeights = n
	} else {
		n, err := c.U16LE()
		if err != nil {
			return Vertex{}, err
		}
		nrWeights = uint32(n)
	}

	v.Weights = make([]BoneWeight, 0, nrWeights)
	for i := uint32(0); i < nrWeights; i++ {
		var bone uint32
		if version == 1 {
			b, err := c.U32LE()
			if err != nil {
				return Vertex{}, err
			}
			bone = b
		} else {
			b, err := c.U16LE()
			if err != nil {
				return Vertex{}, err
			}
			bone = uint32(b)
		}
		w, err := c.F32LE()
		if err != nil {
			return Vertex{}, err
		}
		v.Weights = append(v.Weights, BoneWeight{Bone: bone, Weight: w})
	}
	sort.SliceStable(v.Weights, func(i, j int) bool { return v.Weights[i].Weight > v.Weights[j].Weight })
	return v, nil
}

func parseColor(c *binio.Cursor, version uint32, meshName string) (math32.Vector3, error) {
	if version == 1 {
		r, err := c.F32LE()
		if err != nil {
			return math32.Vector3{}, err
		}
		g, err := c.F32LE()
		if err != nil {
			return math32.Vector3{}, err
		}
		b, err := c.F32LE()
		if err != nil {
			return math32.Vector3{}, err
		}
		return math32.Vector3{X: r, Y: g, Z: b}, nil
	}
	r, err := c.U8()
	if err != nil {
		return math32.Vector3{}, err
	}
	g, err := c.U8()
	if err != nil {
		return math32.Vector3{}, err
	}
	b, err := c.U8()
	if err != nil {
		return math32.Vector3{}, err
	}
	a, err := c.U8()
	if err != nil {
		return math32.Vector3{}, err
	}
	if a != 255 {
		logx.Warn("pol: non-opaque vertex color alpha %d on mesh %q", a, meshName)
	}
	return math32.Vector3{X: float32(r) / 255, Y: float32(g) / 255, Z: float32(b) / 255}, nil
}

// parseTriangle reads one triangle's indices and per-face normals.
func parseTriangle(c *binio.Cursor, nrUVs, nrLightUVs, nrColors, nrAlphas, nrVertices uint32, childCount int) (Triangle, error) {
	var tri Triangle

	for i := 0; i < 3; i++ {
		idx, err := c.U32LE()
		if err != nil {
			return Triangle{}, err
		}
		if idx >= nrVertices {
			return Triangle{}, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "pol.parseTriangle", nil)
		}
		tri.VertIndex[i] = idx
	}
	for i := 0; i < 3; i++ {
		idx, err := c.U32LE()
		if err != nil {
			return Triangle{}, err
		}
		if idx >= nrUVs {
			return Triangle{}, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "pol.parseTriangle", nil)
		}
		tri.UVIndex[i] = idx
	}
	if nrLightUVs > 0 {
		tri.HasLightUV = true
		for i := 0; i < 3; i++ {
			idx, err := c.U32LE()
			if err != nil {
				return Triangle{}, err
			}
			adjusted := idx - nrUVs
			if idx < nrUVs || adjusted >= nrLightUVs {
				return Triangle{}, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "pol.parseTriangle", nil)
			}
			tri.LightUVIndex[i] = adjusted
		}
	}
	for i := 0; i < 3; i++ {
		idx, err := c.U32LE()
		if err != nil {
			return Triangle{}, err
		}
		if nrColors > 0 && idx >= nrColors {
			return Triangle{}, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "pol.parseTriangle", nil)
		}
		tri.ColorIndex[i] = idx
	}
	if nrAlphas > 0 {
		tri.HasAlphaIndex = true
		for i := 0; i < 3; i++ {
			idx, err := c.U32LE()
			if err != nil {
				return Triangle{}, err
			}
			if idx >= nrAlphas {
				return Triangle{}, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "pol.parseTriangle", nil)
			}
			tri.AlphaIndex[i] = idx
		}
	}
	for i := 0; i < 3; i++ {
		n, err := readDirection(c)
		if err != nil {
			return Triangle{}, err
		}
		tri.Normals[i] = n
	}

	sub, err := c.U32LE()
	if err != nil {
		return Triangle{}, err
	}
	if sub != 0 && int(sub) >= childCount {
		logx.Warn("pol: submaterial_index %d exceeds child count %d, clamping to 0", sub, childCount)
		sub = 0
	}
	tri.SubmaterialIndex = sub

	return tri, nil
}

// submaterialChildCount resolves material's child count, 0 if
// material has no children (or material is -1: no material at all).
func submaterialChildCount(materials []*Material, material int32) int {
	if material < 0 || int(material) >= len(materials) {
		return 0
	}
	return len(materials[material].Children)
}

// readPosition reads (x, y, -z) scaled from inches to meters.
func readPosition(c *binio.Cursor) (math32.Vector3, error) {
	x, err := c.F32LE()
	if err != nil {
		return math32.Vector3{}, err
	}
	y, err := c.F32LE()
	if err != nil {
		return math32.Vector3{}, err
	}
	z, err := c.F32LE()
	if err != nil {
		return math32.Vector3{}, err
	}
	return math32.Vector3{X: x * inchesToMeters, Y: y * inchesToMeters, Z: -z * inchesToMeters}, nil
}

// readDirection reads (x, y, -z) without scale, for normals.
func readDirection(c *binio.Cursor) (math32.Vector3, error) {
	x, err := c.F32LE()
	if err != nil {
		return math32.Vector3{}, err
	}
	y, err := c.F32LE()
	if err != nil {
		return math32.Vector3{}, err
	}
	z, err := c.F32LE()
	if err != nil {
		return math32.Vector3{}, err
	}
	return math32.Vector3{X: x, Y: y, Z: -z}, nil
}

// readQuaternion reads (w, -x, -y, z).
func readQuaternion(c *binio.Cursor) (math32.Quaternion, error) {
	w, err := c.F32LE()
	if err != nil {
		return math32.Quaternion{}, err
	}
	x, err := c.F32LE()
	if err != nil {
		return math32.Quaternion{}, err
	}
	y, err := c.F32LE()
	if err != nil {
		return math32.Quaternion{}, err
	}
	z, err := c.F32LE()
	if err != nil {
		return math32.Quaternion{}, err
	}
	return math32.Quaternion{W: w, X: -x, Y: -y, Z: z}, nil
}
