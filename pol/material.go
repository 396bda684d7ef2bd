// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"strings"

	"github.com/aoi-engine/kaguya/binio"
	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
	"github.com/aoi-engine/kaguya/internal/logx"
)

// TextureRole identifies the slot a material texture fills.
type TextureRole int32

const (
	ColorMap     TextureRole = 1
	SpecularMask TextureRole = 4
	Glare        TextureRole = 5
	AlphaMap     TextureRole = 6
	LightMap     TextureRole = 7
	NormalMap    TextureRole = 8
	HeightMap    TextureRole = 11
)

// Attrs is the set of parenthesised-token flags parsed from a name.
type Attrs struct {
	Alpha        bool
	Env          bool
	Sprite       bool
	Both         bool
	Mirrored     bool
	NoLighting   bool
	NoMakeShadow bool
	Water        bool
}

// parseAttrs scans name for "(token)" runs and sets the matching flags.
func parseAttrs(name string) Attrs {
	var a Attrs
	rest := name
	for {
		start := strings.IndexByte(rest, '(')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start:], ')')
		if end < 0 {
			break
		}
		token := rest[start+1 : start+end]
		switch token {
		case "alpha":
			a.Alpha = true
		case "env":
			a.Env = true
		case "sprite":
			a.Sprite = true
		case "both":
			a.Both = true
		case "mirrored":
			a.Mirrored = true
		case "nolighting":
			a.NoLighting = true
		case "nomakeshadow":
			a.NoMakeShadow = true
		case "water":
			a.Water = true
		}
		rest = rest[start+end+1:]
	}
	return a
}

// Material is one node of the material tree: either carrying textures
// (leaf) or children (top-level submaterial list), never both.
type Material struct {
	Name     string
	Attrs    Attrs
	Textures map[TextureRole]string
	Children []*Material
}

// parseMaterials reads nr_materials top-level material trees.
func parseMaterials(c *binio.Cursor, count uint32) ([]*Material, error) {
	materials := make([]*Material, 0, count)
	for i := uint32(0); i < count; i++ {
		m, err := parseMaterial(c, true)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, nil
}

// parseMaterial reads one material node. canHaveChildren is true only
// for top-level materials; children parsed from within are always
// passed false, enforcing the "children may not nest" invariant by
// construction.
func parseMaterial(c *binio.Cursor, canHaveChildren bool) (*Material, error) {
	name, err := c.CStr(nil)
	if err != nil {
		return nil, err
	}
	m := &Material{Name: name, Attrs: parseAttrs(name), Textures: make(map[TextureRole]string)}

	nrTextures, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nrTextures; i++ {
		filename, err := c.CStr(nil)
		if err != nil {
			return nil, err
		}
		roleVal, err := c.I32LE()
		if err != nil {
			return nil, err
		}
		role := TextureRole(roleVal)
		if !validRole(role) {
			logx.Warn("pol: unknown texture role %d on material %q", roleVal, name)
			continue
		}
		if _, dup := m.Textures[role]; dup {
			return nil, kaguyaerr.New(kaguyaerr.DuplicateTextureRole, "pol.parseMaterial", nil)
		}
		m.Textures[role] = filename
	}
	if len(m.Textures) > 0 {
		if _, ok := m.Textures[ColorMap]; !ok {
			return nil, kaguyaerr.New(kaguyaerr.MissingColorMap, "pol.parseMaterial", nil)
		}
	}

	if canHaveChildren {
		nrChildren, err := c.U32LE()
		if err != nil {
			return nil, err
		}
		if nrChildren > 0 {
			if len(m.Textures) > 0 {
				return nil, kaguyaerr.New(kaguyaerr.MaterialHasBothTexturesAndChildren, "pol.parseMaterial", nil)
			}
			m.Children = make([]*Material, 0, nrChildren)
			for i := uint32(0); i < nrChildren; i++ {
				child, err := parseMaterial(c, false)
				if err != nil {
					return nil, err
				}
				m.Children = append(m.Children, child)
			}
		}
	}

	return m, nil
}

func validRole(r TextureRole) bool {
	switch r {
	case ColorMap, SpecularMask, Glare, AlphaMap, LightMap, NormalMap, HeightMap:
		return true
	default:
		return false
	}
}
