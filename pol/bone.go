// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"github.com/aoi-engine/kaguya/binio"
	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
	"github.com/aoi-engine/kaguya/math32"
)

// Bone is one entry of the flat bone hierarchy. Parent is −1 at the
// root. Names are not guaranteed unique across bones.
type Bone struct {
	Name   string
	ID     int32
	Parent int32
	Pos    math32.Vector3
	RotQ   math32.Quaternion
}

func parseBones(c *binio.Cursor, count uint32) ([]Bone, error) {
	bones := make([]Bone, 0, count)
	ids := make(map[int32]bool, count)
	for i := uint32(0); i < count; i++ {
		name, err := c.CStr(nil)
		if err != nil {
			return nil, err
		}
		id, err := c.I32LE()
		if err != nil {
			return nil, err
		}
		parent, err := c.I32LE()
		if err != nil {
			return nil, err
		}
		pos, err := readPosition(c)
		if err != nil {
			return nil, err
		}
		rotq, err := readQuaternion(c)
		if err != nil {
			return nil, err
		}
		bones = append(bones, Bone{Name: name, ID: id, Parent: parent, Pos: pos, RotQ: rotq})
		ids[id] = true
	}
	for _, b := range bones {
		if b.Parent >= 0 && !ids[b.Parent] {
			return nil, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "pol.parseBones", nil)
		}
	}
	if err := checkAcyclic(bones); err != nil {
		return nil, err
	}
	return bones, nil
}

// checkAcyclic runs a coverage check (BFS from every root) over the
// parent-id hierarchy and fails if any bone is unreachable, which
// happens only when a parent cycle exists (parent ids are validated
// to exist, so an unreachable bone cannot be explained by a dangling
// reference).
func checkAcyclic(bones []Bone) error {
	byID := make(map[int32]int, len(bones))
	for i, b := range bones {
		byID[b.ID] = i
	}
	children := make(map[int32][]int32, len(bones))
	var roots []int32
	for _, b := range bones {
		if b.Parent < 0 {
			roots = append(roots, b.ID)
		} else {
			children[b.Parent] = append(children[b.Parent], b.ID)
		}
	}

	visited := make(map[int32]bool, len(bones))
	queue := append([]int32{}, roots...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		queue = append(queue, children[id]...)
	}

	if len(visited) != len(bones) {
		return kaguyaerr.New(kaguyaerr.CyclicHierarchy, "pol.checkAcyclic", nil)
	}
	return nil
}
