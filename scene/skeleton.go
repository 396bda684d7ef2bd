// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
	"github.com/aoi-engine/kaguya/internal/logx"
	"github.com/aoi-engine/kaguya/math32"
	"github.com/aoi-engine/kaguya/pol"
)

// Joint is one bind-pose node of the skeleton: a local transform
// (position + rotation) composed from its POL bone, plus the inverse
// of its bind-pose world matrix used for skinning.
type Joint struct {
	Name        string
	ID          int32
	Parent      int // index into Skeleton.Joints, -1 at the root
	LocalPos    math32.Vector3
	LocalRot    math32.Quaternion
	InverseBind math32.Matrix4
}

// JointRefKind tags the outcome of resolving a joint by name or id.
type JointRefKind int

const (
	RefByID JointRefKind = iota
	RefByName
	RefAmbiguous
)

// JointRef is the result of looking up a joint: either a resolved
// index (found by id or by a unique name), or Ambiguous when a name
// matches more than one joint and the caller must not guess.
type JointRef struct {
	Kind  JointRefKind
	Index int
}

// Skeleton is the bind-pose joint hierarchy built from a POL bone
// list, plus the two independent lookup dictionaries motion
// application needs (by id, by name with a non-unique sentinel).
type Skeleton struct {
	Joints []Joint
	byID   map[int32]int
	byName map[string]JointRef
}

// BuildSkeleton composes each bone's local transform, computes its
// inverse bind matrix, and establishes parent/lookup structures. Bone
// order is preserved as insertion order (POL order).
func BuildSkeleton(bones []pol.Bone) (*Skeleton, error) {
	sk := &Skeleton{
		Joints: make([]Joint, len(bones)),
		byID:   make(map[int32]int, len(bones)),
		byName: make(map[string]JointRef, len(bones)),
	}

	idToIndex := make(map[int32]int, len(bones))
	for i, b := range bones {
		idToIndex[b.ID] = i
	}

	for i, b := range bones {
		parentIdx := -1
		if b.Parent >= 0 {
			idx, ok := idToIndex[b.Parent]
			if !ok {
				return nil, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "scene.BuildSkeleton", nil)
			}
			parentIdx = idx
		}
		sk.Joints[i] = Joint{
			Name:     b.Name,
			ID:       b.ID,
			Parent:   parentIdx,
			LocalPos: b.Pos,
			LocalRot: b.RotQ,
		}
		sk.byID[b.ID] = i

		if existing, dup := sk.byName[b.Name]; dup {
			existing.Kind = RefAmbiguous
			sk.byName[b.Name] = existing
		} else {
			sk.byName[b.Name] = JointRef{Kind: RefByName, Index: i}
		}
	}

	worlds := make([]*math32.Matrix4, len(bones))
	for i := range sk.Joints {
		m := sk.worldMatrix(i, worlds)
		var inv math32.Matrix4
		if err := inv.GetInverse(m); err != nil {
			logx.Warn("scene: joint %q has a non-invertible bind matrix, using identity", sk.Joints[i].Name)
			inv = *math32.NewMatrix4()
		}
		sk.Joints[i].InverseBind = inv
	}

	return sk, nil
}

// worldMatrix composes joint i's world transform from its local
// transform and its already-computed parent, memoizing into worlds.
// Recursive rather than relying on array order, since POL does not
// guarantee a parent is listed before its children.
func (sk *Skeleton) worldMatrix(i int, worlds []*math32.Matrix4) *math32.Matrix4 {
	if worlds[i] != nil {
		return worlds[i]
	}
	j := sk.Joints[i]
	// The local transform is translate(rotate(pos, rot)) then rotate(rot):
	// the bone's own position is itself rotated by its quaternion before it
	// becomes the translation column, not passed through untouched.
	translation := j.LocalPos
	translation.ApplyQuaternion(&j.LocalRot)
	local := math32.NewMatrix4()
	local.Compose(&translation, &j.LocalRot, math32.NewVector3(1, 1, 1))

	if j.Parent < 0 {
		worlds[i] = local
		return local
	}
	parentWorld := sk.worldMatrix(j.Parent, worlds)
	out := math32.NewMatrix4()
	out.MultiplyMatrices(parentWorld, local)
	worlds[i] = out
	return out
}

// Resolve looks up a joint by name first (an Ambiguous name is
// treated as a miss, per the bone-identification convention), falling
// back to id.
func (sk *Skeleton) Resolve(name string, id int32) (JointRef, bool) {
	if ref, ok := sk.byName[name]; ok && ref.Kind != RefAmbiguous {
		return ref, true
	}
	if idx, ok := sk.byID[id]; ok {
		return JointRef{Kind: RefByID, Index: idx}, true
	}
	return JointRef{}, false
}

// SetLocalPose overwrites joint i's local position and rotation, used
// each frame by motion application.
func (sk *Skeleton) SetLocalPose(i int, pos math32.Vector3, rot math32.Quaternion) {
	sk.Joints[i].LocalPos = pos
	sk.Joints[i].LocalRot = rot
}
