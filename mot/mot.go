// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mot decodes MOT motion files: per-bone sequences of frame
// records (position, rotation quaternion, one opaque auxiliary
// quaternion). Frame 0 of every bone is the T-pose and is excluded
// from playback by the scene package, not here.
package mot

import (
	"github.com/aoi-engine/kaguya/binio"
	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
	"github.com/aoi-engine/kaguya/math32"
)

// Frame is one sampled pose for a bone: position and rotation in the
// module's right-handed meters convention, plus the second, opaque
// quaternion the format carries alongside every frame (AuxRot; see
// the open question on its meaning).
type Frame struct {
	Pos    math32.Vector3
	Rot    math32.Quaternion
	AuxRot math32.Quaternion
}

// BoneMotion is one bone's full frame sequence.
type BoneMotion struct {
	Name   string
	ID     int32
	Parent int32
	Frames []Frame
}

// Mot is a fully decoded motion file.
type Mot struct {
	FrameCount uint32
	Bones      []BoneMotion
}

const magic = "MOT\x00"

// Decode parses a complete MOT file.
func Decode(data []byte) (*Mot, error) {
	c := binio.New(data)

	m, err := c.FourCC()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, kaguyaerr.New(kaguyaerr.BadMagic, "mot.Decode", nil)
	}
	version, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, kaguyaerr.New(kaguyaerr.UnsupportedVersion, "mot.Decode", nil)
	}
	frameCount, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	boneCount, err := c.U32LE()
	if err != nil {
		return nil, err
	}

	mot := &Mot{FrameCount: frameCount}
	mot.Bones = make([]BoneMotion, 0, boneCount)

	for i := uint32(0); i < boneCount; i++ {
		name, err := c.CStr(nil)
		if err != nil {
			return nil, err
		}
		id, err := c.U32LE()
		if err != nil {
			return nil, err
		}
		parent, err := c.U32LE()
		if err != nil {
			return nil, err
		}

		bm := BoneMotion{Name: name, ID: int32(id), Parent: int32(parent)}
		bm.Frames = make([]Frame, 0, frameCount)
		for f := uint32(0); f < frameCount; f++ {
			pos, err := readPosition(c)
			if err != nil {
				return nil, err
			}
			rot, err := readQuaternion(c)
			if err != nil {
				return nil, err
			}
			aux, err := readQuaternion(c)
			if err != nil {
				return nil, err
			}
			bm.Frames = append(bm.Frames, Frame{Pos: pos, Rot: rot, AuxRot: aux})
		}
		mot.Bones = append(mot.Bones, bm)
	}

	return mot, nil
}

// readPosition reads (x, y, -z) scaled by 0.0254 (inches to meters),
// the module-wide coordinate convention applied once, here at the
// parsing layer.
func readPosition(c *binio.Cursor) (math32.Vector3, error) {
	const inchesToMeters = 0.0254
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
