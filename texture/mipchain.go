// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texture builds mip chains for decoded QNT images. Glyph
// fonts, GPU upload, and runtime texture units are out of scope here
// (the teacher's texture package does those against gls.GLS, which
// this module has no equivalent of); this package is purely the
// image-pyramid math a Sink needs before it uploads anything.
package texture

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/aoi-engine/kaguya/qnt"
)

// MipChain is a sequence of progressively halved RGBA8 images, level 0
// being the full-resolution source.
type MipChain struct {
	Levels []*qnt.Image
}

// BuildMipChain generates levels by halving width and height
// (bilinear-filtered, a dimension already at 1 staying at 1) until
// both dimensions reach 1, mirroring the
// conventional full mip pyramid a GPU texture sampler expects.
func BuildMipChain(src *qnt.Image) *MipChain {
	mc := &MipChain{Levels: []*qnt.Image{src}}

	cur := src
	for cur.Width > 1 || cur.Height > 1 {
		next := halve(cur)
		mc.Levels = append(mc.Levels, next)
		cur = next
	}
	return mc
}

func halve(img *qnt.Image) *qnt.Image {
	w := img.Width / 2
	if w < 1 {
		w = 1
	}
	h := img.Height / 2
	if h < 1 {
		h = 1
	}

	src := toNRGBA(img)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return &qnt.Image{Width: w, Height: h, Pixels: dst.Pix, HasAlpha: img.HasAlpha}
}

func toNRGBA(img *qnt.Image) *image.NRGBA {
	n := &image.NRGBA{
		Pix:    img.Pixels,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
	return n
}

// Resample scales src to exactly (w, h) using bilinear filtering,
// independent of mip-chain halving (used when a Sink needs a
// non-power-of-two atlas slot).
func Resample(src *qnt.Image, w, h int) *qnt.Image {
	s := toNRGBA(src)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), s, s.Bounds(), draw.Over, nil)
	return &qnt.Image{Width: w, Height: h, Pixels: dst.Pix, HasAlpha: src.HasAlpha}
}
