// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texture

import (
	"testing"

	"github.com/aoi-engine/kaguya/qnt"
)

func solidImage(w, h int, r, g, b, a byte) *qnt.Image {
	px := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		px[i*4], px[i*4+1], px[i*4+2], px[i*4+3] = r, g, b, a
	}
	return &qnt.Image{Width: w, Height: h, Pixels: px}
}

func TestBuildMipChainLevelsHalveToOne(t *testing.T) {
	src := solidImage(8, 4, 10, 20, 30, 255)
	mc := BuildMipChain(src)

	wantDims := [][2]int{{8, 4}, {4, 2}, {2, 1}, {1, 1}}
	if len(mc.Levels) != len(wantDims) {
		t.Fatalf("len(Levels) = %d, want %d", len(mc.Levels), len(wantDims))
	}
	for i, d := range wantDims {
		lvl := mc.Levels[i]
		if lvl.Width != d[0] || lvl.Height != d[1] {
			t.Fatalf("level %d = %dx%d, want %dx%d", i, lvl.Width, lvl.Height, d[0], d[1])
		}
	}
}

func TestBuildMipChainSolidColorStable(t *testing.T) {
	src := solidImage(4, 4, 100, 150, 200, 255)
	mc := BuildMipChain(src)
	last := mc.Levels[len(mc.Levels)-1]
	if last.Width != 1 || last.Height != 1 {
		t.Fatalf("last level = %dx%d, want 1x1", last.Width, last.Height)
	}
	r, g, b := last.Pixels[0], last.Pixels[1], last.Pixels[2]
	if r != 100 || g != 150 || b != 200 {
		t.Fatalf("last level color = (%d,%d,%d), want (100,150,200)", r, g, b)
	}
}

func TestResampleExactDims(t *testing.T) {
	src := solidImage(3, 3, 1, 2, 3, 255)
	out := Resample(src, 6, 2)
	if out.Width != 6 || out.Height != 2 {
		t.Fatalf("dims = %dx%d, want 6x2", out.Width, out.Height)
	}
}
