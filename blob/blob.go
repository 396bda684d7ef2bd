// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package blob implements scene.BlobSource over a plain directory tree
// (FilesLoader) and over an AAR archive (ArchiveLoader). Both share
// the same texture-animation frame-set resolution convention: a base
// name "tex" resolves to "tex.qnt", "tex_1.qnt", "tex_2.qnt", ...
// stopping at the first gap.
package blob

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
	"github.com/aoi-engine/kaguya/qnt"
)

// resolver is the minimal byte-access surface both loaders provide;
// loadImageList is written once against it.
type resolver struct {
	exists func(name string) bool
	load   func(name string) ([]byte, error)
}

func (r resolver) loadImage(name string) (*qnt.Image, error) {
	data, err := r.load(name)
	if err != nil {
		return nil, err
	}
	return qnt.Decode(data)
}

func (r resolver) loadImageList(base string) ([]*qnt.Image, error) {
	first := base + ".qnt"
	if !r.exists(first) {
		return nil, kaguyaerr.New(kaguyaerr.NotFound, "blob.LoadImageList", nil)
	}
	img, err := r.loadImage(first)
	if err != nil {
		return nil, err
	}
	frames := []*qnt.Image{img}

	for i := 1; ; i++ {
		name := fmt.Sprintf("%s_%d.qnt", base, i)
		if !r.exists(name) {
			break
		}
		img, err := r.loadImage(name)
		if err != nil {
			return nil, err
		}
		frames = append(frames, img)
	}
	return frames, nil
}

// loadTxa parses a texture-animation table: ASCII integers, one per
// line, blank lines ignored. Malformed lines are a decode error.
func (r resolver) loadTxa(name string) ([]int, error) {
	data, err := r.load(name)
	if err != nil {
		return nil, err
	}
	var out []int
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return nil, kaguyaerr.New(kaguyaerr.Truncated, "blob.LoadTxa", err)
		}
		out = append(out, v)
	}
	return out, nil
}
