// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blob

import (
	"github.com/aoi-engine/kaguya/aar"
	"github.com/aoi-engine/kaguya/qnt"
)

// ArchiveLoader reads assets out of a single AAR archive.
type ArchiveLoader struct {
	archive *aar.Archive
}

// NewArchiveLoader opens an AAR archive from its raw bytes.
func NewArchiveLoader(data []byte) (*ArchiveLoader, error) {
	a, err := aar.Open(data)
	if err != nil {
		return nil, err
	}
	return &ArchiveLoader{archive: a}, nil
}

func (al *ArchiveLoader) Exists(name string) bool {
	return al.archive.Exists(name)
}

func (al *ArchiveLoader) Filenames() []string {
	return al.archive.Filenames()
}

func (al *ArchiveLoader) Load(name string) ([]byte, error) {
	return al.archive.Load(name)
}

func (al *ArchiveLoader) LoadImage(name string) (*qnt.Image, error) {
	return al.resolver().loadImage(name)
}

func (al *ArchiveLoader) LoadImageList(base string) ([]*qnt.Image, error) {
	return al.resolver().loadImageList(base)
}

func (al *ArchiveLoader) LoadTxa(name string) ([]int, error) {
	return al.resolver().loadTxa(name)
}

func (al *ArchiveLoader) resolver() resolver {
	return resolver{exists: al.Exists, load: al.Load}
}
