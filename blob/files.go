// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blob

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aoi-engine/kaguya/qnt"
)

// FilesLoader reads assets from a plain directory tree. Names passed
// in may use backslash separators, matching archive-entry naming, or
// forward slashes; both are translated to the host path separator on
// access. Filenames reports names with forward slashes.
type FilesLoader struct {
	root  string
	names []string
}

// NewFilesLoader indexes every regular file under root.
func NewFilesLoader(root string) (*FilesLoader, error) {
	fl := &FilesLoader{root: root}
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		fl.names = append(fl.names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fl, nil
}

func (fl *FilesLoader) toHostPath(name string) string {
	return filepath.Join(fl.root, filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
}

func (fl *FilesLoader) Exists(name string) bool {
	_, err := os.Stat(fl.toHostPath(name))
	return err == nil
}

func (fl *FilesLoader) Filenames() []string {
	out := make([]string, len(fl.names))
	copy(out, fl.names)
	return out
}

func (fl *FilesLoader) Load(name string) ([]byte, error) {
	return os.ReadFile(fl.toHostPath(name))
}

func (fl *FilesLoader) LoadImage(name string) (*qnt.Image, error) {
	return fl.resolver().loadImage(name)
}

func (fl *FilesLoader) LoadImageList(base string) ([]*qnt.Image, error) {
	return fl.resolver().loadImageList(base)
}

func (fl *FilesLoader) LoadTxa(name string) ([]int, error) {
	return fl.resolver().loadTxa(name)
}

func (fl *FilesLoader) resolver() resolver {
	return resolver{exists: fl.Exists, load: fl.Load}
}
