// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command kaguyaconv batch-converts POL models (with their optional
// MOT/OPR side files) into glTF binaries, driven by a YAML manifest.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/qmuntal/gltf"
	"gopkg.in/yaml.v2"

	"github.com/aoi-engine/kaguya/blob"
	"github.com/aoi-engine/kaguya/internal/logx"
	"github.com/aoi-engine/kaguya/scene"
	"github.com/aoi-engine/kaguya/sink/gltfsink"
)

// Manifest is a batch job: one or more models, each pulled from either
// a plain directory or a single AAR archive.
type Manifest struct {
	Models []ModelJob `yaml:"models"`
}

// ModelJob names one POL model to convert.
type ModelJob struct {
	Name    string `yaml:"name"`
	Source  string `yaml:"source"`  // directory path, or archive file path when Archive is true
	Archive bool   `yaml:"archive"` // true: Source is an .aar file; false: Source is a directory
	Pol     string `yaml:"pol"`     // model name within the source, e.g. "chr\\hero.pol"
	Mot     string `yaml:"mot"`     // optional motion entry name, defaults to Pol's base name + ".mot"
	Opr     string `yaml:"opr"`     // optional overlay entry name, defaults to Pol's base name + ".opr"
	Txa     string `yaml:"txa"`     // optional texture-animation table entry name, defaults to Pol's base name + ".txa"
	Output  string `yaml:"output"`  // destination .glb path
}

func main() {
	manifestPath := flag.String("manifest", "", "path to the YAML batch manifest")
	flag.Parse()

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "usage: kaguyaconv -manifest jobs.yaml")
		os.Exit(2)
	}

	if err := run(*manifestPath); err != nil {
		fmt.Fprintln(os.Stderr, "kaguyaconv:", err)
		os.Exit(1)
	}
}

func run(manifestPath string) error {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return err
	}

	for _, job := range manifest.Models {
		logx.Warn("kaguyaconv: converting %q", job.Name)
		if err := convertOne(job); err != nil {
			return fmt.Errorf("%s: %w", job.Name, err)
		}
	}
	return nil
}

func convertOne(job ModelJob) error {
	src, err := openSource(job)
	if err != nil {
		return err
	}

	out := gltfsink.New()
	opts := scene.BuildOptions{Mot: job.Mot, Opr: job.Opr, Txa: job.Txa}
	builder, err := scene.Build(src, out, job.Pol, opts)
	if err != nil {
		return err
	}
	defer builder.Registry.Dispose()

	// ApplyMotion(0) poses the skeleton with frame index 1 of any
	// loaded motion (SceneBuilder.ApplyMotion skips frame 0, the
	// T-pose), so a static export shows the first animated pose
	// rather than the raw bind pose.
	builder.ApplyMotion(0)

	if err := os.MkdirAll(dirOf(job.Output), 0o755); err != nil {
		return err
	}
	return gltf.SaveBinary(out.Document(), job.Output)
}

func openSource(job ModelJob) (scene.BlobSource, error) {
	if job.Archive {
		data, err := os.ReadFile(job.Source)
		if err != nil {
			return nil, err
		}
		return blob.NewArchiveLoader(data)
	}
	return blob.NewFilesLoader(job.Source)
}

func dirOf(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return p[:i]
		}
	}
	return "."
}
