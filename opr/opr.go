// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opr parses OPR overlay files: a small Shift-JIS-encoded,
// line-oriented side-channel that annotates POL meshes with rendering
// attributes (blend mode, edge outline, UV scroll).
package opr

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/aoi-engine/kaguya/internal/logx"
	"github.com/aoi-engine/kaguya/math32"
)

// MeshOverlay holds the recognized keys for one Mesh/MeshPart block.
type MeshOverlay struct {
	Name             string
	AdditiveBlending bool
	NoEdge           bool
	EdgeColor        *math32.Vector3
	EdgeSize         float32
	HasUVScroll      bool
	UVScroll         math32.Vector2
}

// Overlay maps mesh name to its parsed attributes.
type Overlay struct {
	Meshes map[string]*MeshOverlay
}

// Decode parses a Shift-JIS OPR text file.
func Decode(data []byte) (*Overlay, error) {
	r := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	scanner := bufio.NewScanner(r)

	ov := &Overlay{Meshes: make(map[string]*MeshOverlay)}
	var current *MeshOverlay

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		switch key {
		case "Mesh", "MeshPart":
			name := unquote(value)
			m := &MeshOverlay{Name: name}
			ov.Meshes[name] = m
			current = m
			continue
		}

		if current == nil {
			// A key before any Mesh/MeshPart header has nothing to
			// attach to.
			continue
		}

		switch key {
		case "BlendMode":
			if value == "Add" {
				current.AdditiveBlending = true
			}
		case "Edge":
			if value == "0" {
				current.NoEdge = true
			}
		case "EdgeColor":
			c, err := parseVec3Paren(value)
			if err != nil {
				logx.Warn("opr: bad EdgeColor %q for mesh %q", value, current.Name)
				continue
			}
			current.EdgeColor = &c
		case "EdgeSize":
			f, err := strconv.ParseFloat(value, 32)
			if err != nil {
				logx.Warn("opr: bad EdgeSize %q for mesh %q", value, current.Name)
				continue
			}
			current.EdgeSize = float32(f)
		case "UVScroll":
			uv, err := parseVec2Paren(value)
			if err != nil {
				logx.Warn("opr: bad UVScroll %q for mesh %q", value, current.Name)
				continue
			}
			current.HasUVScroll = true
			current.UVScroll = uv
		default:
			logx.Warn("opr: unknown key %q", key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ov, nil
}

// splitKeyValue splits "Key = value" into ("Key", "value").
func splitKeyValue(line string) (key, value string, ok bool) {
	i := strings.Index(line, "=")
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	value = strings.TrimSpace(line[i+1:])
	return key, value, true
}

func unquote(s string) string {
	return strings.Trim(s, "\"")
}

// parseVec3Paren parses "(r,g,b)" into a Vector3.
func parseVec3Paren(s string) (math32.Vector3, error) {
	nums, err := parseParenNumbers(s, 3)
	if err != nil {
		return math32.Vector3{}, err
	}
	return math32.Vector3{X: nums[0], Y: nums[1], Z: nums[2]}, nil
}

// parseVec2Paren parses "(u,v)" into a Vector2.
func parseVec2Paren(s string) (math32.Vector2, error) {
	nums, err := parseParenNumbers(s, 2)
	if err != nil {
		return math32.Vector2{}, err
	}
	return math32.Vector2{X: nums[0], Y: nums[1]}, nil
}

func parseParenNumbers(s string, n int) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	out := make([]float32, 0, n)
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		out = append(out, float32(f))
	}
	for len(out) < n {
		out = append(out, 0)
	}
	return out, nil
}
