// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aar reads AAR archives: an indexed container with optional
// name obfuscation (version 2) and per-entry zlib payloads wrapped in
// a secondary ZLB framing.
package aar

import (
	"strings"

	"github.com/aoi-engine/kaguya/binio"
	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
	"github.com/aoi-engine/kaguya/zlb"
)

// EntryKind classifies how an Entry's bytes must be interpreted.
type EntryKind int

const (
	Raw EntryKind = iota
	Compressed
	Symlink
)

// Entry describes one archive member.
type Entry struct {
	Name          string
	Offset        uint32
	Size          uint32
	Kind          EntryKind
	SymlinkTarget string // v2 only
}

const magic = "AAR\x00"

// Archive is a parsed, read-only AAR directory over an in-memory
// buffer. Entries are looked up case-insensitively.
type Archive struct {
	data    []byte
	version uint32
	entries []Entry
	byName  map[string]int // lowercased name -> index into entries
	order   []string       // original-case names, insertion order
}

// Open parses an AAR archive's 16-byte header and directory.
func Open(data []byte) (*Archive, error) {
	c := binio.New(data)

	m, err := c.FourCC()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, kaguyaerr.New(kaguyaerr.BadMagic, "aar.Open", nil)
	}
	version, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	if version != 0 && version != 2 {
		return nil, kaguyaerr.New(kaguyaerr.UnsupportedVersion, "aar.Open", nil)
	}
	nrEntries, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	firstEntryOffset, err := c.U32LE()
	if err != nil {
		return nil, err
	}

	if err := c.Seek(12); err != nil {
		return nil, err
	}

	var unmask binio.Unmask
	if version == 2 {
		unmask = func(b byte) byte { return b - 0x60 }
	}

	a := &Archive{data: data, version: version}
	a.entries = make([]Entry, 0, nrEntries)
	a.byName = make(map[string]int, nrEntries)
	a.order = make([]string, 0, nrEntries)

	for i := uint32(0); i < nrEntries; i++ {
		if c.Offset() >= int(firstEntryOffset) {
			break
		}
		offset, err := c.U32LE()
		if err != nil {
			return nil, err
		}
		size, err := c.U32LE()
		if err != nil {
			return nil, err
		}
		kindVal, err := c.I32LE()
		if err != nil {
			return nil, err
		}
		name, err := c.CStr(unmask)
		if err != nil {
			return nil, err
		}
		var symTarget string
		if version == 2 {
			symTarget, err = c.CStr(unmask)
			if err != nil {
				return nil, err
			}
		}

		e := Entry{
			Name:          name,
			Offset:        offset,
			Size:          size,
			Kind:          EntryKind(kindVal),
			SymlinkTarget: symTarget,
		}
		idx := len(a.entries)
		a.entries = append(a.entries, e)
		a.byName[strings.ToLower(name)] = idx
		a.order = append(a.order, name)
	}

	return a, nil
}

// Exists reports whether name is present, case-insensitively.
func (a *Archive) Exists(name string) bool {
	_, ok := a.byName[strings.ToLower(name)]
	return ok
}

// Filenames returns original-case names in insertion (directory) order.
func (a *Archive) Filenames() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Load resolves name case-insensitively and returns its decoded bytes.
func (a *Archive) Load(name string) ([]byte, error) {
	idx, ok := a.byName[strings.ToLower(name)]
	if !ok {
		return nil, kaguyaerr.New(kaguyaerr.NotFound, "aar.Load", nil)
	}
	e := a.entries[idx]

	start := int(e.Offset)
	end := start + int(e.Size)
	if start < 0 || end > len(a.data) || end < start {
		return nil, kaguyaerr.New(kaguyaerr.Truncated, "aar.Load", nil)
	}
	raw := a.data[start:end]

	switch e.Kind {
	case Raw:
		return raw, nil
	case Compressed:
		frame, payload, err := zlb.ParseFrame(raw)
		if err != nil {
			return nil, err
		}
		if frame.InSize+16 != int(e.Size) {
			return nil, kaguyaerr.New(kaguyaerr.SizeMismatch, "aar.Load", nil)
		}
		return zlb.Inflate(payload, frame.OutSize)
	case Symlink:
		return nil, kaguyaerr.New(kaguyaerr.NotImplemented, "aar.Load", nil)
	default:
		return nil, kaguyaerr.New(kaguyaerr.NotImplemented, "aar.Load", nil)
	}
}

// Entry returns the directory entry for name, case-insensitively.
func (a *Archive) Entry(name string) (Entry, bool) {
	idx, ok := a.byName[strings.ToLower(name)]
	if !ok {
		return Entry{}, false
	}
	return a.entries[idx], true
}
