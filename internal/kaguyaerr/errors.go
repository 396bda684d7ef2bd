// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kaguyaerr holds the fatal error taxonomy shared by every
// decoder in this module. A parse error is always fatal to the file
// being parsed; there is no partial-load mode, so every decoder
// returns one of these wrapped in *Error instead of a bare string.
package kaguyaerr

import "fmt"

// Kind classifies a decode failure.
type Kind int

const (
	Truncated Kind = iota
	BadMagic
	UnsupportedVersion
	SizeMismatch
	IndexOutOfRange
	DuplicateTextureRole
	MissingColorMap
	MaterialHasBothTexturesAndChildren
	UnexpectedFooter
	NotImplemented
	DecompressFailed
	OutOfMemory
	CyclicHierarchy
	NotFound
)

var kindNames = [...]string{
	"Truncated",
	"BadMagic",
	"UnsupportedVersion",
	"SizeMismatch",
	"IndexOutOfRange",
	"DuplicateTextureRole",
	"MissingColorMap",
	"MaterialHasBothTexturesAndChildren",
	"UnexpectedFooter",
	"NotImplemented",
	"DecompressFailed",
	"OutOfMemory",
	"CyclicHierarchy",
	"NotFound",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Error is a fatal decode error tagged with a Kind so callers can
// branch on failure category with errors.Is/errors.As.
type Error struct {
	Kind Kind
	Op   string // component/operation that failed, e.g. "qnt.Decode"
	Err  error  // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, kaguyaerr.New(Truncated, "", nil)) style checks work,
// along with the more common errors.As(err, &kerr) extraction.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}
