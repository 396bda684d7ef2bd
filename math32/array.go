// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

// ArrayF32 is a slice of float32 with convenience methods for
// appending interleaved vertex attribute data.
type ArrayF32 []float32

// Append appends any number of values to the array.
func (a *ArrayF32) Append(v ...float32) {
	*a = append(*a, v...)
}

// AppendVector2 appends any number of Vector2 to the array.
func (a *ArrayF32) AppendVector2(v ...*Vector2) {
	for i := 0; i < len(v); i++ {
		*a = append(*a, v[i].X, v[i].Y)
	}
}

// AppendVector3 appends any number of Vector3 to the array.
func (a *ArrayF32) AppendVector3(v ...*Vector3) {
	for i := 0; i < len(v); i++ {
		*a = append(*a, v[i].X, v[i].Y, v[i].Z)
	}
}

// AppendColor4 appends any number of Color4 to the array.
func (a *ArrayF32) AppendColor4(v ...*Color4) {
	for i := 0; i < len(v); i++ {
		*a = append(*a, v[i].R, v[i].G, v[i].B, v[i].A)
	}
}
