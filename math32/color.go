// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

// Color4 describes an RGBA color.
type Color4 struct {
	R float32
	G float32
	B float32
	A float32
}
