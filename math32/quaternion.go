// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

// Quaternion is a quaternion with X, Y, Z and W components, used
// throughout this module as a bone/joint rotation.
type Quaternion struct {
	X float32
	Y float32
	Z float32
	W float32
}
