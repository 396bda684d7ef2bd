// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

// Registry tracks every resource the builder hands to a Sink so that
// Dispose can release them in the order they were created. It is the
// sole required teardown path; there are no finalizers.
type Registry struct {
	disposers []func()
}

// Track registers a disposer to run, in order, during Dispose.
func (r *Registry) Track(dispose func()) {
	r.disposers = append(r.disposers, dispose)
}

// Dispose runs every tracked disposer in insertion order, once.
func (r *Registry) Dispose() {
	for _, d := range r.disposers {
		d()
	}
	r.disposers = nil
}
