// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package basic

import "github.com/gogpu/layers/surface"

// Option configures a LayerManager.
type Option func(*options)

type options struct {
	reference surface.Surface
}

// WithReferenceSurface sets the surface that thebes layer buffers are
// created from with CreateSimilar. Its options, such as the pixel cap,
// apply to every buffer. The default is an unrestricted image surface.
func WithReferenceSurface(s surface.Surface) Option {
	return func(o *options) {
		o.reference = s
	}
}
