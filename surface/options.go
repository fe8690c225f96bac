// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

// Option configures an ImageSurface during creation.
type Option func(*options)

type options struct {
	sensitive bool
	maxPixels int
}

func defaultOptions() options {
	return options{
		sensitive: true,
	}
}

// WithContentSensitive sets whether surfaces created from this one depend on
// the requested content type. Defaults to true.
func WithContentSensitive(sensitive bool) Option {
	return func(o *options) {
		o.sensitive = sensitive
	}
}

// WithMaxPixels caps the area of this surface and of every surface created
// from it with CreateSimilar. Zero means no cap.
func WithMaxPixels(n int) Option {
	return func(o *options) {
		o.maxPixels = n
	}
}
