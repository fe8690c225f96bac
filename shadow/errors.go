// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

import "errors"

var (
	// ErrNoAllocator is returned when neither a platform allocator nor
	// shared memory could provide a buffer pair.
	ErrNoAllocator = errors.New("shadow: no allocator could provide the buffers")

	// ErrDeclined is returned by a platform allocator that does not handle
	// the request; the next allocator is tried.
	ErrDeclined = errors.New("shadow: allocator declined")

	// ErrUnsupportedFormat is returned for descriptors in a pixel format
	// other than PixelFormat.
	ErrUnsupportedFormat = errors.New("shadow: unsupported descriptor format")

	// ErrBadDescriptor is returned for descriptors whose memory cannot hold
	// their surface.
	ErrBadDescriptor = errors.New("shadow: bad descriptor")

	// ErrUnknownLayer is returned by Manager.Update for edits naming a layer
	// that was never created.
	ErrUnknownLayer = errors.New("shadow: unknown layer")

	// ErrDuplicateLayer is returned by Manager.Update when a layer id is
	// created twice.
	ErrDuplicateLayer = errors.New("shadow: layer already exists")

	// ErrWrongKind is returned when an edit does not apply to the kind of
	// the layer it names.
	ErrWrongKind = errors.New("shadow: edit does not apply to layer kind")

	// ErrNoFrontBuffer is returned when a paint edit reaches a layer that
	// has no front buffer to swap.
	ErrNoFrontBuffer = errors.New("shadow: layer has no front buffer")

	// ErrClosed is returned by channels used after Close.
	ErrClosed = errors.New("shadow: channel closed")
)
