// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

var (
	// ErrInvalidSize is returned when a surface is requested with a
	// non-positive dimension.
	ErrInvalidSize = errors.New("surface: invalid size")

	// ErrTooLarge is returned when a surface would exceed the allocation
	// cap configured with WithMaxPixels.
	ErrTooLarge = errors.New("surface: allocation too large")

	// ErrClosed is returned when a closed surface is used to create another.
	ErrClosed = errors.New("surface: closed")
)

// ContentType says which channels of a surface carry meaning.
type ContentType uint8

const (
	// ContentColor surfaces are opaque; their alpha channel is ignored.
	ContentColor ContentType = iota + 1

	// ContentAlpha surfaces carry only coverage.
	ContentAlpha

	// ContentColorAlpha surfaces carry color and alpha.
	ContentColorAlpha
)

// String returns the content type name.
func (c ContentType) String() string {
	switch c {
	case ContentColor:
		return "color"
	case ContentAlpha:
		return "alpha"
	case ContentColorAlpha:
		return "color+alpha"
	default:
		return "unknown"
	}
}

// HasAlpha reports whether pixels of this content type can be translucent.
func (c ContentType) HasAlpha() bool {
	return c == ContentAlpha || c == ContentColorAlpha
}

// Surface is a rectangle of pixels addressed from (0, 0).
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() image.Point

	// ContentType returns the content type the surface was created with.
	ContentType() ContentType

	// Image exposes the pixels for drawing and reading.
	Image() draw.Image

	// CreateSimilar creates a new surface of the given content type and
	// size that is compatible with this one.
	CreateSimilar(content ContentType, size image.Point) (Surface, error)

	// SensitiveToContentType reports whether surfaces created by
	// CreateSimilar differ depending on the requested content type.
	// When false, callers may ignore content type changes.
	SensitiveToContentType() bool

	// Close releases the surface. Close is idempotent.
	Close() error
}
