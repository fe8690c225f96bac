// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ImageSurface is a CPU surface backed by an *image.RGBA.
//
// Example:
//
//	s, err := surface.NewImageSurface(surface.ContentColorAlpha, 800, 600)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
type ImageSurface struct {
	img     *image.RGBA
	content ContentType
	opts    options

	// closed tracks if Close has been called
	closed bool
}

// NewImageSurface allocates a zeroed surface on the heap.
func NewImageSurface(content ContentType, width, height int, opts ...Option) (*ImageSurface, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.check(width, height); err != nil {
		return nil, err
	}
	return &ImageSurface{
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
		content: content,
		opts:    o,
	}, nil
}

// NewImageSurfaceFromPixels wraps caller-owned pixel memory, for example a
// shared-memory segment. pix must hold at least stride*height bytes in RGBA
// order. Drawing to the surface writes through to pix.
func NewImageSurfaceFromPixels(content ContentType, width, height, stride int, pix []byte, opts ...Option) (*ImageSurface, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.check(width, height); err != nil {
		return nil, err
	}
	if stride < 4*width || len(pix) < stride*height {
		return nil, fmt.Errorf("surface: %d bytes with stride %d cannot hold %dx%d pixels: %w",
			len(pix), stride, width, height, ErrInvalidSize)
	}
	return &ImageSurface{
		img: &image.RGBA{
			Pix:    pix[:stride*height],
			Stride: stride,
			Rect:   image.Rect(0, 0, width, height),
		},
		content: content,
		opts:    o,
	}, nil
}

func (o options) check(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("surface: %dx%d: %w", width, height, ErrInvalidSize)
	}
	if o.maxPixels > 0 && width*height > o.maxPixels {
		return fmt.Errorf("surface: %dx%d exceeds %d pixels: %w", width, height, o.maxPixels, ErrTooLarge)
	}
	return nil
}

// Size returns the surface dimensions.
func (s *ImageSurface) Size() image.Point {
	return s.img.Rect.Size()
}

// ContentType returns the surface content type.
func (s *ImageSurface) ContentType() ContentType {
	return s.content
}

// Image returns the backing image.
func (s *ImageSurface) Image() draw.Image {
	return s.img
}

// RGBA returns the backing image with its concrete type.
func (s *ImageSurface) RGBA() *image.RGBA {
	return s.img
}

// SensitiveToContentType reports the WithContentSensitive setting.
func (s *ImageSurface) SensitiveToContentType() bool {
	return s.opts.sensitive
}

// CreateSimilar allocates a heap surface with the same options.
func (s *ImageSurface) CreateSimilar(content ContentType, size image.Point) (Surface, error) {
	if s.closed {
		return nil, ErrClosed
	}
	ns, err := NewImageSurface(content, size.X, size.Y,
		WithContentSensitive(s.opts.sensitive), WithMaxPixels(s.opts.maxPixels))
	if err != nil {
		return nil, err
	}
	return ns, nil
}

// Snapshot returns a copy of the surface contents.
func (s *ImageSurface) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.img.Rect)
	draw.Draw(out, out.Rect, s.img, image.Point{}, draw.Src)
	return out
}

// Close marks the surface closed. The pixels stay readable for surfaces
// wrapping caller-owned memory; releasing that memory is the caller's job.
func (s *ImageSurface) Close() error {
	s.closed = true
	return nil
}
