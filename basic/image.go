// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package basic

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/shadow"
	"github.com/gogpu/layers/surface"
)

// ImageLayer displays a still image at the layer origin.
type ImageLayer struct {
	layerCommon
	img    image.Image
	filter layers.Filter
	dirty  bool

	back      *shadow.Descriptor
	hasShared bool
	granted   []*shadow.Descriptor
	resend    bool
}

// SetImage sets the displayed image. It is sent at the next EndTransaction.
func (l *ImageLayer) SetImage(img image.Image) {
	l.img = img
	l.dirty = true
}

// SetFilter sets the resampling filter.
func (l *ImageLayer) SetFilter(f layers.Filter) {
	l.filter = f
	l.mutated()
}

// SpecificAttributes returns the filter for the compositor.
func (l *ImageLayer) SpecificAttributes() shadow.SpecificAttributes {
	return shadow.ImageAttributes{Filter: l.filter}
}

func (l *ImageLayer) update() error {
	if !l.dirty || l.img == nil {
		return nil
	}
	if l.resend {
		l.mutated()
		l.resend = false
	}
	fwd := l.manager.fwd
	size := l.img.Bounds().Size()
	if l.back != nil && l.back.Size() != size {
		fwd.DestroyedImageBuffer(l)
		fwd.DestroySharedSurface(l.back)
		l.back = nil
		l.hasShared = false
	}
	if !l.hasShared {
		front, back, err := fwd.AllocDoubleBuffer(size, surface.ContentColorAlpha)
		if err != nil {
			return fmt.Errorf("basic: image buffer %v: %w", size, err)
		}
		if err := l.copyInto(front); err != nil {
			return err
		}
		fwd.CreatedImageBuffer(l, size, front)
		l.granted = append(l.granted, front)
		l.back = back
		l.hasShared = true
		l.dirty = false
		return nil
	}
	if l.back == nil {
		// The parent still holds both buffers; try again next time.
		return nil
	}
	if err := l.copyInto(l.back); err != nil {
		return err
	}
	fwd.PaintedImage(l, l.back)
	l.granted = append(l.granted, l.back)
	l.back = nil
	l.dirty = false
	return nil
}

func (l *ImageLayer) copyInto(d *shadow.Descriptor) error {
	s, err := shadow.OpenDescriptor(d)
	if err != nil {
		return err
	}
	b := l.img.Bounds()
	draw.Draw(s.RGBA(), image.Rectangle{Max: b.Size()}, l.img, b.Min, draw.Src)
	return nil
}

// settle releases what a failed send carried and marks the image for
// another upload.
func (l *ImageLayer) settle(sent bool) {
	granted := l.granted
	l.granted = nil
	if sent || len(granted) == 0 {
		return
	}
	fwd := l.manager.fwd
	for _, d := range granted {
		fwd.DestroySharedSurface(d)
	}
	if l.back != nil {
		fwd.DestroySharedSurface(l.back)
		l.back = nil
	}
	l.hasShared = false
	l.dirty = true
	l.resend = true
}

func (l *ImageLayer) swapped(d *shadow.Descriptor) {
	l.back = d
}
