// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

import (
	"image"

	"github.com/gogpu/layers/surface"
)

// XSide selects the physical left or right part of a rotated buffer.
type XSide uint8

const (
	// Left is the physical left part, drawn at the right of the rect.
	Left XSide = iota
	// Right is the physical right part, drawn at the left of the rect.
	Right
)

// YSide selects the physical top or bottom part of a rotated buffer.
type YSide uint8

const (
	// Top is the physical top part, drawn at the bottom of the rect.
	Top YSide = iota
	// Bottom is the physical bottom part, drawn at the top of the rect.
	Bottom
)

// Rotated is a surface that stands for rect in layer space, stored with the
// given rotation.
//
// Invariant: 0 <= rotation.X < rect.Dx() and 0 <= rotation.Y < rect.Dy(),
// or rotation is zero.
type Rotated struct {
	surf     surface.Surface
	rect     image.Rectangle
	rotation image.Point
}

// NewRotated wraps s as the buffer for rect with the given rotation.
func NewRotated(s surface.Surface, rect image.Rectangle, rotation image.Point) *Rotated {
	return &Rotated{surf: s, rect: rect, rotation: rotation}
}

// Surface returns the backing surface, or nil.
func (b *Rotated) Surface() surface.Surface { return b.surf }

// Rect returns the layer-space rectangle the buffer represents.
func (b *Rotated) Rect() image.Rectangle { return b.rect }

// Rotation returns the buffer rotation.
func (b *Rotated) Rotation() image.Point { return b.rotation }

// Set replaces the surface, rect and rotation at once.
func (b *Rotated) Set(s surface.Surface, rect image.Rectangle, rotation image.Point) {
	b.surf = s
	b.rect = rect
	b.rotation = rotation
}

// QuadrantRect returns the layer-space rectangle that the whole surface maps
// to when the given physical quadrant is placed correctly. Only its
// intersection with Rect is actually shown.
func (b *Rotated) QuadrantRect(x XSide, y YSide) image.Rectangle {
	// The amount we translate the rect by to get the surface origin in
	// layer space.
	t := b.rotation.Mul(-1)
	if x == Left {
		t.X += b.rect.Dx()
	}
	if y == Top {
		t.Y += b.rect.Dy()
	}
	return b.rect.Add(t)
}

// DrawQuadrant draws one quadrant of the buffer into target, whose user
// space is layer space. Empty quadrants are skipped.
func (b *Rotated) DrawQuadrant(target *surface.Context, x XSide, y YSide, opacity float64) {
	if b.surf == nil {
		return
	}
	quadrant := b.QuadrantRect(x, y)
	fill := b.rect.Intersect(quadrant)
	if fill.Empty() {
		return
	}

	target.Save()
	defer target.Restore()
	target.SetSource(b.surf, quadrant.Min)
	if opacity != 1 {
		target.ClipRect(fill)
		target.Paint(opacity)
	} else {
		target.FillRect(fill)
	}
}

// DrawWithRotation draws the four quadrants so the buffer appears unrotated
// at Rect. Each quadrant is a separate clipped draw; repeat addressing is
// never used.
func (b *Rotated) DrawWithRotation(target *surface.Context, opacity float64) {
	b.DrawQuadrant(target, Left, Top, opacity)
	b.DrawQuadrant(target, Right, Top, opacity)
	b.DrawQuadrant(target, Left, Bottom, opacity)
	b.DrawQuadrant(target, Right, Bottom, opacity)
}

// wrapRotationAxis brings v back into [0, size) after a move of less than
// size in either direction.
func wrapRotationAxis(v, size int) int {
	if v < 0 {
		return v + size
	}
	if v >= size {
		return v - size
	}
	return v
}
