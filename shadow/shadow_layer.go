// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

import (
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/buffer"
	"github.com/gogpu/layers/surface"
)

// ShadowLayer is the parent-side mirror of a client layer.
type ShadowLayer struct {
	id    LayerID
	kind  layers.Kind
	attrs LayerAttributes

	parent   *ShadowLayer
	children []*ShadowLayer

	// front is the displayed buffer. Image and canvas layers use it with
	// a zero rotation and a rect at the origin.
	front     buffer.Rotated
	frontDesc *Descriptor
}

func newShadowLayer(id LayerID, kind layers.Kind) *ShadowLayer {
	return &ShadowLayer{
		id:   id,
		kind: kind,
		attrs: LayerAttributes{
			Common: CommonAttributes{Transform: layers.Identity(), Opacity: 1},
		},
	}
}

// ID returns the layer id.
func (l *ShadowLayer) ID() LayerID { return l.id }

// Kind returns the layer kind.
func (l *ShadowLayer) Kind() layers.Kind { return l.kind }

// Attributes returns the last attributes received.
func (l *ShadowLayer) Attributes() LayerAttributes { return l.attrs }

// Parent returns the containing layer, or nil.
func (l *ShadowLayer) Parent() *ShadowLayer { return l.parent }

// Children returns the children from bottom to top.
func (l *ShadowLayer) Children() []*ShadowLayer { return slices.Clone(l.children) }

// Front returns the front buffer descriptor, or nil.
func (l *ShadowLayer) Front() *Descriptor { return l.frontDesc }

// BufferRect returns the layer-space rect of the front buffer.
func (l *ShadowLayer) BufferRect() image.Rectangle { return l.front.Rect() }

// BufferRotation returns the rotation of the front buffer.
func (l *ShadowLayer) BufferRotation() image.Point { return l.front.Rotation() }

// setFront installs d as the front buffer and returns the previous one.
func (l *ShadowLayer) setFront(d *Descriptor, rect image.Rectangle, rotation image.Point) (ThebesBuffer, error) {
	if d == nil {
		return ThebesBuffer{}, fmt.Errorf("layer %d: nil front: %w", l.id, ErrBadDescriptor)
	}
	old := ThebesBuffer{Buffer: l.frontDesc, Rect: l.front.Rect(), Rotation: l.front.Rotation()}
	s, err := OpenDescriptor(d)
	if err != nil {
		return ThebesBuffer{}, err
	}
	l.front.Set(s, rect, rotation)
	l.frontDesc = d
	return old, nil
}

func (l *ShadowLayer) dropFront() *Descriptor {
	d := l.frontDesc
	l.front.Set(nil, image.Rectangle{}, image.Point{})
	l.frontDesc = nil
	return d
}

func (l *ShadowLayer) removeChild(child *ShadowLayer) bool {
	i := slices.Index(l.children, child)
	if i < 0 {
		return false
	}
	l.children = slices.Delete(l.children, i, i+1)
	child.parent = nil
	return true
}

// insertAfter inserts child right after sibling, or at the bottom when
// sibling is nil.
func (l *ShadowLayer) insertAfter(child, sibling *ShadowLayer) bool {
	i := 0
	if sibling != nil {
		j := slices.Index(l.children, sibling)
		if j < 0 {
			return false
		}
		i = j + 1
	}
	l.children = slices.Insert(l.children, i, child)
	child.parent = l
	return true
}

// composite draws the layer and its children into target, whose user
// space is the parent's layer space.
func (l *ShadowLayer) composite(target *surface.Context, opacity float64) {
	common := l.attrs.Common
	if common.VisibleRegion.IsEmpty() && l.kind != layers.KindContainer {
		return
	}
	target.Save()
	defer target.Restore()

	if common.UseClipRect {
		target.ClipRect(common.ClipRect)
	}
	if off, ok := common.Transform.IntegerTranslation(); ok {
		target.Translate(off.X, off.Y)
	} else {
		layers.Logger().Warn("shadow: skipping layer with non-translation transform", "layer", l.id)
		return
	}
	opacity *= common.Opacity

	switch l.kind {
	case layers.KindContainer:
		for _, c := range l.children {
			c.composite(target, opacity)
		}
	case layers.KindThebes:
		if l.front.Surface() == nil {
			return
		}
		target.Clip(common.VisibleRegion)
		if common.ContentFlags&layers.ContentOpaque != 0 {
			target.SetOperator(surface.OperatorSource)
		}
		l.front.DrawWithRotation(target, opacity)
	case layers.KindColor:
		c, ok := l.attrs.Specific.(ColorAttributes)
		if !ok {
			return
		}
		target.Clip(common.VisibleRegion)
		target.SetSourceColor(c.Color)
		target.Paint(opacity)
	case layers.KindImage, layers.KindCanvas:
		s := l.front.Surface()
		if s == nil {
			return
		}
		target.Clip(common.VisibleRegion)
		target.ClipRect(image.Rectangle{Max: s.Size()})
		target.SetSource(s, image.Point{})
		target.Paint(opacity)
	}
}
