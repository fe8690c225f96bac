// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package basic

import (
	"image"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/region"
	"github.com/gogpu/layers/shadow"
)

// Layer is a node of the client tree.
type Layer interface {
	shadow.Shadowable

	// Parent returns the container holding the layer, or nil.
	Parent() *ContainerLayer

	common() *layerCommon
}

// layerCommon holds the attributes every layer has.
type layerCommon struct {
	manager *LayerManager
	self    Layer
	parent  *ContainerLayer

	visible   region.Region
	transform layers.Matrix
	flags     layers.ContentFlags
	opacity   float64
	clip      image.Rectangle
	useClip   bool
}

func (c *layerCommon) init(m *LayerManager, self Layer) {
	c.manager = m
	c.self = self
	c.transform = layers.Identity()
	c.opacity = 1
}

func (c *layerCommon) common() *layerCommon { return c }

func (c *layerCommon) mutated() {
	c.manager.fwd.Mutated(c.self)
}

// VisibleRegion returns the part of the layer that is displayed, in layer
// space.
func (c *layerCommon) VisibleRegion() region.Region { return c.visible }

// Transform returns the transform from layer space to the parent's space.
func (c *layerCommon) Transform() layers.Matrix { return c.transform }

// ContentFlags returns the content flags.
func (c *layerCommon) ContentFlags() layers.ContentFlags { return c.flags }

// Opacity returns the layer opacity.
func (c *layerCommon) Opacity() float64 { return c.opacity }

// ClipRect returns the clip rectangle in the parent's space and whether it
// is set.
func (c *layerCommon) ClipRect() (image.Rectangle, bool) { return c.clip, c.useClip }

// Parent returns the container holding the layer, or nil.
func (c *layerCommon) Parent() *ContainerLayer { return c.parent }

// SetVisibleRegion sets the displayed region.
func (c *layerCommon) SetVisibleRegion(r region.Region) {
	c.visible = r
	c.mutated()
}

// SetTransform sets the transform to the parent's space. The compositor
// honors integer translations only.
func (c *layerCommon) SetTransform(m layers.Matrix) {
	c.transform = m
	c.mutated()
}

// SetContentFlags sets the content flags.
func (c *layerCommon) SetContentFlags(f layers.ContentFlags) {
	c.flags = f
	c.mutated()
}

// SetOpacity sets the opacity in [0, 1].
func (c *layerCommon) SetOpacity(o float64) {
	c.opacity = max(0, min(1, o))
	c.mutated()
}

// SetClipRect clips the layer to rc, given in the parent's space.
func (c *layerCommon) SetClipRect(rc image.Rectangle) {
	c.clip = rc
	c.useClip = true
	c.mutated()
}

// ClearClipRect removes the clip rectangle.
func (c *layerCommon) ClearClipRect() {
	c.clip = image.Rectangle{}
	c.useClip = false
	c.mutated()
}
