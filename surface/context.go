// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/layers/region"
)

// Operator is the compositing operator used by FillRect and Paint.
type Operator uint8

const (
	// OperatorOver composites the source over the destination.
	OperatorOver Operator = iota

	// OperatorSource replaces the destination with the source.
	OperatorSource

	// OperatorClear makes the destination transparent.
	OperatorClear
)

// String returns the operator name.
func (op Operator) String() string {
	switch op {
	case OperatorOver:
		return "over"
	case OperatorSource:
		return "source"
	case OperatorClear:
		return "clear"
	default:
		return "unknown"
	}
}

// state is the part of a Context saved by Save and restored by Restore.
type state struct {
	// translation maps user space to device space: device = user + translation.
	translation image.Point

	// clip is in device space and only meaningful when clipped is set.
	clip    region.Region
	clipped bool

	op Operator

	// src is drawn with its pixel (0, 0) at srcOrigin in user space.
	src       image.Image
	srcOrigin image.Point
}

// Context draws into a Surface.
//
// Coordinates passed to a Context are in user space. Translate moves user
// space relative to the surface pixels; clips accumulate by intersection
// until Restore.
type Context struct {
	target Surface
	st     state
	stack  []state
}

// NewContext returns a context drawing into target with an identity
// translation, no clip and OperatorOver.
func NewContext(target Surface) *Context {
	return &Context{target: target}
}

// Surface returns the surface the context draws into.
func (c *Context) Surface() Surface {
	return c.target
}

// Save pushes the current translation, clip, operator and source.
func (c *Context) Save() {
	c.stack = append(c.stack, c.st)
}

// Restore pops the state pushed by the matching Save.
// Restore without a matching Save is a no-op.
func (c *Context) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.st = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Translate moves the user-space origin to (dx, dy) in the current user space.
func (c *Context) Translate(dx, dy int) {
	c.st.translation = c.st.translation.Add(image.Pt(dx, dy))
}

// Translation returns the device position of the user-space origin.
func (c *Context) Translation() image.Point {
	return c.st.translation
}

// Clip intersects the clip with r, given in user space.
func (c *Context) Clip(r region.Region) {
	dev := r.Translate(c.st.translation)
	if c.st.clipped {
		dev = c.st.clip.Intersect(dev)
	}
	c.st.clip = dev
	c.st.clipped = true
}

// ClipRect intersects the clip with rc, given in user space.
func (c *Context) ClipRect(rc image.Rectangle) {
	c.Clip(region.FromRect(rc))
}

// ClipRegion returns the current clip in user space and whether one is set.
func (c *Context) ClipRegion() (region.Region, bool) {
	if !c.st.clipped {
		return region.Region{}, false
	}
	return c.st.clip.Translate(c.st.translation.Mul(-1)), true
}

// SetOperator sets the compositing operator.
func (c *Context) SetOperator(op Operator) {
	c.st.op = op
}

// Operator returns the compositing operator.
func (c *Context) Operator() Operator {
	return c.st.op
}

// SetSource makes src the source, with its pixel (0, 0) at origin in user
// space.
func (c *Context) SetSource(src Surface, origin image.Point) {
	c.st.src = src.Image()
	c.st.srcOrigin = origin
}

// SetSourceColor makes a solid color the source.
func (c *Context) SetSourceColor(col color.Color) {
	c.st.src = image.NewUniform(col)
	c.st.srcOrigin = image.Point{}
}

// FillRect composites the source into rc, given in user space, at full
// opacity.
func (c *Context) FillRect(rc image.Rectangle) {
	c.composite(rc.Add(c.st.translation), 1)
}

// Paint composites the source everywhere inside the clip with the given
// opacity. Without a clip the whole surface is painted.
func (c *Context) Paint(alpha float64) {
	area := c.target.Image().Bounds()
	if c.st.clipped {
		area = c.st.clip.Bounds()
	}
	c.composite(area, alpha)
}

// composite draws the source into area, given in device space, restricted
// to the clip.
func (c *Context) composite(area image.Rectangle, alpha float64) {
	if alpha <= 0 {
		return
	}
	dst := c.target.Image()
	area = area.Intersect(dst.Bounds())
	if area.Empty() {
		return
	}
	rects := []image.Rectangle{area}
	if c.st.clipped {
		rects = c.st.clip.IntersectRect(area).Rects()
	}

	var mask image.Image
	if alpha < 1 {
		mask = image.NewUniform(color.Alpha16{A: uint16(alpha*0xffff + 0.5)})
	}

	for _, r := range rects {
		switch c.st.op {
		case OperatorClear:
			draw.DrawMask(dst, r, image.Transparent, image.Point{}, mask, image.Point{}, draw.Src)
		case OperatorSource:
			if c.st.src == nil {
				continue
			}
			draw.DrawMask(dst, r, c.st.src, c.sourcePoint(r), mask, image.Point{}, draw.Src)
		default:
			if c.st.src == nil {
				continue
			}
			draw.DrawMask(dst, r, c.st.src, c.sourcePoint(r), mask, image.Point{}, draw.Over)
		}
	}
}

// sourcePoint returns the source pixel that lands on r.Min.
func (c *Context) sourcePoint(r image.Rectangle) image.Point {
	return r.Min.Sub(c.st.translation).Sub(c.st.srcOrigin)
}
