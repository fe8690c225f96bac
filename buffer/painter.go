// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

import (
	"image"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/region"
	"github.com/gogpu/layers/surface"
)

// Flags modify how a layer is painted.
type Flags uint32

const (
	// OpaqueContent promises that the layer covers its visible region with
	// opaque pixels, allowing a surface without alpha.
	OpaqueContent Flags = 1 << iota
)

// Layer is what the painter needs to know about the layer it paints.
type Layer interface {
	// VisibleRegion is the region the compositor will display.
	VisibleRegion() region.Region
	// ValidRegion is the region whose buffer pixels are already correct.
	ValidRegion() region.Region
}

// CopyMode records how existing pixels were carried over by BeginPaint.
type CopyMode uint8

const (
	// CopyNone means no pixels moved: the buffer was kept as is, rotated in
	// place, or its contents discarded.
	CopyNone CopyMode = iota
	// CopySelf means the surface was reused and its pixels shifted within it.
	CopySelf
	// CopyNewBuffer means the old contents were blitted into a new surface.
	CopyNewBuffer
)

// PaintState is the result of BeginPaint.
type PaintState struct {
	// RegionToDraw is the part of the visible region the caller must paint.
	RegionToDraw region.Region

	// RegionToInvalidate must be removed from the layer's valid region
	// whether or not painting happens.
	RegionToInvalidate region.Region

	// Context draws into the buffer with layer-space coordinates, clipped
	// to RegionToDraw. It is nil when there is nothing to paint or the
	// buffer could not be allocated.
	Context *surface.Context

	// Copy says how existing pixels were preserved.
	Copy CopyMode

	// Allocated is set when a new surface was created.
	Allocated bool
}

// Painter keeps the rotated buffer of one layer up to date. It is not safe
// for concurrent use.
type Painter struct {
	Rotated
}

// NewPainter returns a painter with no buffer.
func NewPainter() *Painter {
	return &Painter{}
}

// Clear drops the surface and resets rect and rotation.
func (p *Painter) Clear() {
	if p.surf != nil {
		_ = p.surf.Close()
	}
	p.Rotated = Rotated{}
}

// BeginPaint works out what has to be painted for layer and prepares the
// buffer for it, reusing, rotating, shifting or reallocating the surface as
// needed. New surfaces are created from target's surface.
//
// The caller must subtract RegionToInvalidate from the layer's valid region,
// then, if Context is not nil, paint RegionToDraw through it and add
// RegionToDraw to the valid region.
func (p *Painter) BeginPaint(layer Layer, target *surface.Context, flags Flags) PaintState {
	var result PaintState
	log := layers.Logger()

	desired := surface.ContentColorAlpha
	valid := layer.ValidRegion()
	targetSurface := target.Surface()
	if targetSurface.SensitiveToContentType() {
		if flags&OpaqueContent != 0 {
			desired = surface.ContentColor
		}
		if p.surf != nil && desired != p.surf.ContentType() {
			// The contents are thrown away, so nothing stays valid.
			result.RegionToInvalidate = valid
			valid = region.Region{}
			p.Clear()
		}
	}

	visible := layer.VisibleRegion()
	result.RegionToDraw = visible.Sub(valid)
	if result.RegionToDraw.IsEmpty() {
		return result
	}
	drawBounds := result.RegionToDraw.Bounds()
	visibleBounds := visible.Bounds()

	var destBuffer surface.Surface
	var destBufferRect image.Rectangle

	if p.rect.Dx() >= visibleBounds.Dx() && p.rect.Dy() >= visibleBounds.Dy() {
		// The current buffer is big enough to hold the visible area.
		if visibleBounds.In(p.rect) {
			destBufferRect = p.rect
		} else {
			// Big enough but in the wrong place: move it.
			destBufferRect = image.Rectangle{Min: visibleBounds.Min, Max: visibleBounds.Min.Add(p.rect.Size())}
		}

		if keep := destBufferRect.Intersect(p.rect); !keep.Empty() {
			// Rotate so the pixels already in the surface still land in the
			// right place once the rect becomes destBufferRect.
			newRotation := p.rotation.Add(destBufferRect.Min.Sub(p.rect.Min))
			newRotation.X = wrapRotationAxis(newRotation.X, p.rect.Dx())
			newRotation.Y = wrapRotationAxis(newRotation.Y, p.rect.Dy())
			if !newRotation.In(image.Rectangle{Max: p.rect.Size()}) {
				log.Warn("buffer: rotation out of bounds", "rotation", newRotation, "size", p.rect.Size())
			}

			xBoundary := destBufferRect.Max.X - newRotation.X
			yBoundary := destBufferRect.Max.Y - newRotation.Y
			if (drawBounds.Min.X < xBoundary && xBoundary < drawBounds.Max.X) ||
				(drawBounds.Min.Y < yBoundary && yBoundary < drawBounds.Max.Y) {
				// The area to redraw would wrap around an edge of the
				// surface, so the pixels have to move.
				if p.rotation == (image.Point{}) {
					destBuffer = p.surf
					result.Copy = CopySelf
				} else {
					// A rotated surface cannot be shifted within itself.
					destBufferRect = visibleBounds
					s, err := targetSurface.CreateSimilar(desired, destBufferRect.Size())
					if err != nil {
						log.Warn("buffer: allocation failed", "size", destBufferRect.Size(), "err", err)
						return result
					}
					destBuffer = s
					result.Allocated = true
				}
			} else {
				p.rect = destBufferRect
				p.rotation = newRotation
			}
		} else {
			// Nothing is kept; the whole visible region is redrawn.
			p.rect = destBufferRect
			p.rotation = image.Point{}
		}
	} else {
		// The buffer is too small, so allocate a new one.
		destBufferRect = visibleBounds
		s, err := targetSurface.CreateSimilar(desired, destBufferRect.Size())
		if err != nil {
			log.Warn("buffer: allocation failed", "size", destBufferRect.Size(), "err", err)
			return result
		}
		destBuffer = s
		result.Allocated = true
	}

	if destBuffer != nil {
		if p.surf != nil {
			tmp := surface.NewContext(destBuffer)
			tmp.SetOperator(surface.OperatorSource)
			tmp.Translate(-destBufferRect.Min.X, -destBufferRect.Min.Y)
			p.DrawWithRotation(tmp, 1)
			if result.Copy == CopyNone {
				result.Copy = CopyNewBuffer
			}
			if destBuffer != p.surf {
				_ = p.surf.Close()
			}
		}
		p.surf = destBuffer
		p.rect = destBufferRect
		p.rotation = image.Point{}
		log.Debug("buffer: moved", "rect", p.rect, "copy", result.Copy)
	}

	result.RegionToInvalidate = result.RegionToInvalidate.Union(valid.SubRect(destBufferRect))

	result.Context = surface.NewContext(p.surf)

	// Figure out which quadrant to draw in.
	xBoundary := p.rect.Max.X - p.rotation.X
	yBoundary := p.rect.Max.Y - p.rotation.Y
	sideX := Left
	if drawBounds.Max.X <= xBoundary {
		sideX = Right
	}
	sideY := Top
	if drawBounds.Max.Y <= yBoundary {
		sideY = Bottom
	}
	quadrant := p.QuadrantRect(sideX, sideY)
	if !drawBounds.In(quadrant) {
		log.Warn("buffer: draw bounds cross a quadrant seam", "draw", drawBounds, "quadrant", quadrant)
	}
	result.Context.Translate(-quadrant.Min.X, -quadrant.Min.Y)

	result.Context.Clip(result.RegionToDraw)
	if desired == surface.ContentColorAlpha {
		result.Context.SetOperator(surface.OperatorClear)
		result.Context.Paint(1)
		result.Context.SetOperator(surface.OperatorOver)
	}
	return result
}

// DrawTo composites the buffer into target, whose user space is layer
// space, clipped to the layer's visible region.
func (p *Painter) DrawTo(layer Layer, flags Flags, target *surface.Context, opacity float64) {
	target.Save()
	defer target.Restore()
	target.Clip(layer.VisibleRegion())
	if flags&OpaqueContent != 0 {
		target.SetOperator(surface.OperatorSource)
	}
	p.DrawWithRotation(target, opacity)
}

// String returns the copy mode name.
func (m CopyMode) String() string {
	switch m {
	case CopyNone:
		return "none"
	case CopySelf:
		return "self"
	case CopyNewBuffer:
		return "new"
	default:
		return "unknown"
	}
}
