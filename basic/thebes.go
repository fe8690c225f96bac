// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package basic

import (
	"fmt"
	"image"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/buffer"
	"github.com/gogpu/layers/region"
	"github.com/gogpu/layers/shadow"
	"github.com/gogpu/layers/surface"
)

// PaintFunc paints toDraw through ctx, whose user space is layer space and
// whose clip is already set to toDraw.
type PaintFunc func(ctx *surface.Context, toDraw region.Region)

// ThebesLayer is a layer painted by a callback into a rotated buffer.
type ThebesLayer struct {
	layerCommon
	paint   PaintFunc
	painter *buffer.Painter
	valid   region.Region

	// back is the shared buffer the child may write. It is nil while the
	// parent holds it.
	back *shadow.Descriptor
	// sent is the buffer rect and rotation last handed to the parent.
	sentRect     image.Rectangle
	sentRotation image.Point
	hasShared    bool
	// granted are the descriptors handed to the parent in the open
	// transaction.
	granted []*shadow.Descriptor
	resend  bool
}

// ValidRegion returns the part of the buffer that holds correct pixels.
func (l *ThebesLayer) ValidRegion() region.Region { return l.valid }

// InvalidateRegion marks r as needing a repaint.
func (l *ThebesLayer) InvalidateRegion(r region.Region) {
	l.valid = l.valid.Sub(r)
	l.mutated()
}

// SpecificAttributes returns the valid region for the compositor.
func (l *ThebesLayer) SpecificAttributes() shadow.SpecificAttributes {
	return shadow.ThebesAttributes{ValidRegion: l.valid}
}

// Buffer returns the local rotated buffer.
func (l *ThebesLayer) Buffer() *buffer.Rotated {
	return &l.painter.Rotated
}

func (l *ThebesLayer) paintFlags() buffer.Flags {
	if l.flags&layers.ContentOpaque != 0 {
		return buffer.OpaqueContent
	}
	return 0
}

// update repaints what is missing and forwards the buffer if it changed.
func (l *ThebesLayer) update(reference *surface.Context) error {
	state := l.painter.BeginPaint(l, reference, l.paintFlags())
	changed := !state.RegionToInvalidate.IsEmpty()
	l.valid = l.valid.Sub(state.RegionToInvalidate)
	if state.Context != nil {
		if l.paint != nil {
			l.paint(state.Context, state.RegionToDraw)
		}
		l.valid = l.valid.Union(state.RegionToDraw)
		changed = true
	}
	if changed || l.resend {
		l.mutated()
		l.resend = false
	}

	src := l.painter.Surface()
	if src == nil {
		return nil
	}
	rect, rotation := l.painter.Rect(), l.painter.Rotation()
	if !changed && l.hasShared && rect == l.sentRect && rotation == l.sentRotation {
		return nil
	}
	return l.forward(src, rect, rotation)
}

// forward copies the local buffer into the shared back buffer and hands it
// to the parent.
func (l *ThebesLayer) forward(src surface.Surface, rect image.Rectangle, rotation image.Point) error {
	fwd := l.manager.fwd
	size := rect.Size()
	if l.back != nil && (l.back.Size() != size || l.back.ContentType() != src.ContentType()) {
		fwd.DestroyedThebesBuffer(l, l.back)
		l.back = nil
		l.hasShared = false
	}
	if l.back == nil {
		front, back, err := fwd.AllocDoubleBuffer(size, src.ContentType())
		if err != nil {
			return fmt.Errorf("basic: thebes buffer %v: %w", size, err)
		}
		if err := copySurface(front, src); err != nil {
			return err
		}
		fwd.CreatedThebesBuffer(l, rect, front)
		l.granted = append(l.granted, front)
		l.back = back
		l.hasShared = true
	}
	if err := copySurface(l.back, src); err != nil {
		return err
	}
	fwd.PaintedThebesBuffer(l, rect, rotation, l.back)
	l.granted = append(l.granted, l.back)
	l.back = nil
	l.sentRect, l.sentRotation = rect, rotation
	return nil
}

// settle ends the layer's part of a transaction. When the send failed the
// descriptors it carried are the child's again; they are released and the
// shared buffers are created anew on the next update.
func (l *ThebesLayer) settle(sent bool) {
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
	l.resend = true
}

// swapped takes back the buffer the parent returned.
func (l *ThebesLayer) swapped(b shadow.ThebesBuffer) {
	l.back = b.Buffer
}

// DiscardBuffer drops the local and shared buffers. The whole visible
// region is repainted at the next EndTransaction.
func (l *ThebesLayer) DiscardBuffer() {
	if l.hasShared {
		l.manager.fwd.DestroyedThebesBuffer(l, l.back)
		l.back = nil
	}
	l.hasShared = false
	l.painter.Clear()
	l.valid = region.Region{}
	l.mutated()
}

// copySurface copies src into the shared buffer d.
func copySurface(d *shadow.Descriptor, src surface.Surface) error {
	dst, err := shadow.OpenDescriptor(d)
	if err != nil {
		return err
	}
	ctx := surface.NewContext(dst)
	ctx.SetOperator(surface.OperatorSource)
	ctx.SetSource(src, image.Point{})
	ctx.Paint(1)
	return nil
}
