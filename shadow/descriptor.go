// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/internal/shm"
	"github.com/gogpu/layers/surface"
)

// PixelFormat is the only pixel layout descriptors carry: 8-bit RGBA in
// image.RGBA order, premultiplied.
const PixelFormat = gputypes.TextureFormatRGBA8Unorm

// Owner says which side may currently write a descriptor's pixels.
type Owner uint8

const (
	// OwnerChild is the content side that paints.
	OwnerChild Owner = iota
	// OwnerParent is the compositor side.
	OwnerParent
	// OwnerFreed means the memory has been released.
	OwnerFreed
)

// String returns the owner name.
func (o Owner) String() string {
	switch o {
	case OwnerChild:
		return "child"
	case OwnerParent:
		return "parent"
	case OwnerFreed:
		return "freed"
	default:
		return "unknown"
	}
}

var nextDescriptorID atomic.Uint64

// Descriptor is a handle to a pixel surface that can be handed across the
// channel.
//
// Exactly one side owns a descriptor at a time. Edits that carry a
// descriptor (create and paint) grant it to the parent when they are
// queued; swap replies give it back. Destroying a descriptor the parent
// owns, or granting one the child does not own, is a programming error and
// panics.
type Descriptor struct {
	id        uint64
	content   surface.ContentType
	format    gputypes.TextureFormat
	extent    gputypes.Extent3D
	stride    int
	pix       []byte
	seg       *shm.Segment
	allocator string
	owner     Owner
}

// newSegmentDescriptor lays out a width x height RGBA surface in seg.
func newSegmentDescriptor(seg *shm.Segment, allocator string, content surface.ContentType, size image.Point) *Descriptor {
	return &Descriptor{
		id:        nextDescriptorID.Add(1),
		content:   content,
		format:    PixelFormat,
		extent:    gputypes.NewExtent2D(uint32(size.X), uint32(size.Y)),
		stride:    4 * size.X,
		pix:       seg.Bytes(),
		seg:       seg,
		allocator: allocator,
		owner:     OwnerChild,
	}
}

// NewRemoteDescriptor wraps pixels received from the other side of a
// channel. The descriptor is owned by the parent and is not backed by
// shared memory; id is the sender's identifier.
func NewRemoteDescriptor(id uint64, content surface.ContentType, format gputypes.TextureFormat,
	width, height, stride int, pix []byte) (*Descriptor, error) {
	if format != PixelFormat {
		return nil, fmt.Errorf("shadow: descriptor %d format %v: %w", id, format, ErrUnsupportedFormat)
	}
	if width <= 0 || height <= 0 || stride < 4*width || len(pix) < stride*height {
		return nil, fmt.Errorf("shadow: descriptor %d: %d bytes for %dx%d stride %d: %w",
			id, len(pix), width, height, stride, ErrBadDescriptor)
	}
	return &Descriptor{
		id:        id,
		content:   content,
		format:    format,
		extent:    gputypes.NewExtent2D(uint32(width), uint32(height)),
		stride:    stride,
		pix:       pix,
		allocator: "remote",
		owner:     OwnerParent,
	}, nil
}

// ID returns the identifier used for the descriptor on the wire.
func (d *Descriptor) ID() uint64 { return d.id }

// ContentType returns the content type of the surface.
func (d *Descriptor) ContentType() surface.ContentType { return d.content }

// Format returns the pixel format.
func (d *Descriptor) Format() gputypes.TextureFormat { return d.format }

// Extent returns the surface size as a texture extent.
func (d *Descriptor) Extent() gputypes.Extent3D { return d.extent }

// Size returns the surface size in pixels.
func (d *Descriptor) Size() image.Point {
	return image.Pt(int(d.extent.Width), int(d.extent.Height))
}

// Stride returns the distance in bytes between rows.
func (d *Descriptor) Stride() int { return d.stride }

// Owner returns the side that currently owns the descriptor.
func (d *Descriptor) Owner() Owner { return d.owner }

// Allocator names the allocator that created the descriptor.
func (d *Descriptor) Allocator() string { return d.allocator }

// Pixels returns the pixel memory. It panics once the descriptor is freed.
func (d *Descriptor) Pixels() []byte {
	if d.owner == OwnerFreed {
		panic("shadow: use of freed descriptor")
	}
	return d.pix[:d.stride*int(d.extent.Height)]
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("descriptor#%d(%dx%d %s %s)", d.id, d.extent.Width, d.extent.Height, d.allocator, d.owner)
}

// grant hands the descriptor to the parent.
func (d *Descriptor) grant() {
	if d.owner != OwnerChild {
		panic("shadow: granting " + d.String() + " that the child does not own")
	}
	d.owner = OwnerParent
}

// reclaim hands the descriptor back to the child.
func (d *Descriptor) reclaim() {
	if d.owner != OwnerParent {
		panic("shadow: reclaiming " + d.String() + " that the parent does not own")
	}
	d.owner = OwnerChild
}

// free releases the backing memory.
func (d *Descriptor) free() {
	if d.owner == OwnerFreed {
		return
	}
	d.owner = OwnerFreed
	if d.seg != nil {
		if err := d.seg.Close(); err != nil {
			layers.Logger().Warn("shadow: release shared memory", "descriptor", d.id, "err", err)
		}
	}
	d.pix = nil
}

// OpenDescriptor returns a surface drawing straight into the descriptor's
// pixels.
func OpenDescriptor(d *Descriptor) (*surface.ImageSurface, error) {
	if d.format != PixelFormat {
		return nil, fmt.Errorf("shadow: open %v: %w", d, ErrUnsupportedFormat)
	}
	if d.owner == OwnerFreed {
		return nil, fmt.Errorf("shadow: open %v: %w", d, ErrBadDescriptor)
	}
	size := d.Size()
	return surface.NewImageSurfaceFromPixels(d.content, size.X, size.Y, d.stride, d.pix)
}

// Release frees a descriptor the parent has dropped. Channels that copy
// pixels across call it on the child side when the parent destroys or
// replaces a front buffer. It panics when the child owns d.
func (d *Descriptor) Release() {
	if d.owner == OwnerChild {
		panic("shadow: releasing " + d.String() + " that the child owns")
	}
	d.free()
}
