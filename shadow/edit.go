// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

import (
	"image"
	"image/color"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/region"
)

// LayerID names a layer across the channel. Ids are assigned by the
// forwarder and are never reused.
type LayerID uint64

// CommonAttributes are the attributes every layer has.
type CommonAttributes struct {
	VisibleRegion region.Region
	Transform     layers.Matrix
	ContentFlags  layers.ContentFlags
	Opacity       float64
	UseClipRect   bool
	ClipRect      image.Rectangle
}

// SpecificAttributes is implemented by the per-kind attribute sets:
// ThebesAttributes, ColorAttributes, ImageAttributes and CanvasAttributes.
type SpecificAttributes interface {
	specificAttributes()
}

// ThebesAttributes carry the valid region of a thebes layer.
type ThebesAttributes struct {
	ValidRegion region.Region
}

// ColorAttributes carry the fill color of a color layer.
type ColorAttributes struct {
	Color color.RGBA
}

// ImageAttributes carry the filter of an image layer.
type ImageAttributes struct {
	Filter layers.Filter
}

// CanvasAttributes carry the filter of a canvas layer.
type CanvasAttributes struct {
	Filter layers.Filter
}

func (ThebesAttributes) specificAttributes() {}
func (ColorAttributes) specificAttributes()  {}
func (ImageAttributes) specificAttributes()  {}
func (CanvasAttributes) specificAttributes() {}

// LayerAttributes is the attribute snapshot sent for a mutated layer.
// Specific is nil for container layers.
type LayerAttributes struct {
	Common   CommonAttributes
	Specific SpecificAttributes
}

// ThebesBuffer is a rotated buffer as it travels across the channel.
type ThebesBuffer struct {
	Buffer   *Descriptor
	Rect     image.Rectangle
	Rotation image.Point
}

// Edit is one operation of a transaction. The set of edits is closed.
type Edit interface {
	edit()
}

// OpCreateLayer creates a shadow layer of the given kind.
type OpCreateLayer struct {
	Layer LayerID
	Kind  layers.Kind
}

// OpCreateThebesBuffer gives a thebes layer its first front buffer.
type OpCreateThebesBuffer struct {
	Layer        LayerID
	BufferRect   image.Rectangle
	InitialFront *Descriptor
}

// OpCreateImageBuffer gives an image layer its first front buffer.
type OpCreateImageBuffer struct {
	Layer        LayerID
	Size         image.Point
	InitialFront *Descriptor
}

// OpCreateCanvasBuffer gives a canvas layer its first front buffer.
type OpCreateCanvasBuffer struct {
	Layer        LayerID
	Size         image.Point
	InitialFront *Descriptor
}

// OpDestroyThebesFrontBuffer tells the parent to free the front buffer of a
// thebes layer.
type OpDestroyThebesFrontBuffer struct {
	Layer LayerID
}

// OpDestroyImageFrontBuffer tells the parent to free the front buffer of an
// image layer.
type OpDestroyImageFrontBuffer struct {
	Layer LayerID
}

// OpDestroyCanvasFrontBuffer tells the parent to free the front buffer of a
// canvas layer.
type OpDestroyCanvasFrontBuffer struct {
	Layer LayerID
}

// OpSetRoot makes a layer the root of the tree.
type OpSetRoot struct {
	Root LayerID
}

// OpInsertAfter inserts Child into Container right after After.
type OpInsertAfter struct {
	Container LayerID
	Child     LayerID
	After     LayerID
}

// OpAppendChild inserts Child as the first child of Container, which is
// the bottom of the stacking order.
type OpAppendChild struct {
	Container LayerID
	Child     LayerID
}

// OpRemoveChild detaches Child from Container.
type OpRemoveChild struct {
	Container LayerID
	Child     LayerID
}

// OpPaintThebesBuffer swaps in a newly painted thebes front buffer.
type OpPaintThebesBuffer struct {
	Layer          LayerID
	NewFrontBuffer ThebesBuffer
}

// OpPaintImage swaps in a newly painted image front buffer.
type OpPaintImage struct {
	Layer    LayerID
	NewFront *Descriptor
}

// OpPaintCanvas swaps in a newly painted canvas front buffer.
type OpPaintCanvas struct {
	Layer    LayerID
	NewFront *Descriptor
}

// OpSetLayerAttributes replaces every attribute of a layer.
type OpSetLayerAttributes struct {
	Layer LayerID
	Attrs LayerAttributes
}

func (OpCreateLayer) edit()              {}
func (OpCreateThebesBuffer) edit()       {}
func (OpCreateImageBuffer) edit()        {}
func (OpCreateCanvasBuffer) edit()       {}
func (OpDestroyThebesFrontBuffer) edit() {}
func (OpDestroyImageFrontBuffer) edit()  {}
func (OpDestroyCanvasFrontBuffer) edit() {}
func (OpSetRoot) edit()                  {}
func (OpInsertAfter) edit()              {}
func (OpAppendChild) edit()              {}
func (OpRemoveChild) edit()              {}
func (OpPaintThebesBuffer) edit()        {}
func (OpPaintImage) edit()               {}
func (OpPaintCanvas) edit()              {}
func (OpSetLayerAttributes) edit()       {}

// EditReply is sent back for paint edits. The set of replies is closed.
type EditReply interface {
	editReply()
}

// OpThebesBufferSwap returns the previous thebes front buffer, which becomes
// the child's back buffer.
type OpThebesBufferSwap struct {
	Layer         LayerID
	NewBackBuffer ThebesBuffer
}

// OpBufferSwap returns the previous image or canvas front buffer.
type OpBufferSwap struct {
	Layer         LayerID
	NewBackBuffer *Descriptor
}

func (OpThebesBufferSwap) editReply() {}
func (OpBufferSwap) editReply()       {}

// Descriptors returns the descriptors an edit carries.
func Descriptors(e Edit) []*Descriptor {
	switch e := e.(type) {
	case OpCreateThebesBuffer:
		return []*Descriptor{e.InitialFront}
	case OpCreateImageBuffer:
		return []*Descriptor{e.InitialFront}
	case OpCreateCanvasBuffer:
		return []*Descriptor{e.InitialFront}
	case OpPaintThebesBuffer:
		return []*Descriptor{e.NewFrontBuffer.Buffer}
	case OpPaintImage:
		return []*Descriptor{e.NewFront}
	case OpPaintCanvas:
		return []*Descriptor{e.NewFront}
	}
	return nil
}

// ReplyDescriptor returns the descriptor a reply hands back.
func ReplyDescriptor(r EditReply) *Descriptor {
	switch r := r.(type) {
	case OpThebesBufferSwap:
		return r.NewBackBuffer.Buffer
	case OpBufferSwap:
		return r.NewBackBuffer
	}
	return nil
}
