// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package transport

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/region"
	"github.com/gogpu/layers/shadow"
	"github.com/gogpu/layers/surface"
)

// ErrProtocol is returned for messages that do not decode into edits or
// replies.
var ErrProtocol = errors.New("transport: protocol error")

// Edit and reply op names on the wire.
const (
	opCreateLayer        = "create_layer"
	opCreateThebesBuffer = "create_thebes_buffer"
	opCreateImageBuffer  = "create_image_buffer"
	opCreateCanvasBuffer = "create_canvas_buffer"
	opDestroyThebesFront = "destroy_thebes_front"
	opDestroyImageFront  = "destroy_image_front"
	opDestroyCanvasFront = "destroy_canvas_front"
	opSetRoot            = "set_root"
	opInsertAfter        = "insert_after"
	opAppendChild        = "append_child"
	opRemoveChild        = "remove_child"
	opPaintThebesBuffer  = "paint_thebes_buffer"
	opPaintImage         = "paint_image"
	opPaintCanvas        = "paint_canvas"
	opSetLayerAttributes = "set_layer_attributes"
	opThebesBufferSwap   = "thebes_buffer_swap"
	opBufferSwap         = "buffer_swap"
	specificThebes       = "thebes"
	specificColor        = "color"
	specificImage        = "image"
	specificCanvas       = "canvas"
)

type updateMessage struct {
	Edits []wireEdit `json:"edits"`
}

type replyMessage struct {
	Replies []wireReply `json:"replies,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type wireDescriptor struct {
	ID      uint64                 `json:"id"`
	Content surface.ContentType    `json:"content"`
	Format  gputypes.TextureFormat `json:"format"`
	Width   int                    `json:"width"`
	Height  int                    `json:"height"`
	Stride  int                    `json:"stride"`
	Pixels  []byte                 `json:"pixels"`
}

type wireSpecific struct {
	Kind        string            `json:"kind"`
	ValidRegion []image.Rectangle `json:"valid_region,omitempty"`
	Color       color.RGBA        `json:"color"`
	Filter      layers.Filter     `json:"filter,omitempty"`
}

type wireAttributes struct {
	VisibleRegion []image.Rectangle   `json:"visible_region,omitempty"`
	Transform     layers.Matrix       `json:"transform"`
	ContentFlags  layers.ContentFlags `json:"content_flags,omitempty"`
	Opacity       float64             `json:"opacity"`
	UseClipRect   bool                `json:"use_clip_rect,omitempty"`
	ClipRect      image.Rectangle     `json:"clip_rect"`
	Specific      *wireSpecific       `json:"specific,omitempty"`
}

type wireEdit struct {
	Op        string          `json:"op"`
	Layer     shadow.LayerID  `json:"layer,omitempty"`
	Kind      layers.Kind     `json:"kind,omitempty"`
	Container shadow.LayerID  `json:"container,omitempty"`
	Child     shadow.LayerID  `json:"child,omitempty"`
	After     shadow.LayerID  `json:"after,omitempty"`
	Rect      image.Rectangle `json:"rect"`
	Rotation  image.Point     `json:"rotation"`
	Buffer    *wireDescriptor `json:"buffer,omitempty"`
	Attrs     *wireAttributes `json:"attrs,omitempty"`
}

type wireReply struct {
	Op       string          `json:"op"`
	Layer    shadow.LayerID  `json:"layer"`
	Buffer   uint64          `json:"buffer"`
	Rect     image.Rectangle `json:"rect"`
	Rotation image.Point     `json:"rotation"`
}

func encodeDescriptor(d *shadow.Descriptor) *wireDescriptor {
	if d == nil {
		return nil
	}
	size := d.Size()
	return &wireDescriptor{
		ID:      d.ID(),
		Content: d.ContentType(),
		Format:  d.Format(),
		Width:   size.X,
		Height:  size.Y,
		Stride:  d.Stride(),
		Pixels:  d.Pixels(),
	}
}

// decodeDescriptor rejects buffers larger than maxPixels, unless it is zero.
func decodeDescriptor(w *wireDescriptor, maxPixels int) (*shadow.Descriptor, error) {
	if w == nil {
		return nil, fmt.Errorf("missing buffer: %w", ErrProtocol)
	}
	if maxPixels > 0 && (w.Width > maxPixels || w.Height > maxPixels || w.Width*w.Height > maxPixels) {
		return nil, fmt.Errorf("buffer %d is %dx%d, cap %d pixels: %w", w.ID, w.Width, w.Height, maxPixels, surface.ErrTooLarge)
	}
	return shadow.NewRemoteDescriptor(w.ID, w.Content, w.Format, w.Width, w.Height, w.Stride, w.Pixels)
}

func encodeAttributes(a shadow.LayerAttributes) *wireAttributes {
	w := &wireAttributes{
		VisibleRegion: a.Common.VisibleRegion.Rects(),
		Transform:     a.Common.Transform,
		ContentFlags:  a.Common.ContentFlags,
		Opacity:       a.Common.Opacity,
		UseClipRect:   a.Common.UseClipRect,
		ClipRect:      a.Common.ClipRect,
	}
	switch s := a.Specific.(type) {
	case shadow.ThebesAttributes:
		w.Specific = &wireSpecific{Kind: specificThebes, ValidRegion: s.ValidRegion.Rects()}
	case shadow.ColorAttributes:
		w.Specific = &wireSpecific{Kind: specificColor, Color: s.Color}
	case shadow.ImageAttributes:
		w.Specific = &wireSpecific{Kind: specificImage, Filter: s.Filter}
	case shadow.CanvasAttributes:
		w.Specific = &wireSpecific{Kind: specificCanvas, Filter: s.Filter}
	}
	return w
}

func decodeAttributes(w *wireAttributes) (shadow.LayerAttributes, error) {
	if w == nil {
		return shadow.LayerAttributes{}, fmt.Errorf("missing attributes: %w", ErrProtocol)
	}
	a := shadow.LayerAttributes{Common: shadow.CommonAttributes{
		VisibleRegion: region.FromRects(w.VisibleRegion...),
		Transform:     w.Transform,
		ContentFlags:  w.ContentFlags,
		Opacity:       w.Opacity,
		UseClipRect:   w.UseClipRect,
		ClipRect:      w.ClipRect,
	}}
	if s := w.Specific; s != nil {
		switch s.Kind {
		case specificThebes:
			a.Specific = shadow.ThebesAttributes{ValidRegion: region.FromRects(s.ValidRegion...)}
		case specificColor:
			a.Specific = shadow.ColorAttributes{Color: s.Color}
		case specificImage:
			a.Specific = shadow.ImageAttributes{Filter: s.Filter}
		case specificCanvas:
			a.Specific = shadow.CanvasAttributes{Filter: s.Filter}
		default:
			return a, fmt.Errorf("specific attributes %q: %w", s.Kind, ErrProtocol)
		}
	}
	return a, nil
}

func encodeEdit(e shadow.Edit) (wireEdit, error) {
	switch e := e.(type) {
	case shadow.OpCreateLayer:
		return wireEdit{Op: opCreateLayer, Layer: e.Layer, Kind: e.Kind}, nil
	case shadow.OpCreateThebesBuffer:
		return wireEdit{Op: opCreateThebesBuffer, Layer: e.Layer, Rect: e.BufferRect, Buffer: encodeDescriptor(e.InitialFront)}, nil
	case shadow.OpCreateImageBuffer:
		return wireEdit{Op: opCreateImageBuffer, Layer: e.Layer, Rect: image.Rectangle{Max: e.Size}, Buffer: encodeDescriptor(e.InitialFront)}, nil
	case shadow.OpCreateCanvasBuffer:
		return wireEdit{Op: opCreateCanvasBuffer, Layer: e.Layer, Rect: image.Rectangle{Max: e.Size}, Buffer: encodeDescriptor(e.InitialFront)}, nil
	case shadow.OpDestroyThebesFrontBuffer:
		return wireEdit{Op: opDestroyThebesFront, Layer: e.Layer}, nil
	case shadow.OpDestroyImageFrontBuffer:
		return wireEdit{Op: opDestroyImageFront, Layer: e.Layer}, nil
	case shadow.OpDestroyCanvasFrontBuffer:
		return wireEdit{Op: opDestroyCanvasFront, Layer: e.Layer}, nil
	case shadow.OpSetRoot:
		return wireEdit{Op: opSetRoot, Layer: e.Root}, nil
	case shadow.OpInsertAfter:
		return wireEdit{Op: opInsertAfter, Container: e.Container, Child: e.Child, After: e.After}, nil
	case shadow.OpAppendChild:
		return wireEdit{Op: opAppendChild, Container: e.Container, Child: e.Child}, nil
	case shadow.OpRemoveChild:
		return wireEdit{Op: opRemoveChild, Container: e.Container, Child: e.Child}, nil
	case shadow.OpPaintThebesBuffer:
		b := e.NewFrontBuffer
		return wireEdit{Op: opPaintThebesBuffer, Layer: e.Layer, Rect: b.Rect, Rotation: b.Rotation, Buffer: encodeDescriptor(b.Buffer)}, nil
	case shadow.OpPaintImage:
		return wireEdit{Op: opPaintImage, Layer: e.Layer, Buffer: encodeDescriptor(e.NewFront)}, nil
	case shadow.OpPaintCanvas:
		return wireEdit{Op: opPaintCanvas, Layer: e.Layer, Buffer: encodeDescriptor(e.NewFront)}, nil
	case shadow.OpSetLayerAttributes:
		return wireEdit{Op: opSetLayerAttributes, Layer: e.Layer, Attrs: encodeAttributes(e.Attrs)}, nil
	}
	return wireEdit{}, fmt.Errorf("edit %T: %w", e, ErrProtocol)
}

func decodeEdit(w wireEdit, maxPixels int) (shadow.Edit, error) {
	switch w.Op {
	case opCreateLayer:
		return shadow.OpCreateLayer{Layer: w.Layer, Kind: w.Kind}, nil
	case opCreateThebesBuffer, opCreateImageBuffer, opCreateCanvasBuffer:
		d, err := decodeDescriptor(w.Buffer, maxPixels)
		if err != nil {
			return nil, err
		}
		switch w.Op {
		case opCreateThebesBuffer:
			return shadow.OpCreateThebesBuffer{Layer: w.Layer, BufferRect: w.Rect, InitialFront: d}, nil
		case opCreateImageBuffer:
			return shadow.OpCreateImageBuffer{Layer: w.Layer, Size: w.Rect.Size(), InitialFront: d}, nil
		default:
			return shadow.OpCreateCanvasBuffer{Layer: w.Layer, Size: w.Rect.Size(), InitialFront: d}, nil
		}
	case opDestroyThebesFront:
		return shadow.OpDestroyThebesFrontBuffer{Layer: w.Layer}, nil
	case opDestroyImageFront:
		return shadow.OpDestroyImageFrontBuffer{Layer: w.Layer}, nil
	case opDestroyCanvasFront:
		return shadow.OpDestroyCanvasFrontBuffer{Layer: w.Layer}, nil
	case opSetRoot:
		return shadow.OpSetRoot{Root: w.Layer}, nil
	case opInsertAfter:
		return shadow.OpInsertAfter{Container: w.Container, Child: w.Child, After: w.After}, nil
	case opAppendChild:
		return shadow.OpAppendChild{Container: w.Container, Child: w.Child}, nil
	case opRemoveChild:
		return shadow.OpRemoveChild{Container: w.Container, Child: w.Child}, nil
	case opPaintThebesBuffer, opPaintImage, opPaintCanvas:
		d, err := decodeDescriptor(w.Buffer, maxPixels)
		if err != nil {
			return nil, err
		}
		switch w.Op {
		case opPaintThebesBuffer:
			return shadow.OpPaintThebesBuffer{
				Layer:          w.Layer,
				NewFrontBuffer: shadow.ThebesBuffer{Buffer: d, Rect: w.Rect, Rotation: w.Rotation},
			}, nil
		case opPaintImage:
			return shadow.OpPaintImage{Layer: w.Layer, NewFront: d}, nil
		default:
			return shadow.OpPaintCanvas{Layer: w.Layer, NewFront: d}, nil
		}
	case opSetLayerAttributes:
		a, err := decodeAttributes(w.Attrs)
		if err != nil {
			return nil, err
		}
		return shadow.OpSetLayerAttributes{Layer: w.Layer, Attrs: a}, nil
	}
	return nil, fmt.Errorf("edit %q: %w", w.Op, ErrProtocol)
}

func encodeReply(r shadow.EditReply) (wireReply, error) {
	switch r := r.(type) {
	case shadow.OpThebesBufferSwap:
		b := r.NewBackBuffer
		return wireReply{Op: opThebesBufferSwap, Layer: r.Layer, Buffer: b.Buffer.ID(), Rect: b.Rect, Rotation: b.Rotation}, nil
	case shadow.OpBufferSwap:
		return wireReply{Op: opBufferSwap, Layer: r.Layer, Buffer: r.NewBackBuffer.ID()}, nil
	}
	return wireReply{}, fmt.Errorf("reply %T: %w", r, ErrProtocol)
}

// decodeReply resolves the buffer id of w with lookup.
func decodeReply(w wireReply, lookup func(uint64) (*shadow.Descriptor, bool)) (shadow.EditReply, error) {
	d, ok := lookup(w.Buffer)
	if !ok {
		return nil, fmt.Errorf("reply names unknown buffer %d: %w", w.Buffer, ErrProtocol)
	}
	switch w.Op {
	case opThebesBufferSwap:
		return shadow.OpThebesBufferSwap{
			Layer:         w.Layer,
			NewBackBuffer: shadow.ThebesBuffer{Buffer: d, Rect: w.Rect, Rotation: w.Rotation},
		}, nil
	case opBufferSwap:
		return shadow.OpBufferSwap{Layer: w.Layer, NewBackBuffer: d}, nil
	}
	return nil, fmt.Errorf("reply %q: %w", w.Op, ErrProtocol)
}
