// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package basic

import (
	"errors"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/buffer"
	"github.com/gogpu/layers/shadow"
	"github.com/gogpu/layers/surface"
)

// LayerManager owns a client layer tree and forwards its changes.
// It is not safe for concurrent use.
type LayerManager struct {
	fwd       *shadow.Forwarder
	reference *surface.Context
	root      Layer

	thebes []*ThebesLayer
	images []*ImageLayer
	byID   map[shadow.LayerID]Layer
}

// NewLayerManager creates a manager forwarding through fwd, which must
// already have a channel.
func NewLayerManager(fwd *shadow.Forwarder, opts ...Option) *LayerManager {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ref := o.reference
	if ref == nil {
		s, err := surface.NewImageSurface(surface.ContentColorAlpha, 1, 1)
		if err != nil {
			panic("basic: reference surface: " + err.Error())
		}
		ref = s
	}
	return &LayerManager{
		fwd:       fwd,
		reference: surface.NewContext(ref),
		byID:      make(map[shadow.LayerID]Layer),
	}
}

// Forwarder returns the forwarder the manager uses.
func (m *LayerManager) Forwarder() *shadow.Forwarder { return m.fwd }

// Root returns the root layer, or nil.
func (m *LayerManager) Root() Layer { return m.root }

// BeginTransaction starts a frame. Layers may only be created or changed
// inside a transaction.
func (m *LayerManager) BeginTransaction() {
	m.fwd.BeginTransaction()
}

// SetRoot makes l the root of the tree.
func (m *LayerManager) SetRoot(l Layer) {
	m.root = l
	m.fwd.SetRoot(l)
}

func (m *LayerManager) register(l Layer) {
	m.byID[m.fwd.ShadowFor(l)] = l
}

// CreateThebesLayer creates a layer painted by paint.
func (m *LayerManager) CreateThebesLayer(paint PaintFunc) *ThebesLayer {
	l := &ThebesLayer{paint: paint, painter: buffer.NewPainter()}
	l.init(m, l)
	m.fwd.CreatedThebesLayer(l)
	m.register(l)
	m.thebes = append(m.thebes, l)
	return l
}

// CreateContainerLayer creates an empty container.
func (m *LayerManager) CreateContainerLayer() *ContainerLayer {
	l := &ContainerLayer{}
	l.init(m, l)
	m.fwd.CreatedContainerLayer(l)
	m.register(l)
	return l
}

// CreateColorLayer creates a transparent color layer.
func (m *LayerManager) CreateColorLayer() *ColorLayer {
	l := &ColorLayer{}
	l.init(m, l)
	m.fwd.CreatedColorLayer(l)
	m.register(l)
	return l
}

// CreateImageLayer creates an image layer without an image.
func (m *LayerManager) CreateImageLayer() *ImageLayer {
	l := &ImageLayer{}
	l.init(m, l)
	m.fwd.CreatedImageLayer(l)
	m.register(l)
	m.images = append(m.images, l)
	return l
}

// EndTransaction paints the thebes layers that need it, updates image
// buffers and sends the frame. Painting errors do not stop the frame; they
// are returned together with any send error. After a failed send the
// layers upload their buffers again at the next EndTransaction.
func (m *LayerManager) EndTransaction() error {
	var errs []error
	for _, l := range m.thebes {
		if err := l.update(m.reference); err != nil {
			layers.Logger().Warn("basic: thebes layer update failed", "err", err)
			errs = append(errs, err)
		}
	}
	for _, l := range m.images {
		if err := l.update(); err != nil {
			layers.Logger().Warn("basic: image layer update failed", "err", err)
			errs = append(errs, err)
		}
	}

	replies, err := m.fwd.EndTransaction()
	if err != nil {
		errs = append(errs, err)
	}
	for _, l := range m.thebes {
		l.settle(err == nil)
	}
	for _, l := range m.images {
		l.settle(err == nil)
	}
	for _, r := range replies {
		m.dispatch(r)
	}
	return errors.Join(errs...)
}

func (m *LayerManager) dispatch(r shadow.EditReply) {
	switch r := r.(type) {
	case shadow.OpThebesBufferSwap:
		if l, ok := m.byID[r.Layer].(*ThebesLayer); ok {
			l.swapped(r.NewBackBuffer)
			return
		}
	case shadow.OpBufferSwap:
		if l, ok := m.byID[r.Layer].(*ImageLayer); ok {
			l.swapped(r.NewBackBuffer)
			return
		}
	}
	layers.Logger().Warn("basic: reply for unknown layer", "reply", r)
}
