// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

import (
	"fmt"
	"image"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/surface"
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDeallocator sets the function that releases front buffers the
// parent drops. The default releases the descriptor's memory.
func WithDeallocator(free func(*Descriptor)) ManagerOption {
	return func(m *Manager) {
		m.dealloc = free
	}
}

// Manager is the parent side of the channel. It applies transactions to a
// tree of shadow layers and composites the tree.
//
// A Manager is not safe for concurrent use; callers serialize Update and
// Composite.
type Manager struct {
	layers  map[LayerID]*ShadowLayer
	root    *ShadowLayer
	dealloc func(*Descriptor)
}

// NewManager creates an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		layers:  make(map[LayerID]*ShadowLayer),
		dealloc: (*Descriptor).free,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the root layer, or nil.
func (m *Manager) Root() *ShadowLayer {
	return m.root
}

// Layer returns the shadow layer with the given id.
func (m *Manager) Layer(id LayerID) (*ShadowLayer, bool) {
	l, ok := m.layers[id]
	return l, ok
}

// Len returns the number of shadow layers.
func (m *Manager) Len() int {
	return len(m.layers)
}

// Update applies edits in order. Paint edits swap front buffers and
// produce a reply carrying the previous front, which the child owns from
// then on.
//
// Update applies all edits or none: the whole list is checked against the
// tree first, and an edit that would fail rejects the update before
// anything changes. If applying still fails, the replies for the edits
// already applied are returned with the error.
func (m *Manager) Update(edits []Edit) ([]EditReply, error) {
	if err := m.check(edits); err != nil {
		layers.Logger().Warn("shadow: rejecting update", "edits", len(edits), "err", err)
		return nil, err
	}
	var replies []EditReply
	for i, e := range edits {
		r, err := m.apply(e)
		if err != nil {
			layers.Logger().Warn("shadow: applying edit failed", "index", i, "edit", fmt.Sprintf("%T", e), "err", err)
			return replies, fmt.Errorf("shadow: edit %d (%T): %w", i, e, err)
		}
		if r != nil {
			replies = append(replies, r)
		}
	}
	layers.Logger().Debug("shadow: applied update", "edits", len(edits), "replies", len(replies))
	return replies, nil
}

func (m *Manager) lookup(id LayerID) (*ShadowLayer, error) {
	l, ok := m.layers[id]
	if !ok {
		return nil, fmt.Errorf("layer %d: %w", id, ErrUnknownLayer)
	}
	return l, nil
}

func (m *Manager) lookupKind(id LayerID, kinds ...layers.Kind) (*ShadowLayer, error) {
	l, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if l.kind == k {
			return l, nil
		}
	}
	return nil, fmt.Errorf("layer %d is %v: %w", id, l.kind, ErrWrongKind)
}

func (m *Manager) apply(e Edit) (EditReply, error) {
	switch e := e.(type) {
	case OpCreateLayer:
		if _, ok := m.layers[e.Layer]; ok {
			return nil, fmt.Errorf("layer %d: %w", e.Layer, ErrDuplicateLayer)
		}
		m.layers[e.Layer] = newShadowLayer(e.Layer, e.Kind)

	case OpCreateThebesBuffer:
		return nil, m.createBuffer(e.Layer, layers.KindThebes, e.InitialFront, e.BufferRect)
	case OpCreateImageBuffer:
		return nil, m.createBuffer(e.Layer, layers.KindImage, e.InitialFront, image.Rectangle{Max: e.Size})
	case OpCreateCanvasBuffer:
		return nil, m.createBuffer(e.Layer, layers.KindCanvas, e.InitialFront, image.Rectangle{Max: e.Size})

	case OpDestroyThebesFrontBuffer:
		return nil, m.destroyFront(e.Layer, layers.KindThebes)
	case OpDestroyImageFrontBuffer:
		return nil, m.destroyFront(e.Layer, layers.KindImage)
	case OpDestroyCanvasFrontBuffer:
		return nil, m.destroyFront(e.Layer, layers.KindCanvas)

	case OpSetRoot:
		l, err := m.lookup(e.Root)
		if err != nil {
			return nil, err
		}
		m.root = l

	case OpInsertAfter:
		return nil, m.insert(e.Container, e.Child, e.After, true)
	case OpAppendChild:
		return nil, m.insert(e.Container, e.Child, 0, false)

	case OpRemoveChild:
		c, err := m.lookupKind(e.Container, layers.KindContainer)
		if err != nil {
			return nil, err
		}
		child, err := m.lookup(e.Child)
		if err != nil {
			return nil, err
		}
		if !c.removeChild(child) {
			return nil, fmt.Errorf("layer %d is not a child of %d: %w", e.Child, e.Container, ErrUnknownLayer)
		}

	case OpPaintThebesBuffer:
		l, err := m.lookupKind(e.Layer, layers.KindThebes)
		if err != nil {
			return nil, err
		}
		if l.frontDesc == nil {
			return nil, fmt.Errorf("layer %d: %w", e.Layer, ErrNoFrontBuffer)
		}
		nb := e.NewFrontBuffer
		old, err := l.setFront(nb.Buffer, nb.Rect, nb.Rotation)
		if err != nil {
			return nil, err
		}
		return OpThebesBufferSwap{Layer: e.Layer, NewBackBuffer: old}, nil

	case OpPaintImage:
		return m.paintBuffer(e.Layer, layers.KindImage, e.NewFront)
	case OpPaintCanvas:
		return m.paintBuffer(e.Layer, layers.KindCanvas, e.NewFront)

	case OpSetLayerAttributes:
		l, err := m.lookup(e.Layer)
		if err != nil {
			return nil, err
		}
		l.attrs = e.Attrs

	default:
		return nil, fmt.Errorf("unknown edit %T", e)
	}
	return nil, nil
}

func (m *Manager) createBuffer(id LayerID, kind layers.Kind, front *Descriptor, rect image.Rectangle) error {
	l, err := m.lookupKind(id, kind)
	if err != nil {
		return err
	}
	if front == nil {
		return fmt.Errorf("layer %d: nil front: %w", id, ErrBadDescriptor)
	}
	prev := l.frontDesc
	if _, err := l.setFront(front, rect, image.Point{}); err != nil {
		return err
	}
	if prev != nil {
		m.dealloc(prev)
	}
	return nil
}

func (m *Manager) destroyFront(id LayerID, kind layers.Kind) error {
	l, err := m.lookupKind(id, kind)
	if err != nil {
		return err
	}
	if d := l.dropFront(); d != nil {
		m.dealloc(d)
	}
	return nil
}

func (m *Manager) paintBuffer(id LayerID, kind layers.Kind, front *Descriptor) (EditReply, error) {
	l, err := m.lookupKind(id, kind)
	if err != nil {
		return nil, err
	}
	if l.frontDesc == nil {
		return nil, fmt.Errorf("layer %d: %w", id, ErrNoFrontBuffer)
	}
	if front == nil {
		return nil, fmt.Errorf("layer %d: nil front: %w", id, ErrBadDescriptor)
	}
	old, err := l.setFront(front, image.Rectangle{Max: front.Size()}, image.Point{})
	if err != nil {
		return nil, err
	}
	return OpBufferSwap{Layer: id, NewBackBuffer: old.Buffer}, nil
}

func (m *Manager) insert(containerID, childID, afterID LayerID, hasAfter bool) error {
	c, err := m.lookupKind(containerID, layers.KindContainer)
	if err != nil {
		return err
	}
	child, err := m.lookup(childID)
	if err != nil {
		return err
	}
	var after *ShadowLayer
	if hasAfter {
		if after, err = m.lookup(afterID); err != nil {
			return err
		}
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	if !c.insertAfter(child, after) {
		return fmt.Errorf("layer %d is not a child of %d: %w", afterID, containerID, ErrUnknownLayer)
	}
	return nil
}

// Composite draws the shadow tree into target.
func (m *Manager) Composite(target *surface.Context) {
	if m.root == nil {
		return
	}
	m.root.composite(target, 1)
}

// Close releases every front buffer the parent holds.
func (m *Manager) Close() {
	for _, l := range m.layers {
		if d := l.dropFront(); d != nil {
			m.dealloc(d)
		}
	}
	clear(m.layers)
	m.root = nil
}
