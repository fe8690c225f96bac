// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

import (
	"fmt"
	"slices"

	"github.com/gogpu/layers"
)

// checkLayer is the part of a shadow layer that decides whether an edit
// applies.
type checkLayer struct {
	kind      layers.Kind
	front     bool
	parent    LayerID
	hasParent bool
	children  []LayerID
}

// checker replays edits against a copy-on-read view of the tree so that an
// update can be rejected before any of it is applied.
type checker struct {
	m      *Manager
	layers map[LayerID]*checkLayer
}

func (m *Manager) check(edits []Edit) error {
	c := &checker{m: m, layers: make(map[LayerID]*checkLayer)}
	for i, e := range edits {
		if err := c.edit(e); err != nil {
			return fmt.Errorf("shadow: edit %d (%T): %w", i, e, err)
		}
	}
	return nil
}

func (c *checker) lookup(id LayerID) (*checkLayer, error) {
	if l, ok := c.layers[id]; ok {
		if l == nil {
			return nil, fmt.Errorf("layer %d: %w", id, ErrUnknownLayer)
		}
		return l, nil
	}
	sl, ok := c.m.layers[id]
	if !ok {
		c.layers[id] = nil
		return nil, fmt.Errorf("layer %d: %w", id, ErrUnknownLayer)
	}
	l := &checkLayer{kind: sl.kind, front: sl.frontDesc != nil}
	if sl.parent != nil {
		l.parent, l.hasParent = sl.parent.id, true
	}
	for _, ch := range sl.children {
		l.children = append(l.children, ch.id)
	}
	c.layers[id] = l
	return l, nil
}

func (c *checker) lookupKind(id LayerID, kinds ...layers.Kind) (*checkLayer, error) {
	l, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(kinds, l.kind) {
		return nil, fmt.Errorf("layer %d is %v: %w", id, l.kind, ErrWrongKind)
	}
	return l, nil
}

// checkDescriptor reports whether d can become a front buffer.
func checkDescriptor(id LayerID, d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("layer %d: nil front: %w", id, ErrBadDescriptor)
	}
	if _, err := OpenDescriptor(d); err != nil {
		return fmt.Errorf("layer %d: %w", id, err)
	}
	return nil
}

func (c *checker) edit(e Edit) error {
	switch e := e.(type) {
	case OpCreateLayer:
		if _, err := c.lookup(e.Layer); err == nil {
			return fmt.Errorf("layer %d: %w", e.Layer, ErrDuplicateLayer)
		}
		c.layers[e.Layer] = &checkLayer{kind: e.Kind}

	case OpCreateThebesBuffer:
		return c.createBuffer(e.Layer, layers.KindThebes, e.InitialFront)
	case OpCreateImageBuffer:
		return c.createBuffer(e.Layer, layers.KindImage, e.InitialFront)
	case OpCreateCanvasBuffer:
		return c.createBuffer(e.Layer, layers.KindCanvas, e.InitialFront)

	case OpDestroyThebesFrontBuffer:
		return c.destroyFront(e.Layer, layers.KindThebes)
	case OpDestroyImageFrontBuffer:
		return c.destroyFront(e.Layer, layers.KindImage)
	case OpDestroyCanvasFrontBuffer:
		return c.destroyFront(e.Layer, layers.KindCanvas)

	case OpSetRoot:
		_, err := c.lookup(e.Root)
		return err

	case OpInsertAfter:
		return c.insert(e.Container, e.Child, e.After, true)
	case OpAppendChild:
		return c.insert(e.Container, e.Child, 0, false)

	case OpRemoveChild:
		parent, err := c.lookupKind(e.Container, layers.KindContainer)
		if err != nil {
			return err
		}
		child, err := c.lookup(e.Child)
		if err != nil {
			return err
		}
		i := slices.Index(parent.children, e.Child)
		if i < 0 {
			return fmt.Errorf("layer %d is not a child of %d: %w", e.Child, e.Container, ErrUnknownLayer)
		}
		parent.children = slices.Delete(parent.children, i, i+1)
		child.hasParent = false

	case OpPaintThebesBuffer:
		return c.paintBuffer(e.Layer, layers.KindThebes, e.NewFrontBuffer.Buffer)
	case OpPaintImage:
		return c.paintBuffer(e.Layer, layers.KindImage, e.NewFront)
	case OpPaintCanvas:
		return c.paintBuffer(e.Layer, layers.KindCanvas, e.NewFront)

	case OpSetLayerAttributes:
		_, err := c.lookup(e.Layer)
		return err

	default:
		return fmt.Errorf("unknown edit %T", e)
	}
	return nil
}

func (c *checker) createBuffer(id LayerID, kind layers.Kind, front *Descriptor) error {
	l, err := c.lookupKind(id, kind)
	if err != nil {
		return err
	}
	if err := checkDescriptor(id, front); err != nil {
		return err
	}
	l.front = true
	return nil
}

func (c *checker) destroyFront(id LayerID, kind layers.Kind) error {
	l, err := c.lookupKind(id, kind)
	if err != nil {
		return err
	}
	l.front = false
	return nil
}

func (c *checker) paintBuffer(id LayerID, kind layers.Kind, front *Descriptor) error {
	l, err := c.lookupKind(id, kind)
	if err != nil {
		return err
	}
	if !l.front {
		return fmt.Errorf("layer %d: %w", id, ErrNoFrontBuffer)
	}
	return checkDescriptor(id, front)
}

func (c *checker) insert(containerID, childID, afterID LayerID, hasAfter bool) error {
	parent, err := c.lookupKind(containerID, layers.KindContainer)
	if err != nil {
		return err
	}
	child, err := c.lookup(childID)
	if err != nil {
		return err
	}
	if hasAfter {
		if _, err := c.lookup(afterID); err != nil {
			return err
		}
	}
	if child.hasParent {
		old, err := c.lookup(child.parent)
		if err != nil {
			return err
		}
		if i := slices.Index(old.children, childID); i >= 0 {
			old.children = slices.Delete(old.children, i, i+1)
		}
	}
	i := 0
	if hasAfter {
		j := slices.Index(parent.children, afterID)
		if j < 0 {
			return fmt.Errorf("layer %d is not a child of %d: %w", afterID, containerID, ErrUnknownLayer)
		}
		i = j + 1
	}
	parent.children = slices.Insert(parent.children, i, childID)
	child.parent, child.hasParent = containerID, true
	return nil
}
