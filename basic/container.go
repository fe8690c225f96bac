// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package basic

import "slices"

// ContainerLayer groups child layers. Children are kept from bottom to
// top.
type ContainerLayer struct {
	layerCommon
	children []Layer
}

// Children returns the children from bottom to top.
func (c *ContainerLayer) Children() []Layer {
	return slices.Clone(c.children)
}

// InsertAfter inserts child right above after, or at the bottom when after
// is nil. A child that already has a parent is removed from it first.
func (c *ContainerLayer) InsertAfter(child, after Layer) {
	if p := child.Parent(); p != nil {
		p.RemoveChild(child)
	}
	i := 0
	if after != nil {
		j := slices.Index(c.children, after)
		if j < 0 {
			panic("basic: InsertAfter sibling is not a child of the container")
		}
		i = j + 1
	}
	c.children = slices.Insert(c.children, i, child)
	child.common().parent = c

	if after == nil {
		c.manager.fwd.InsertAfter(c, child, nil)
	} else {
		c.manager.fwd.InsertAfter(c, child, after)
	}
}

// RemoveChild detaches child. It does nothing if child is not a child of c.
func (c *ContainerLayer) RemoveChild(child Layer) {
	i := slices.Index(c.children, child)
	if i < 0 {
		return
	}
	c.children = slices.Delete(c.children, i, i+1)
	child.common().parent = nil
	c.manager.fwd.RemoveChild(c, child)
}
