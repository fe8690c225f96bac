// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

// Loopback is an in-process Channel that applies transactions directly to
// a Manager. Buffers are shared by reference.
type Loopback struct {
	m       *Manager
	closed  bool
	updates int
}

// NewLoopback returns a channel delivering to m.
func NewLoopback(m *Manager) *Loopback {
	return &Loopback{m: m}
}

// SendUpdate applies edits to the manager.
func (c *Loopback) SendUpdate(edits []Edit) ([]EditReply, error) {
	if c.closed {
		return nil, ErrClosed
	}
	c.updates++
	return c.m.Update(edits)
}

// DeallocShmem does nothing: the parent shares the child's memory and
// keeps no state about it.
func (c *Loopback) DeallocShmem(*Descriptor) {}

// Updates returns the number of transactions delivered.
func (c *Loopback) Updates() int {
	return c.updates
}

// Close makes later sends fail with ErrClosed.
func (c *Loopback) Close() error {
	c.closed = true
	return nil
}
