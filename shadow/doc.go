// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shadow mirrors a client layer tree into a compositor.
//
// The client side records changes with a Forwarder between
// BeginTransaction and EndTransaction. EndTransaction sends the edits of
// the transaction in one message over a Channel. The parent side applies
// them to a tree of ShadowLayers held by a Manager and answers paint edits
// with swap replies.
//
// Pixel buffers travel as Descriptors. A descriptor is owned by one side
// at a time: queuing a create or paint edit hands it to the parent, and a
// swap reply hands the parent's previous front buffer back to the child.
//
// Buffers are double buffered:
//
//	child                      parent
//	paint into back  ──paint──▶  back becomes front
//	old front is back ◀─swap───  old front returned
package shadow
