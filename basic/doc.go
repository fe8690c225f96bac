// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package basic is a client layer tree that paints on the CPU and mirrors
// itself into a compositor through a shadow.Forwarder.
//
// Layers are created and changed between LayerManager.BeginTransaction and
// LayerManager.EndTransaction. Every setter marks the layer as mutated so
// that its attributes reach the compositor. At EndTransaction each thebes
// layer repaints what its rotated buffer is missing, copies the buffer into
// a shared back buffer and hands it over.
//
// Example:
//
//	m := basic.NewLayerManager(fwd)
//	m.BeginTransaction()
//	root := m.CreateContainerLayer()
//	page := m.CreateThebesLayer(drawPage)
//	page.SetVisibleRegion(region.FromRect(image.Rect(0, 0, 800, 600)))
//	root.InsertAfter(page, nil)
//	m.SetRoot(root)
//	err := m.EndTransaction()
package basic
