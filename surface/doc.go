// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the pixel surfaces layer buffers are painted into
// and the Context used to draw on them.
//
// A Surface is a rectangle of RGBA pixels with a content type. Surfaces are
// created either on the heap (NewImageSurface) or over caller-owned memory
// such as a shared-memory segment (NewImageSurfaceFromPixels). New surfaces
// compatible with an existing one come from CreateSimilar.
//
// # Drawing
//
// Context follows the Cairo model used by the layer code: integer
// translation, region clipping, a compositing operator and a source that is
// either another surface or a solid color.
//
//	ctx := surface.NewContext(dst)
//	ctx.Translate(-bufferRect.Min.X, -bufferRect.Min.Y)
//	ctx.SetOperator(surface.OperatorSource)
//	ctx.SetSource(src, quadrant.Min)
//	ctx.FillRect(fill)
//
// Surfaces are NOT thread-safe. Each surface should be used from a single
// goroutine, or external synchronization must be used.
//
// # References
//
//   - Cairo: https://cairographics.org/manual/cairo-Image-Surfaces.html
package surface
