// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package buffer implements rotated pixel buffers and the incremental
// painter that keeps one up to date for a layer.
//
// A rotated buffer represents a rectangle of layer space (its rect) with a
// fixed-size surface treated as a torus. The rotation says where, inside the
// surface, the top-left corner of the rect is stored. Scrolling by less than
// the buffer size moves the rect and adjusts the rotation instead of moving
// pixels, so only the newly exposed strip has to be painted.
//
// Drawing a rotated buffer splits it along the wrap seams into four
// quadrants, each drawn with an explicit clip:
//
//	 bufferRect in layer space        surface pixels
//	+-----------+-----+              +-----+-----------+
//	|  R,B      | L,B |              | L,T | R,T       |
//	|           |     |   <------    +-----+-----------+
//	+-----------+-----+              | L,B | R,B       |
//	|  R,T      | L,T |              |     |           |
//	+-----------+-----+              +-----+-----------+
//
// LEFT names the physical left edge of the surface, which is shown on the
// right side of the rect because of the wrap-around; TOP likewise.
package buffer
