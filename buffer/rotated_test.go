// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/layers/surface"
)

func TestQuadrantRect(t *testing.T) {
	b := NewRotated(nil, image.Rect(10, 20, 110, 70), image.Pt(30, 10))
	tests := []struct {
		x    XSide
		y    YSide
		want image.Rectangle
	}{
		{Left, Top, image.Rect(80, 60, 180, 110)},
		{Right, Top, image.Rect(-20, 60, 80, 110)},
		{Left, Bottom, image.Rect(80, 10, 180, 60)},
		{Right, Bottom, image.Rect(-20, 10, 80, 60)},
	}
	for _, tt := range tests {
		if got := b.QuadrantRect(tt.x, tt.y); got != tt.want {
			t.Errorf("QuadrantRect(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

// Quadrant intersections with the rect tile it exactly, for every rotation.
func TestQuadrantPartition(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 200, 200),
		image.Rect(-37, 11, 64, 40),
		image.Rect(5, 5, 6, 9),
	}
	for _, rect := range rects {
		for rx := 0; rx < rect.Dx(); rx += max(1, rect.Dx()/7) {
			for ry := 0; ry < rect.Dy(); ry += max(1, rect.Dy()/5) {
				b := NewRotated(nil, rect, image.Pt(rx, ry))
				var parts []image.Rectangle
				area := 0
				for _, x := range []XSide{Left, Right} {
					for _, y := range []YSide{Top, Bottom} {
						p := rect.Intersect(b.QuadrantRect(x, y))
						if !p.Empty() {
							parts = append(parts, p)
							area += p.Dx() * p.Dy()
						}
					}
				}
				if want := rect.Dx() * rect.Dy(); area != want {
					t.Errorf("rect %v rotation (%d,%d): quadrant area %d, want %d", rect, rx, ry, area, want)
				}
				for i := range parts {
					for j := i + 1; j < len(parts); j++ {
						if parts[i].Overlaps(parts[j]) {
							t.Errorf("rect %v rotation (%d,%d): %v overlaps %v", rect, rx, ry, parts[i], parts[j])
						}
					}
				}
				if rx == 0 && ry == 0 && len(parts) != 1 {
					t.Errorf("unrotated buffer has %d non-empty quadrants, want 1", len(parts))
				}
			}
		}
	}
}

func TestWrapRotationAxis(t *testing.T) {
	tests := []struct{ v, size, want int }{
		{0, 10, 0},
		{9, 10, 9},
		{10, 10, 0},
		{15, 10, 5},
		{-1, 10, 9},
		{-9, 10, 1},
	}
	for _, tt := range tests {
		if got := wrapRotationAxis(tt.v, tt.size); got != tt.want {
			t.Errorf("wrapRotationAxis(%d, %d) = %d, want %d", tt.v, tt.size, got, tt.want)
		}
	}
}

func TestDrawWithRotationUnrotates(t *testing.T) {
	// Surface column x holds value x; rotation 3 means layer column
	// rect.Min.X+i shows surface column (i+3) mod 8.
	src, _ := surface.NewImageSurface(surface.ContentColorAlpha, 8, 1)
	for x := 0; x < 8; x++ {
		src.RGBA().SetRGBA(x, 0, color.RGBA{R: uint8(x), A: 255})
	}
	b := NewRotated(src, image.Rect(100, 0, 108, 1), image.Pt(3, 0))

	dst, _ := surface.NewImageSurface(surface.ContentColorAlpha, 8, 1)
	ctx := surface.NewContext(dst)
	ctx.Translate(-100, 0)
	b.DrawWithRotation(ctx, 1)

	for i := 0; i < 8; i++ {
		if got, want := dst.RGBA().RGBAAt(i, 0).R, uint8((i+3)%8); got != want {
			t.Errorf("layer column %d = %d, want %d", i, got, want)
		}
	}
}

func TestDrawQuadrantOpacity(t *testing.T) {
	src, _ := surface.NewImageSurface(surface.ContentColorAlpha, 4, 4)
	ctx := surface.NewContext(src)
	ctx.SetSourceColor(color.RGBA{G: 255, A: 255})
	ctx.Paint(1)
	b := NewRotated(src, image.Rect(0, 0, 4, 4), image.Point{})

	dst, _ := surface.NewImageSurface(surface.ContentColorAlpha, 8, 8)
	b.DrawQuadrant(surface.NewContext(dst), Right, Bottom, 0.5)

	if a := dst.RGBA().RGBAAt(1, 1).A; a < 126 || a > 129 {
		t.Errorf("alpha inside quadrant = %d, want ~128", a)
	}
	if a := dst.RGBA().RGBAAt(5, 5).A; a != 0 {
		t.Errorf("alpha outside buffer rect = %d, want 0", a)
	}

	// The empty quadrants of an unrotated buffer draw nothing.
	dst2, _ := surface.NewImageSurface(surface.ContentColorAlpha, 8, 8)
	b.DrawQuadrant(surface.NewContext(dst2), Left, Top, 1)
	if a := dst2.RGBA().RGBAAt(1, 1).A; a != 0 {
		t.Errorf("empty quadrant drew alpha %d", a)
	}
}
