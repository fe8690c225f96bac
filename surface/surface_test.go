// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// TestSurfaceInterface verifies the Surface interface contract.
func TestSurfaceInterface(t *testing.T) {
	var _ Surface = (*ImageSurface)(nil)
}

func TestNewImageSurfaceErrors(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		opts []Option
		want error
	}{
		{"zero width", 0, 10, nil, ErrInvalidSize},
		{"negative height", 10, -1, nil, ErrInvalidSize},
		{"over cap", 100, 100, []Option{WithMaxPixels(1000)}, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewImageSurface(ContentColorAlpha, tt.w, tt.h, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewImageSurface() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateSimilarKeepsOptions(t *testing.T) {
	s, err := NewImageSurface(ContentColor, 10, 10, WithContentSensitive(false), WithMaxPixels(400))
	if err != nil {
		t.Fatal(err)
	}
	sim, err := s.CreateSimilar(ContentColorAlpha, image.Pt(20, 20))
	if err != nil {
		t.Fatalf("CreateSimilar() error = %v", err)
	}
	if sim.SensitiveToContentType() {
		t.Error("similar surface should inherit insensitivity")
	}
	if sim.ContentType() != ContentColorAlpha {
		t.Errorf("ContentType() = %v, want %v", sim.ContentType(), ContentColorAlpha)
	}
	if _, err := s.CreateSimilar(ContentColor, image.Pt(21, 20)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("CreateSimilar() over cap error = %v, want ErrTooLarge", err)
	}

	_ = s.Close()
	if _, err := s.CreateSimilar(ContentColor, image.Pt(1, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateSimilar() after Close error = %v, want ErrClosed", err)
	}
}

func TestFromPixelsWritesThrough(t *testing.T) {
	pix := make([]byte, 4*4*2)
	s, err := NewImageSurfaceFromPixels(ContentColorAlpha, 4, 2, 16, pix)
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(s)
	ctx.SetSourceColor(color.RGBA{R: 255, A: 255})
	ctx.FillRect(image.Rect(1, 1, 2, 2))
	if off := 1*16 + 1*4; pix[off] != 255 || pix[off+3] != 255 {
		t.Errorf("pixel (1,1) = %v, want opaque red", pix[off:off+4])
	}

	if _, err := NewImageSurfaceFromPixels(ContentColor, 4, 4, 16, pix); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("short pixel buffer error = %v, want ErrInvalidSize", err)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s, _ := NewImageSurface(ContentColorAlpha, 2, 2)
	snap := s.Snapshot()
	snap.Set(0, 0, color.White)
	if got := s.RGBA().RGBAAt(0, 0); got.A != 0 {
		t.Errorf("surface changed through snapshot: %v", got)
	}
}
