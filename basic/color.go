// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package basic

import (
	"image/color"

	"github.com/gogpu/layers/shadow"
)

// ColorLayer fills its visible region with one color.
type ColorLayer struct {
	layerCommon
	color color.RGBA
}

// Color returns the fill color.
func (l *ColorLayer) Color() color.RGBA { return l.color }

// SetColor sets the fill color, premultiplied.
func (l *ColorLayer) SetColor(c color.Color) {
	l.color = color.RGBAModel.Convert(c).(color.RGBA)
	l.mutated()
}

// SpecificAttributes returns the color for the compositor.
func (l *ColorLayer) SpecificAttributes() shadow.SpecificAttributes {
	return shadow.ColorAttributes{Color: l.color}
}
