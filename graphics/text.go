// go-epd4in3
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-epd4in3.
//
// go-epd4in3 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-epd4in3 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-epd4in3; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package graphics

import (
	"fmt"
	"image"
	"os"

	"github.com/ZaparooProject/go-epd4in3"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultFace is the bitmap face used when no TrueType font is loaded.
var DefaultFace font.Face = basicfont.Face7x13

// LoadFace parses a TrueType font file and returns a face of the given
// point size at 72 DPI.
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// DrawString renders s locally with its baseline starting at logical (x,y)
// and returns the x position after the last glyph. A nil face uses
// DefaultFace. Unlike Device.DrawText the glyphs become part of the buffer
// and reach the panel through UpdateFrame.
func (b *Buffer) DrawString(x, y int, s string, face font.Face, c epd4in3.Color) int {
	if !c.Valid() {
		return x
	}
	if face == nil {
		face = DefaultFace
	}
	d := &font.Drawer{
		Dst:  b,
		Src:  image.NewUniform(Palette[c]),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
	return d.Dot.X.Round()
}

// MeasureString returns the advance width of s in pixels.
func MeasureString(s string, face font.Face) int {
	if face == nil {
		face = DefaultFace
	}
	return font.MeasureString(face, s).Round()
}
