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
	"image"
	"image/color"

	"github.com/ZaparooProject/go-epd4in3"
)

// Palette holds the four panel tones, indexed by epd4in3.Color.
var Palette = color.Palette{
	epd4in3.Black:    color.Gray{Y: 0x00},
	epd4in3.DarkGray: color.Gray{Y: 0x55},
	epd4in3.Gray:     color.Gray{Y: 0xAA},
	epd4in3.White:    color.Gray{Y: 0xFF},
}

// ToColor quantizes any color to the nearest panel tone.
func ToColor(c color.Color) epd4in3.Color {
	return epd4in3.Color(Palette.Index(c))
}

// Buffer is an unpacked frame: one epd4in3.Color per panel pixel, stored in
// panel order. Drawing coordinates go through the buffer's rotation.
//
// Buffer implements draw.Image over its logical (rotated) bounds and
// epd4in3.PixelSource over the panel order, so it can be handed straight to
// Device.UpdateFrame.
type Buffer struct {
	pix      []epd4in3.Color
	width    int
	height   int
	rotation Rotation
}

// NewBuffer returns a width x height buffer cleared to background.
func NewBuffer(width, height int, background epd4in3.Color) *Buffer {
	b := &Buffer{
		pix:    make([]epd4in3.Color, width*height),
		width:  width,
		height: height,
	}
	b.Clear(background)
	return b
}

// Clear sets every pixel to c.
func (b *Buffer) Clear(c epd4in3.Color) {
	for i := range b.pix {
		b.pix[i] = c
	}
}

// SetRotation changes how subsequent drawing coordinates are mapped.
// Pixels already drawn are not moved.
func (b *Buffer) SetRotation(r Rotation) {
	b.rotation = r
}

// Rotation returns the current drawing rotation.
func (b *Buffer) Rotation() Rotation {
	return b.rotation
}

// Width returns the panel width, independent of rotation.
func (b *Buffer) Width() int { return b.width }

// Height returns the panel height, independent of rotation.
func (b *Buffer) Height() int { return b.height }

// SetPixel sets logical pixel (x,y) and reports whether it was inside the
// panel. Invalid colors are ignored.
func (b *Buffer) SetPixel(x, y int, c epd4in3.Color) bool {
	if !c.Valid() {
		return false
	}
	i := FindPosition(x, y, b.width, b.height, b.rotation)
	if i < 0 {
		return false
	}
	b.pix[i] = c
	return true
}

// Pixel returns logical pixel (x,y).
func (b *Buffer) Pixel(x, y int) (epd4in3.Color, bool) {
	i := FindPosition(x, y, b.width, b.height, b.rotation)
	if i < 0 {
		return 0, false
	}
	return b.pix[i], true
}

// Colors returns a copy of the pixels in panel order.
func (b *Buffer) Colors() epd4in3.Colors {
	out := make(epd4in3.Colors, len(b.pix))
	copy(out, b.pix)
	return out
}

// PixelCount implements epd4in3.PixelSource.
func (b *Buffer) PixelCount() int { return len(b.pix) }

// PixelAt implements epd4in3.PixelSource.
func (b *Buffer) PixelAt(i int) epd4in3.Color { return b.pix[i] }

// Pack converts the buffer to its 2-bit form.
func (b *Buffer) Pack() *PackedBuffer {
	p := NewPackedBuffer(b.width, b.height, epd4in3.White)
	for i, c := range b.pix {
		p.set(i%b.width, i/b.width, c)
	}
	return p
}

// Bounds implements image.Image with the logical size.
func (b *Buffer) Bounds() image.Rectangle {
	if b.rotation.swapsAxes() {
		return image.Rect(0, 0, b.height, b.width)
	}
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	return Palette
}

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color {
	c, ok := b.Pixel(x, y)
	if !ok {
		return color.Transparent
	}
	return Palette[c]
}

// Set implements draw.Image, quantizing c to the nearest panel tone.
func (b *Buffer) Set(x, y int, c color.Color) {
	b.SetPixel(x, y, ToColor(c))
}
