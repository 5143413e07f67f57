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

	"github.com/ZaparooProject/go-epd4in3"
)

// PackedBuffer stores four pixels per byte, most significant pair first,
// in panel order without rotation. A row takes (width+3)/4 bytes.
type PackedBuffer struct {
	pix    []byte
	width  int
	height int
	stride int
}

// NewPackedBuffer returns a packed width x height buffer filled with
// background.
func NewPackedBuffer(width, height int, background epd4in3.Color) *PackedBuffer {
	stride := (width + 3) >> 2
	p := &PackedBuffer{
		pix:    make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
	}
	p.Clear(background)
	return p
}

// PackedFromBytes wraps raw packed pixel memory, as produced by Bytes.
func PackedFromBytes(width, height int, data []byte) (*PackedBuffer, error) {
	stride := (width + 3) >> 2
	if width <= 0 || height <= 0 || len(data) != stride*height {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d packed pixels",
			epd4in3.ErrInvalidArgument, len(data), width, height)
	}
	return &PackedBuffer{
		pix:    append([]byte(nil), data...),
		width:  width,
		height: height,
		stride: stride,
	}, nil
}

// Clear fills the buffer with c.
func (p *PackedBuffer) Clear(c epd4in3.Color) {
	fill := c.ByteValue()
	for i := range p.pix {
		p.pix[i] = fill
	}
}

// Bytes returns a copy of the packed pixel memory.
func (p *PackedBuffer) Bytes() []byte {
	return append([]byte(nil), p.pix...)
}

// Width returns the width in pixels.
func (p *PackedBuffer) Width() int { return p.width }

// Height returns the height in pixels.
func (p *PackedBuffer) Height() int { return p.height }

// Set sets panel pixel (x,y) and reports whether it was in range.
func (p *PackedBuffer) Set(x, y int, c epd4in3.Color) bool {
	if x < 0 || y < 0 || x >= p.width || y >= p.height || !c.Valid() {
		return false
	}
	p.set(x, y, c)
	return true
}

func (p *PackedBuffer) set(x, y int, c epd4in3.Color) {
	index := y*p.stride + x/4
	shift := (3 - x&3) << 1
	p.pix[index] = (p.pix[index] &^ (3 << shift)) | c.BitValue()<<shift
}

// At returns panel pixel (x,y).
func (p *PackedBuffer) At(x, y int) (epd4in3.Color, bool) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return 0, false
	}
	return p.at(x, y), true
}

func (p *PackedBuffer) at(x, y int) epd4in3.Color {
	index := y*p.stride + x/4
	shift := (3 - x&3) << 1
	return epd4in3.Color((p.pix[index] >> shift) & 3)
}

// PixelCount implements epd4in3.PixelSource.
func (p *PackedBuffer) PixelCount() int { return p.width * p.height }

// PixelAt implements epd4in3.PixelSource.
func (p *PackedBuffer) PixelAt(i int) epd4in3.Color {
	return p.at(i%p.width, i/p.width)
}

// Unpack converts the packed pixels back to a Buffer.
func (p *PackedBuffer) Unpack() *Buffer {
	b := NewBuffer(p.width, p.height, epd4in3.White)
	for i := range b.pix {
		b.pix[i] = p.PixelAt(i)
	}
	return b
}
