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
	"image/draw"

	"github.com/ZaparooProject/go-epd4in3"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// Card is a framed title with wrapped body text, laid out with gg.
type Card struct {
	Title string
	Body  string
	// TitleFace and BodyFace default to DefaultFace.
	TitleFace font.Face
	BodyFace  font.Face
	// Foreground and Background pick the ink and paper tones.
	Foreground epd4in3.Color
	Background epd4in3.Color
	// Padding around the frame in pixels. Zero means 8.
	Padding float64
}

// Render draws the card into a width x height image. The result only uses
// the card's two tones, so quantizing it into a Buffer is lossless apart
// from antialiased glyph edges.
func (c Card) Render(width, height int) image.Image {
	pad := c.Padding
	if pad <= 0 {
		pad = 8
	}
	titleFace, bodyFace := c.TitleFace, c.BodyFace
	if titleFace == nil {
		titleFace = DefaultFace
	}
	if bodyFace == nil {
		bodyFace = DefaultFace
	}

	w, h := float64(width), float64(height)
	dc := gg.NewContext(width, height)
	dc.SetColor(Palette[c.Background])
	dc.Clear()

	dc.SetColor(Palette[c.Foreground])
	dc.SetLineWidth(2)
	dc.DrawRoundedRectangle(pad, pad, w-2*pad, h-2*pad, pad)
	dc.Stroke()

	dc.SetFontFace(titleFace)
	_, th := dc.MeasureString(c.Title)
	y := 2*pad + th
	if c.Title != "" {
		dc.DrawStringAnchored(c.Title, w/2, 2*pad, 0.5, 1)
		dc.DrawLine(2*pad, y+pad/2, w-2*pad, y+pad/2)
		dc.Stroke()
		y += pad
	}

	if c.Body != "" {
		dc.SetFontFace(bodyFace)
		dc.DrawStringWrapped(c.Body, 3*pad, y+pad, 0, 0, w-6*pad, 1.4, gg.AlignLeft)
	}
	return dc.Image()
}

// DrawCard renders c over the buffer's logical bounds.
func (b *Buffer) DrawCard(c Card) {
	r := b.Bounds()
	draw.Draw(b, r, c.Render(r.Dx(), r.Dy()), image.Point{}, draw.Src)
}
