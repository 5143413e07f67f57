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

	xdraw "golang.org/x/image/draw"
)

// DrawOptions controls how DrawImage maps a picture onto the panel.
type DrawOptions struct {
	// Scaler resizes the source to the logical bounds. Nil means
	// xdraw.ApproxBiLinear.
	Scaler xdraw.Scaler
	// Dither spreads quantization error with Floyd-Steinberg instead of
	// snapping each pixel to the nearest tone.
	Dither bool
	// KeepAspect letterboxes the picture instead of stretching it.
	KeepAspect bool
}

// DrawImage scales img to the buffer's logical bounds and quantizes it to
// the four panel tones. Pixels outside a letterboxed picture keep their
// current value.
func (b *Buffer) DrawImage(img image.Image, opts DrawOptions) {
	scaler := opts.Scaler
	if scaler == nil {
		scaler = xdraw.ApproxBiLinear
	}

	dst := b.Bounds()
	if opts.KeepAspect {
		dst = fit(img.Bounds(), dst)
	}
	if dst.Empty() {
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, dst.Dx(), dst.Dy()))
	scaler.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	if opts.Dither {
		draw.FloydSteinberg.Draw(b, dst, scaled, image.Point{})
		return
	}
	draw.Draw(b, dst, scaled, image.Point{}, draw.Src)
}

// fit returns the largest rectangle with src's aspect ratio centered in dst.
func fit(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw <= 0 || sh <= 0 {
		return image.Rectangle{}
	}

	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}
