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
	"bufio"
	"errors"
	"image/color"
	"io"

	"github.com/ZaparooProject/go-epd4in3"
	"github.com/maruel/ansi256"
)

// PreviewOptions controls WritePreview.
type PreviewOptions struct {
	// Palette maps tones to terminal colors. Nil means ansi256.Default.
	Palette *ansi256.Palette
	// Columns is the widest the preview may get. Zero means 100.
	Columns int
}

// WritePreview renders src as ANSI color blocks, one terminal cell per
// sampled pixel. Rows are sampled twice as sparsely as columns since
// terminal cells are roughly twice as tall as they are wide.
func WritePreview(w io.Writer, src epd4in3.PixelSource, width int, opts PreviewOptions) error {
	if width <= 0 || src.PixelCount()%width != 0 {
		return errors.New("preview width does not divide the frame")
	}
	height := src.PixelCount() / width

	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	cols := opts.Columns
	if cols <= 0 {
		cols = 100
	}
	step := (width + cols - 1) / cols

	bw := bufio.NewWriter(w)
	for y := 0; y < height; y += 2 * step {
		_, _ = bw.WriteString("\033[0m")
		for x := 0; x < width; x += step {
			c := src.PixelAt(y*width + x)
			if !c.Valid() {
				c = epd4in3.DefaultBackgroundColor
			}
			_, _ = bw.WriteString(p.Block(color.NRGBAModel.Convert(Palette[c]).(color.NRGBA)))
		}
		_, _ = bw.WriteString("\033[0m\n")
	}
	return bw.Flush()
}
