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
	"testing"

	"github.com/ZaparooProject/go-epd4in3"
	"github.com/stretchr/testify/assert"
)

func countTone(b *Buffer, c epd4in3.Color) int {
	n := 0
	for i := range b.PixelCount() {
		if b.PixelAt(i) == c {
			n++
		}
	}
	return n
}

func TestCard_Render(t *testing.T) {
	t.Parallel()

	img := Card{Foreground: epd4in3.Black, Background: epd4in3.White}.Render(120, 80)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())

	// Corners sit outside the rounded frame.
	assert.Equal(t, epd4in3.White, ToColor(img.At(0, 0)))
	assert.Equal(t, epd4in3.White, ToColor(img.At(119, 79)))
	// Left edge of the frame, halfway down.
	assert.Equal(t, epd4in3.Black, ToColor(img.At(8, 40)))
}

func TestBuffer_DrawCard(t *testing.T) {
	t.Parallel()

	frameOnly := NewBuffer(160, 120, epd4in3.White)
	frameOnly.DrawCard(Card{Foreground: epd4in3.Black, Background: epd4in3.White})

	withText := NewBuffer(160, 120, epd4in3.White)
	withText.DrawCard(Card{
		Title:      "Status",
		Body:       "All systems nominal and the panel is refreshing as expected",
		Foreground: epd4in3.Black,
		Background: epd4in3.White,
	})

	frameInk := countTone(frameOnly, epd4in3.Black)
	assert.Positive(t, frameInk)
	assert.Greater(t, countTone(withText, epd4in3.Black), frameInk)
}

func TestBuffer_DrawCardRotated(t *testing.T) {
	t.Parallel()

	b := NewBuffer(160, 120, epd4in3.Black)
	b.SetRotation(Rotate90)
	b.DrawCard(Card{Title: "Hi", Foreground: epd4in3.White, Background: epd4in3.DarkGray})

	c, ok := b.Pixel(0, 0)
	assert.True(t, ok)
	assert.Equal(t, epd4in3.DarkGray, c)
	assert.Positive(t, countTone(b, epd4in3.White))
}
