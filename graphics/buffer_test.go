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
	"image/draw"
	"testing"
	"time"

	"github.com/ZaparooProject/go-epd4in3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

var (
	_ draw.Image          = (*Buffer)(nil)
	_ epd4in3.PixelSource = (*Buffer)(nil)
	_ epd4in3.PixelSource = (*PackedBuffer)(nil)
)

func newPins() (wake, reset *gpiotest.Pin) {
	return &gpiotest.Pin{N: "WAKE"}, &gpiotest.Pin{N: "RST"}
}

func TestBuffer_Clear(t *testing.T) {
	t.Parallel()

	b := NewBuffer(epd4in3.DefaultWidth, epd4in3.DefaultHeight, epd4in3.Black)
	for i := range b.PixelCount() {
		require.Equal(t, epd4in3.Black, b.PixelAt(i))
	}

	b.Clear(epd4in3.Gray)
	for i := range b.PixelCount() {
		require.Equal(t, epd4in3.Gray, b.PixelAt(i))
	}
}

func TestBuffer_HorizontalLine(t *testing.T) {
	t.Parallel()

	b := NewBuffer(296, 128, epd4in3.White)
	for x := range 8 {
		require.True(t, b.SetPixel(x, 0, epd4in3.Black))
	}

	px := b.Colors()
	for i := range 8 {
		assert.Equal(t, epd4in3.Black, px[i])
	}
	for i := 8; i < len(px); i++ {
		require.Equal(t, epd4in3.White, px[i], "pixel %d", i)
	}
}

func TestBuffer_RotatedPixel(t *testing.T) {
	t.Parallel()

	b := NewBuffer(8, 4, epd4in3.White)
	b.SetRotation(Rotate90)
	assert.Equal(t, image.Rect(0, 0, 4, 8), b.Bounds())

	require.True(t, b.SetPixel(0, 0, epd4in3.Black))
	assert.Equal(t, epd4in3.Black, b.PixelAt(7))

	c, ok := b.Pixel(0, 0)
	require.True(t, ok)
	assert.Equal(t, epd4in3.Black, c)

	assert.False(t, b.SetPixel(4, 0, epd4in3.Black), "x runs along the short side")
	assert.False(t, b.SetPixel(0, 0, epd4in3.Color(5)))
	_, ok = b.Pixel(0, 8)
	assert.False(t, ok)
}

func TestBuffer_ImageInterface(t *testing.T) {
	t.Parallel()

	b := NewBuffer(4, 1, epd4in3.White)
	b.Set(0, 0, color.Black)
	b.Set(1, 0, color.Gray{Y: 0x60})
	b.Set(2, 0, color.Gray{Y: 0xB0})
	b.Set(10, 0, color.Black)

	assert.Equal(t, epd4in3.Colors{epd4in3.Black, epd4in3.DarkGray, epd4in3.Gray, epd4in3.White}, b.Colors())
	assert.Equal(t, color.Gray{Y: 0x55}, b.At(1, 0))
	assert.Equal(t, color.Transparent, b.At(-1, 0))
	assert.Equal(t, color.Model(Palette), b.ColorModel())
}

func TestToColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, epd4in3.White, ToColor(color.White))
	assert.Equal(t, epd4in3.Black, ToColor(color.RGBA{R: 10, G: 10, B: 10, A: 0xFF}))
	for c := epd4in3.Black; c <= epd4in3.White; c++ {
		assert.Equal(t, c, ToColor(Palette[c]))
	}
}

func TestBuffer_PackRoundTrip(t *testing.T) {
	t.Parallel()

	b := NewBuffer(6, 3, epd4in3.White)
	b.SetPixel(0, 0, epd4in3.Black)
	b.SetPixel(5, 0, epd4in3.DarkGray)
	b.SetPixel(3, 2, epd4in3.Gray)

	p := b.Pack()
	assert.Len(t, p.Bytes(), 2*3, "rows are padded to whole bytes")
	for i := range b.PixelCount() {
		require.Equal(t, b.PixelAt(i), p.PixelAt(i), "pixel %d", i)
	}
	assert.Equal(t, b.Colors(), p.Unpack().Colors())
}

func TestBuffer_UpdatesDevice(t *testing.T) {
	t.Parallel()

	mock := epd4in3.NewMockTransport()
	wake, reset := newPins()
	dev, err := epd4in3.New(mock, wake, reset,
		epd4in3.WithSize(4, 2),
		epd4in3.WithSleeper(epd4in3.SleeperFunc(func(time.Duration) {})))
	require.NoError(t, err)

	b := NewBuffer(4, 2, epd4in3.White)
	b.SetPixel(1, 1, epd4in3.Black)
	require.NoError(t, dev.UpdateFrame(b))

	point, err := epd4in3.Point(1, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{point.Bytes()}, mock.Writes())
}
