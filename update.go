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

package epd4in3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ZaparooProject/go-epd4in3/internal/frame"
)

// PixelSource is a row-major sequence of pixel colors, index = x + width*y.
type PixelSource interface {
	PixelCount() int
	PixelAt(i int) Color
}

// Colors is the plain slice form of a PixelSource.
type Colors []Color

// PixelCount implements PixelSource.
func (c Colors) PixelCount() int { return len(c) }

// PixelAt implements PixelSource.
func (c Colors) PixelAt(i int) Color { return c[i] }

// UpdateStats summarizes the last frame update.
type UpdateStats struct {
	// Pixels is the number of pixels in the source.
	Pixels int
	// Skipped counts background pixels that were never sent.
	Skipped int
	// Sent counts point frames written, retries included.
	Sent int
	// ColorSwitches counts set-color frames written.
	ColorSwitches int
	// Retries counts attempts that came back with a zero acknowledgement byte.
	Retries int
	// Failed counts pixels that were still unacknowledged after PixelRetries
	// attempts.
	Failed int
}

// UpdateFrame streams every non-background pixel of src to the panel as a
// point command. It is UpdateFrameContext without cancellation.
func (d *Device) UpdateFrame(src PixelSource) error {
	return d.UpdateFrameContext(context.Background(), src)
}

// UpdateFrameContext streams every non-background pixel of src to the panel.
//
// Each pixel is retried until the panel acknowledges it or PixelRetries
// attempts have been made; a pixel that never acknowledges is dropped and
// only shows up in LastUpdateStats. Write errors abort the update. ctx is
// checked between pixels, so a cancelled update never leaves a pixel half
// retried.
//
// The panel only shows the result after DisplayFrame.
func (d *Device) UpdateFrameContext(ctx context.Context, src PixelSource) error {
	if d.state == StateClosed {
		return ErrLinkClosed
	}
	if src == nil {
		return fmt.Errorf("%w: nil pixel source", ErrInvalidArgument)
	}
	n := src.PixelCount()
	if n != d.width*d.height {
		return fmt.Errorf("%w: pixel source has %d pixels, want %dx%d",
			ErrInvalidArgument, n, d.width, d.height)
	}

	stats := UpdateStats{Pixels: n}
	defer func() { d.lastStats = stats }()

	for i := range n {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("update stopped at pixel %d: %w", i, err)
		}

		c := src.PixelAt(i)
		if c == d.session.Background {
			stats.Skipped++
			continue
		}
		if !c.Valid() {
			return fmt.Errorf("pixel %d: %w: %d", i, ErrInvalidColorCode, c)
		}

		acked, err := d.updatePixel(i, c, &stats)
		if err != nil {
			return fmt.Errorf("pixel %d: %w", i, err)
		}
		if !acked {
			stats.Failed++
			Debugf("pixel %d (%d,%d) not acknowledged after %d attempts",
				i, i%d.width, i/d.width, PixelRetries)
		}
	}

	Debugf("frame update: %d pixels, %d skipped, %d sent, %d color switches, %d retries, %d failed",
		stats.Pixels, stats.Skipped, stats.Sent, stats.ColorSwitches, stats.Retries, stats.Failed)
	return nil
}

// updatePixel sends one pixel, switching the foreground color first when the
// cached one differs. It reports whether the panel acknowledged every frame of
// some attempt.
func (d *Device) updatePixel(index int, c Color, stats *UpdateStats) (bool, error) {
	x := uint16(index % d.width)
	y := uint16(index / d.width)

	point, err := Point(x, y)
	if err != nil {
		return false, err
	}

	var ack [2 * frame.AckLength]byte
	for retries := 0; retries < PixelRetries; {
		expected := 0

		if c != d.session.Foreground {
			setColor, err := SetColor(c, d.session.Background)
			if err != nil {
				return false, err
			}
			if err := d.iface.send(&setColor); err != nil {
				return false, err
			}
			d.session.Foreground = c
			stats.ColorSwitches++
			expected += frame.AckLength
		}

		if err := d.iface.send(&point); err != nil {
			return false, err
		}
		stats.Sent++
		expected += frame.AckLength

		ack = [2 * frame.AckLength]byte{}
		if err := d.iface.readAck(ack[:expected]); err != nil {
			return false, err
		}
		if bytes.IndexByte(ack[:expected], 0x00) < 0 {
			return true, nil
		}

		retries++
		stats.Retries++
	}
	return false, nil
}
