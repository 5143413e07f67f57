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

// Package graphics provides pixel buffers for the 4.3" panel: an unpacked
// buffer with one Color per pixel that the update engine consumes directly,
// and a packed 2-bit form for storage and transfer.
package graphics

// Rotation is the orientation drawing coordinates are mapped through before
// they land in a buffer.
type Rotation int

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (r Rotation) String() string {
	switch r {
	case Rotate0:
		return "0"
	case Rotate90:
		return "90"
	case Rotate180:
		return "180"
	case Rotate270:
		return "270"
	default:
		return "invalid"
	}
}

// swapsAxes reports whether logical x runs along the panel's y axis.
func (r Rotation) swapsAxes() bool {
	return r == Rotate90 || r == Rotate270
}

// OutsideDisplay reports whether logical (x,y) falls outside a w x h panel
// under rotation r. For Rotate90 and Rotate270 the logical surface is h wide
// and w tall.
func OutsideDisplay(x, y, w, h int, r Rotation) bool {
	if x < 0 || y < 0 {
		return true
	}
	if r.swapsAxes() {
		return y >= w || x >= h
	}
	return x >= w || y >= h
}

// FindPosition maps logical (x,y) to a row-major index into a w x h panel
// buffer. It returns -1 for coordinates outside the panel, so the index is
// always in [0, w*h) when it is not negative.
func FindPosition(x, y, w, h int, r Rotation) int {
	if OutsideDisplay(x, y, w, h, r) {
		return -1
	}
	switch r {
	case Rotate90:
		return (w - 1 - y) + w*x
	case Rotate180:
		return w*h - 1 - (x + w*y)
	case Rotate270:
		return y + w*(h-1-x)
	default:
		return x + w*y
	}
}
