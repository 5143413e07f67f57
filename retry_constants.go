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

import "time"

// PixelRetries is how many times the update engine sends a pixel before it
// gives up on it and moves on.
const PixelRetries = 10

// Reset pulse on the reset line. The panel needs the long high phase to boot;
// these timings come from the vendor bring-up code and are not shortened.
const (
	ResetLowDelay    = 255 * time.Millisecond
	ResetHighDelay   = 3000 * time.Millisecond
	ResetSettleDelay = 255 * time.Millisecond
)

// Wake pulse on the wake line, used to leave deep sleep.
const (
	WakeLowDelay    = 255 * time.Millisecond
	WakeHighDelay   = 255 * time.Millisecond
	WakeSettleDelay = 255 * time.Millisecond
)

// BaudRate is the fixed UART speed of the panel.
const BaudRate = 115200
