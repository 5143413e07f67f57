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
	"fmt"
	"strings"
)

// Color is one of the four tones the panel can show. Its numeric value is
// the 2-bit code sent in set-color frames.
type Color uint8

const (
	Black    Color = 0
	DarkGray Color = 1
	Gray     Color = 2
	White    Color = 3
)

// Panel defaults after reset
const (
	DefaultBackgroundColor = White
	DefaultForegroundColor = Black
)

// colorTable maps each color to its wire code and to the byte used to fill
// packed pixel memory (the 2-bit code repeated four times).
var colorTable = [...]struct {
	name string
	bit  byte
	fill byte
}{
	Black:    {name: "black", bit: 0, fill: 0x00},
	DarkGray: {name: "dark gray", bit: 1, fill: 0x55},
	Gray:     {name: "gray", bit: 2, fill: 0xAA},
	White:    {name: "white", bit: 3, fill: 0xFF},
}

// ColorFromBitValue decodes a 2-bit color code. Any value above 3 is out of
// protocol and returns ErrInvalidColorCode.
func ColorFromBitValue(v byte) (Color, error) {
	if int(v) >= len(colorTable) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidColorCode, v)
	}
	return Color(v), nil
}

// MustColor is ColorFromBitValue for data that is known to be valid. It
// panics on an out-of-range code.
func MustColor(v byte) Color {
	c, err := ColorFromBitValue(v)
	if err != nil {
		panic(err)
	}
	return c
}

// ColorFromByteValue decodes a packed fill byte (0x00, 0x55, 0xAA or 0xFF).
func ColorFromByteValue(v byte) (Color, error) {
	for c, entry := range colorTable {
		if entry.fill == v {
			return Color(c), nil
		}
	}
	return 0, fmt.Errorf("%w: fill byte 0x%02X", ErrInvalidColorCode, v)
}

// Valid reports whether c is one of the four panel tones.
func (c Color) Valid() bool {
	return int(c) < len(colorTable)
}

// BitValue returns the 2-bit wire code of the color.
func (c Color) BitValue() byte {
	return colorTable[c].bit
}

// ByteValue returns a byte filled with four pixels of this color.
func (c Color) ByteValue() byte {
	return colorTable[c].fill
}

// Inverse maps Black to White and Gray to DarkGray, and back.
func (c Color) Inverse() Color {
	return White - c
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
	return colorTable[c].name
}

// ParseColor accepts a color name as printed by String, with "_", "-" or no
// separator in "dark gray", the spelling "grey", or a 2-bit code "0".."3".
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("_", " ", "-", " ", "grey", "gray").Replace(name)
	if name == "darkgray" {
		name = "dark gray"
	}
	for c, entry := range colorTable {
		if entry.name == name {
			return Color(c), nil
		}
	}
	if len(name) == 1 && name[0] >= '0' && name[0] <= '9' {
		return ColorFromBitValue(name[0] - '0')
	}
	return 0, fmt.Errorf("%w: unknown color %q", ErrInvalidColorCode, s)
}
