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

package frame

// Frame markers
const (
	StartByte = 0xA5 // First byte of every frame
)

// Terminator closes the header, opcode and argument section of a frame. The
// parity byte follows it.
var Terminator = [4]byte{0xCC, 0x33, 0xC3, 0x3C}

// Frame size limits
const (
	HeaderLength   = 4    // start byte + 2 length bytes + opcode
	Overhead       = 9    // header + terminator + parity
	MaxFrameLength = 1033 // largest frame the panel accepts
	MaxArgsLength  = MaxFrameLength - Overhead
)

// AckLength is the number of bytes the panel answers per command ("OK").
const AckLength = 2

// Ack is the panel reply to an accepted command.
var Ack = []byte{'O', 'K'}
