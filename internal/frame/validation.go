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

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Validate checks a complete frame and returns its opcode and a copy of its
// arguments. It is the inverse of Build.
func Validate(buf []byte) (opcode byte, args []byte, err error) {
	if len(buf) < Overhead {
		return 0, nil, fmt.Errorf("%w: got %d bytes", ErrShortFrame, len(buf))
	}
	if len(buf) > MaxFrameLength {
		return 0, nil, fmt.Errorf("%w: got %d bytes", ErrTooLarge, len(buf))
	}
	if buf[0] != StartByte {
		return 0, nil, fmt.Errorf("%w: got 0x%02X", ErrBadStart, buf[0])
	}

	declared := int(binary.BigEndian.Uint16(buf[1:3]))
	if declared != len(buf) {
		return 0, nil, fmt.Errorf("%w: declared %d, got %d", ErrLengthMismatch, declared, len(buf))
	}

	termStart := len(buf) - len(Terminator) - 1
	if !bytes.Equal(buf[termStart:len(buf)-1], Terminator[:]) {
		return 0, nil, ErrBadTerminator
	}

	if want := Parity(buf[:len(buf)-1]); want != buf[len(buf)-1] {
		return 0, nil, fmt.Errorf("%w: computed 0x%02X, got 0x%02X", ErrParityMismatch, want, buf[len(buf)-1])
	}

	args = make([]byte, termStart-HeaderLength)
	copy(args, buf[HeaderLength:termStart])
	return buf[3], args, nil
}

// DeclaredLength reads the length field of a frame header. ok is false when
// buf is too short to hold one.
func DeclaredLength(buf []byte) (n int, ok bool) {
	if len(buf) < 3 {
		return 0, false
	}
	return int(binary.BigEndian.Uint16(buf[1:3])), true
}
