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
	"encoding/binary"
	"errors"
	"fmt"
)

// Codec errors
var (
	ErrTooLarge       = errors.New("frame too large")
	ErrShortFrame     = errors.New("frame shorter than minimum length")
	ErrBadStart       = errors.New("frame does not begin with start byte")
	ErrLengthMismatch = errors.New("frame length field does not match frame size")
	ErrBadTerminator  = errors.New("frame terminator missing")
	ErrParityMismatch = errors.New("frame parity mismatch")
)

// Args is a bounded, append-only argument buffer. Appends past MaxArgsLength
// are refused and remembered, so a builder can chain appends and check Err once.
type Args struct {
	err error
	buf [MaxArgsLength]byte
	n   int
}

// AppendByte appends a single byte.
func (a *Args) AppendByte(b byte) {
	if !a.reserve(1) {
		return
	}
	a.buf[a.n] = b
	a.n++
}

// AppendUint16 appends v big-endian.
func (a *Args) AppendUint16(v uint16) {
	if !a.reserve(2) {
		return
	}
	binary.BigEndian.PutUint16(a.buf[a.n:], v)
	a.n += 2
}

// AppendBytes appends p verbatim.
func (a *Args) AppendBytes(p []byte) {
	if !a.reserve(len(p)) {
		return
	}
	a.n += copy(a.buf[a.n:], p)
}

func (a *Args) reserve(n int) bool {
	if a.err != nil {
		return false
	}
	if a.n+n > MaxArgsLength {
		a.err = fmt.Errorf("%w: %d argument bytes exceed %d", ErrTooLarge, a.n+n, MaxArgsLength)
		return false
	}
	return true
}

// Len returns the number of argument bytes written so far.
func (a *Args) Len() int {
	return a.n
}

// Bytes returns the argument bytes. The slice aliases the buffer.
func (a *Args) Bytes() []byte {
	return a.buf[:a.n]
}

// Err returns the first overflow recorded by an append.
func (a *Args) Err() error {
	return a.err
}

// Frame is an encoded command frame. The zero value is not a valid frame.
type Frame struct {
	bytes [MaxFrameLength]byte
	n     int
}

// Bytes returns a copy of the encoded frame.
func (f *Frame) Bytes() []byte {
	out := make([]byte, f.n)
	copy(out, f.bytes[:f.n])
	return out
}

// Len returns the encoded size in bytes.
func (f *Frame) Len() int {
	return f.n
}

// Opcode returns the command byte of the frame.
func (f *Frame) Opcode() byte {
	if f.n < HeaderLength {
		return 0
	}
	return f.bytes[3]
}

// Args returns a copy of the argument section.
func (f *Frame) Args() []byte {
	if f.n < Overhead {
		return nil
	}
	out := make([]byte, f.n-Overhead)
	copy(out, f.bytes[HeaderLength:f.n-len(Terminator)-1])
	return out
}

// Build encodes opcode and args into a frame:
//
//	[A5][len_hi][len_lo][opcode][args...][CC 33 C3 3C][parity]
//
// len counts every byte of the frame. ErrTooLarge is returned when the frame
// would exceed MaxFrameLength.
func Build(opcode byte, args []byte) (Frame, error) {
	total := Overhead + len(args)
	if total > MaxFrameLength {
		return Frame{}, fmt.Errorf("%w: %d bytes exceed %d", ErrTooLarge, total, MaxFrameLength)
	}

	var f Frame
	f.bytes[0] = StartByte
	binary.BigEndian.PutUint16(f.bytes[1:3], uint16(total))
	f.bytes[3] = opcode
	pos := HeaderLength
	pos += copy(f.bytes[pos:], args)
	pos += copy(f.bytes[pos:], Terminator[:])
	f.bytes[pos] = Parity(f.bytes[:pos])
	f.n = pos + 1
	return f, nil
}

// BuildArgs is Build for an Args buffer, surfacing any overflow it recorded.
func BuildArgs(opcode byte, args *Args) (Frame, error) {
	if args == nil {
		return Build(opcode, nil)
	}
	if err := args.Err(); err != nil {
		return Frame{}, err
	}
	return Build(opcode, args.Bytes())
}
