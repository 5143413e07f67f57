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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, opcode byte, args []byte) []byte {
	t.Helper()
	f, err := Build(opcode, args)
	require.NoError(t, err)
	return f.Bytes()
}

func TestValidate_RoundTrip(t *testing.T) {
	t.Parallel()

	args := []byte{0x00, 0xFF, 0x00, 0xFF, 0x00, 0x80}
	opcode, got, err := Validate(mustBuild(t, 0x26, args))
	require.NoError(t, err)
	assert.Equal(t, byte(0x26), opcode)
	assert.Equal(t, args, got)
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	valid := []byte{0xA5, 0x00, 0x09, 0x08, 0xCC, 0x33, 0xC3, 0x3C, 0xA4}

	corrupt := func(i int, v byte) []byte {
		out := append([]byte(nil), valid...)
		out[i] = v
		return out
	}

	tests := []struct {
		want error
		name string
		buf  []byte
	}{
		{name: "empty", buf: nil, want: ErrShortFrame},
		{name: "truncated", buf: valid[:8], want: ErrShortFrame},
		{name: "bad start", buf: corrupt(0, 0x5A), want: ErrBadStart},
		{name: "bad length", buf: corrupt(2, 0x0A), want: ErrLengthMismatch},
		{name: "bad terminator", buf: corrupt(5, 0x00), want: ErrBadTerminator},
		{name: "bad parity", buf: corrupt(8, 0x00), want: ErrParityMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Validate(tt.buf)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()

	clearFrame := mustBuild(t, 0x2E, nil)
	point := mustBuild(t, 0x20, []byte{0x00, 0x0A, 0x00, 0x0A})

	t.Run("back to back frames", func(t *testing.T) {
		t.Parallel()
		stream := append(append([]byte(nil), clearFrame...), point...)
		frames, rest := Extract(stream)
		assert.Equal(t, [][]byte{clearFrame, point}, frames)
		assert.Empty(t, rest)
	})

	t.Run("leading noise is skipped", func(t *testing.T) {
		t.Parallel()
		stream := append([]byte{0x00, 0x13, 0x37}, clearFrame...)
		frames, rest := Extract(stream)
		assert.Equal(t, [][]byte{clearFrame}, frames)
		assert.Empty(t, rest)
	})

	t.Run("incomplete tail is returned", func(t *testing.T) {
		t.Parallel()
		stream := append(append([]byte(nil), clearFrame...), point[:6]...)
		frames, rest := Extract(stream)
		assert.Equal(t, [][]byte{clearFrame}, frames)
		assert.Equal(t, point[:6], rest)

		more, rest := Extract(append(rest, point[6:]...))
		assert.Equal(t, [][]byte{point}, more)
		assert.Empty(t, rest)
	})

	t.Run("stray start byte resyncs", func(t *testing.T) {
		t.Parallel()
		stream := append([]byte{StartByte, 0x00, 0x01}, point...)
		frames, _ := Extract(stream)
		assert.Equal(t, [][]byte{point}, frames)
	})
}
