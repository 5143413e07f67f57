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

import "bytes"

// Extract splits a byte stream into frames. Bytes before a start byte are
// discarded, as are candidate frames whose length field is out of range or
// whose terminator is missing; scanning resumes at the next start byte.
// Parity is not checked here, callers run Validate on each frame.
//
// rest holds an incomplete trailing frame that may be completed by more input.
func Extract(stream []byte) (frames [][]byte, rest []byte) {
	for {
		idx := bytes.IndexByte(stream, StartByte)
		if idx < 0 {
			return frames, nil
		}
		stream = stream[idx:]

		n, ok := DeclaredLength(stream)
		if !ok {
			return frames, stream
		}
		if n < Overhead || n > MaxFrameLength {
			stream = stream[1:]
			continue
		}
		if len(stream) < n {
			return frames, stream
		}

		candidate := stream[:n]
		if !bytes.Equal(candidate[n-len(Terminator)-1:n-1], Terminator[:]) {
			stream = stream[1:]
			continue
		}

		out := make([]byte, n)
		copy(out, candidate)
		frames = append(frames, out)
		stream = stream[n:]
	}
}
