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

package testing

import (
	"errors"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-epd4in3/internal/syncutil"
)

// ErrTransportClosed is returned after Close.
var ErrTransportClosed = errors.New("simulator transport closed")

// SimulatorTransport adapts an io.ReadWriter, normally a VirtualEPD or a
// LossyConnection around one, to the driver's Transport interface. It lives
// here rather than in the driver package so that package's tests can import
// it without a cycle.
type SimulatorTransport struct {
	backend io.ReadWriter
	writes  [][]byte
	mu      syncutil.Mutex
	closed  bool
}

// NewSimulatorTransport creates a new transport backed by rw
func NewSimulatorTransport(rw io.ReadWriter) *SimulatorTransport {
	return &SimulatorTransport{backend: rw}
}

// Write sends data to the backend.
func (t *SimulatorTransport) Write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}
	t.writes = append(t.writes, append([]byte(nil), data...))

	n, err := t.backend.Write(data)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(data))
	}
	return nil
}

// Read fills buf with whatever the backend has, stopping early when it runs
// dry. Slots that were not filled keep their previous content.
func (t *SimulatorTransport) Read(buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}
	filled := 0
	for filled < len(buf) {
		n, err := t.backend.Read(buf[filled:])
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		if n == 0 {
			break
		}
		filled += n
	}
	return nil
}

// Close closes the transport
func (t *SimulatorTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

// IsClosed reports whether Close was called.
func (t *SimulatorTransport) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Writes returns a copy of every buffer written so far.
func (t *SimulatorTransport) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}

// Backend returns the wrapped reader/writer.
func (t *SimulatorTransport) Backend() io.ReadWriter {
	return t.backend
}
