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
	"sync"
	"time"
)

// Transport is the serial link to the panel. The UART implementation lives
// in transport/uart.
type Transport interface {
	// Write sends all of data or returns an error.
	Write(data []byte) error

	// Read fills buf on a best-effort basis: a byte that cannot be read is
	// skipped and its slot keeps whatever it held before. An error is only
	// returned when the link itself is unusable.
	Read(buf []byte) error

	// Close closes the transport connection
	Close() error
}

// Sleeper blocks the caller for the given duration. Reset and wake pulses
// are timed through it.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(d time.Duration)

// Sleep calls f(d).
func (f SleeperFunc) Sleep(d time.Duration) {
	f(d)
}

// realSleeper sleeps on the wall clock.
var realSleeper = SleeperFunc(time.Sleep)

// MockTransport provides a mock implementation of Transport for testing.
// By default every read is answered with "OK" bytes; Queue overrides the
// answers for the next reads.
type MockTransport struct {
	writeErr  error
	readErr   error
	writes    [][]byte
	responses [][]byte
	ack       []byte
	mu        sync.Mutex
	reads     int
	closed    bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		ack: []byte{'O', 'K'},
	}
}

// Write implements Transport
func (m *MockTransport) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrLinkClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes = append(m.writes, append([]byte(nil), data...))
	return nil
}

// Read implements Transport. A queued response shorter than buf leaves the
// remaining bytes untouched, mirroring a read where bytes went missing.
func (m *MockTransport) Read(buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrLinkClosed
	}
	if m.readErr != nil {
		return m.readErr
	}
	m.reads++

	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		copy(buf, resp)
		return nil
	}
	for i := range buf {
		buf[i] = m.ack[i%len(m.ack)]
	}
	return nil
}

// Close implements Transport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helper methods

// Queue appends responses that the next reads return, in order.
func (m *MockTransport) Queue(responses ...[]byte) {
	m.mu.Lock()
	m.responses = append(m.responses, responses...)
	m.mu.Unlock()
}

// SetWriteError makes every subsequent write fail with err (nil clears it).
func (m *MockTransport) SetWriteError(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// SetReadError makes every subsequent read fail with err (nil clears it).
func (m *MockTransport) SetReadError(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// Writes returns a copy of every buffer written so far.
func (m *MockTransport) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// WriteCount returns how many writes were made.
func (m *MockTransport) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

// ReadCount returns how many reads were made.
func (m *MockTransport) ReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// IsClosed reports whether Close was called.
func (m *MockTransport) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reset forgets recorded writes and reads and clears injected errors.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.writes = nil
	m.responses = nil
	m.reads = 0
	m.writeErr = nil
	m.readErr = nil
	m.mu.Unlock()
}

var _ Transport = (*MockTransport)(nil)
