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

// Package uart drives the panel over a serial port: 115200 baud, 8 data
// bits, no parity, one stop bit, no flow control.
package uart

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
	"github.com/ZaparooProject/go-epd4in3/internal/syncutil"
	"go.bug.st/serial"
)

// DefaultTraceSize is the number of wire operations kept for error reports.
const DefaultTraceSize = 32

// Transport implements the epd4in3.Transport interface for UART communication.
type Transport struct {
	port     serial.Port
	trace    *epd4in3.TraceBuffer
	portName string
	mu       syncutil.Mutex
	closed   bool
}

type options struct {
	readTimeout time.Duration
	baudRate    int
	traceSize   int
}

// Option configures a Transport.
type Option func(*options)

// WithReadTimeout sets how long a single byte read may block. A read that
// times out leaves the destination byte untouched.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// WithBaudRate overrides the line speed. The panel ships at 115200.
func WithBaudRate(baud int) Option {
	return func(o *options) {
		o.baudRate = baud
	}
}

// WithTraceSize sets how many wire operations are attached to errors.
func WithTraceSize(n int) Option {
	return func(o *options) {
		o.traceSize = n
	}
}

func newOptions(opts []Option) options {
	o := options{
		readTimeout: getWindowsTimeout(),
		baudRate:    epd4in3.BaudRate,
		traceSize:   DefaultTraceSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// isWindows returns true if running on Windows
func isWindows() bool {
	return runtime.GOOS == "windows"
}

// getWindowsTimeout returns the platform default read timeout
func getWindowsTimeout() time.Duration {
	if isWindows() {
		return 100 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// windowsPostWriteDelay gives the Windows driver time to flush its buffer
func windowsPostWriteDelay() {
	if isWindows() {
		time.Sleep(15 * time.Millisecond)
	}
}

// New opens portName and returns a transport for it.
func New(portName string, opts ...Option) (*Transport, error) {
	o := newOptions(opts)
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: o.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	t, err := newTransport(port, portName, o)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return t, nil
}

// NewWithPort wraps an already opened port. The port is closed by Close.
func NewWithPort(port serial.Port, portName string, opts ...Option) (*Transport, error) {
	if port == nil {
		return nil, fmt.Errorf("%w: nil serial port", epd4in3.ErrInvalidArgument)
	}
	return newTransport(port, portName, newOptions(opts))
}

func newTransport(port serial.Port, portName string, o options) (*Transport, error) {
	if err := port.SetReadTimeout(o.readTimeout); err != nil {
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		epd4in3.Debugf("UART %s: input reset failed: %v", portName, err)
	}
	return &Transport{
		port:     port,
		portName: portName,
		trace:    epd4in3.NewTraceBuffer(portName, o.traceSize),
	}, nil
}

// Write sends all of data, then waits for the OS to put it on the wire.
func (t *Transport) Write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return epd4in3.NewWriteError("write", t.portName, epd4in3.ErrLinkClosed)
	}

	t.trace.RecordTX(data, "")
	for written := 0; written < len(data); {
		n, err := t.port.Write(data[written:])
		if err != nil {
			return t.trace.WrapError(epd4in3.NewWriteError("write", t.portName, err))
		}
		if n == 0 {
			return t.trace.WrapError(epd4in3.NewWriteError("write", t.portName, io.ErrShortWrite))
		}
		written += n
	}

	if err := t.drainWithRetry("write"); err != nil {
		return t.trace.WrapError(epd4in3.NewWriteError("drain", t.portName, err))
	}
	windowsPostWriteDelay()
	return nil
}

// Read fills buf one byte at a time. A byte that does not arrive within the
// read timeout is skipped and its slot keeps its previous value.
func (t *Transport) Read(buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return epd4in3.NewReadError("read", t.portName, epd4in3.ErrLinkClosed)
	}

	var one [1]byte
	got := make([]byte, 0, len(buf))
	for i := range buf {
		n, err := t.port.Read(one[:])
		if err != nil {
			t.trace.RecordRX(got, "partial")
			return t.trace.WrapError(epd4in3.NewReadError("read", t.portName, err))
		}
		if n == 0 {
			continue
		}
		buf[i] = one[0]
		got = append(got, one[0])
	}

	note := ""
	if len(got) < len(buf) {
		note = fmt.Sprintf("%d of %d bytes", len(got), len(buf))
	}
	t.trace.RecordRX(got, note)
	return nil
}

// DiscardInput drops whatever the panel sent that has not been read yet.
func (t *Transport) DiscardInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return epd4in3.ErrLinkClosed
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("UART input reset failed: %w", err)
	}
	return nil
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("UART set timeout failed: %w", err)
	}
	return nil
}

// Trace returns the most recent wire operations, oldest first.
func (t *Transport) Trace() []epd4in3.TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trace.Entries()
}

// PortName returns the name the transport was opened with.
func (t *Transport) PortName() string {
	return t.portName
}

// Close closes the transport connection. Closing twice is a no-op.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// IsConnected returns true until the transport is closed
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil && !t.closed
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

var errDrainRetries = errors.New("drain kept being interrupted")

// drainWithRetry performs port drain with retry logic for interrupted system calls
func (t *Transport) drainWithRetry(operation string) error {
	const maxRetries = 3
	baseDelay := 2 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := t.port.Drain()
		if err == nil {
			return nil
		}
		if !isInterruptedSystemCall(err) {
			return fmt.Errorf("UART %s drain failed: %w", operation, err)
		}
		if attempt < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<attempt)) // 2ms, 4ms
		}
	}

	return fmt.Errorf("UART %s: %w after %d attempts", operation, errDrainRetries, maxRetries)
}

var _ epd4in3.Transport = (*Transport)(nil)
