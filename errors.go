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
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-epd4in3/internal/frame"
)

// Error categories
var (
	// Link errors, returned by transports and control lines
	ErrSerialRead   = errors.New("serial read failed")
	ErrSerialWrite  = errors.New("serial write failed")
	ErrGPIO         = errors.New("gpio operation failed")
	ErrTimeout      = errors.New("operation timeout")
	ErrLinkClosed   = errors.New("transport is closed")
	ErrNoAck        = errors.New("panel did not acknowledge command")
	ErrDeviceAbsent = errors.New("panel not found")

	// Frame construction errors, local and recoverable
	ErrFrameTooLarge   = frame.ErrTooLarge
	ErrInvalidArgument = errors.New("invalid argument")

	// Data errors
	ErrInvalidColorCode = errors.New("invalid color code")
)

// TransportError describes a failed link operation. Kind is one of the link
// sentinels above and Err is the cause reported by the driver underneath;
// errors.Is matches both.
type TransportError struct {
	Kind error  // Error category
	Err  error  // Underlying error, may be nil
	Op   string // Operation that failed
	Port string // Port or pin identifier
}

func (e *TransportError) Error() string {
	var sb strings.Builder
	_, _ = sb.WriteString(e.Op)
	if e.Port != "" {
		_, _ = sb.WriteString(" " + e.Port)
	}
	_, _ = sb.WriteString(": ")
	_, _ = sb.WriteString(e.Kind.Error())
	if e.Err != nil {
		_, _ = sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewTransportError creates a transport error with consistent formatting
func NewTransportError(op, port string, kind, err error) *TransportError {
	return &TransportError{
		Op:   op,
		Port: port,
		Kind: kind,
		Err:  err,
	}
}

// NewWriteError creates a serial write error
func NewWriteError(op, port string, err error) *TransportError {
	return NewTransportError(op, port, ErrSerialWrite, err)
}

// NewReadError creates a serial read error
func NewReadError(op, port string, err error) *TransportError {
	return NewTransportError(op, port, ErrSerialRead, err)
}

// NewGPIOError creates a control line error
func NewGPIOError(op, pin string, err error) *TransportError {
	return NewTransportError(op, pin, ErrGPIO, err)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTimeout, nil)
}

// IsFrameError reports whether err came from building a frame. These are
// caller mistakes: nothing was sent and the call can be repeated with
// corrected input.
func IsFrameError(err error) bool {
	return errors.Is(err, ErrFrameTooLarge) || errors.Is(err, ErrInvalidArgument)
}

// IsRetryable returns true if the error is potentially retryable
func IsRetryable(err error) bool {
	if err == nil || IsFatal(err) {
		return false
	}
	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrSerialRead),
		errors.Is(err, ErrSerialWrite),
		errors.Is(err, ErrNoAck):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error indicates the serial device or its
// control lines are gone and the driver should be discarded.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if isDeviceGoneError(err) {
		return true
	}
	switch {
	case errors.Is(err, ErrLinkClosed),
		errors.Is(err, ErrDeviceAbsent),
		errors.Is(err, ErrGPIO),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// isDeviceGoneError checks for OS-level errors raised when a USB serial
// adapter is unplugged during I/O.
func isDeviceGoneError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return true
		}
	}
	return false
}

// =============================================================================
// Wire Trace
// =============================================================================
// TraceableError carries the last frames exchanged with the panel so that
// callers can see what was on the wire when an operation failed.

// TraceDirection indicates the direction of wire data
type TraceDirection string

const (
	// TraceTX indicates data sent to the panel
	TraceTX TraceDirection = "TX"
	// TraceRX indicates data received from the panel
	TraceRX TraceDirection = "RX"
)

// TraceEntry represents a single wire-level operation
type TraceEntry struct {
	Timestamp time.Time
	Direction TraceDirection
	Note      string
	Data      []byte
}

// String formats a trace entry for display
func (e TraceEntry) String() string {
	ts := e.Timestamp.Format("15:04:05.000")
	if e.Note != "" {
		return fmt.Sprintf("[%s] %s: %s (%s)", ts, e.Direction, formatHexBytes(e.Data), e.Note)
	}
	return fmt.Sprintf("[%s] %s: %s", ts, e.Direction, formatHexBytes(e.Data))
}

// TraceableError wraps an error with wire-level trace data:
//
//	var te *epd4in3.TraceableError
//	if errors.As(err, &te) {
//	    log.Printf("Wire trace:\n%s", te.FormatTrace())
//	}
type TraceableError struct {
	Err   error
	Port  string
	Trace []TraceEntry
}

func (e *TraceableError) Error() string {
	return e.Err.Error()
}

func (e *TraceableError) Unwrap() error {
	return e.Err
}

// FormatTrace returns a human-readable trace log
func (e *TraceableError) FormatTrace() string {
	if len(e.Trace) == 0 {
		return fmt.Sprintf("[%s] (no trace data)", e.Port)
	}

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "[%s] Wire trace (%d entries):\n", e.Port, len(e.Trace))
	for _, entry := range e.Trace {
		direction := ">"
		if entry.Direction == TraceRX {
			direction = "<"
		}
		if entry.Note != "" {
			_, _ = fmt.Fprintf(&sb, "  %s %s (%s)\n", direction, formatHexBytes(entry.Data), entry.Note)
		} else {
			_, _ = fmt.Fprintf(&sb, "  %s %s\n", direction, formatHexBytes(entry.Data))
		}
	}
	return sb.String()
}

// formatHexBytes formats a byte slice as space-separated hex values,
// truncated after 32 bytes.
func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	const limit = 32
	shown := data
	if len(shown) > limit {
		shown = shown[:limit]
	}
	parts := make([]string, len(shown))
	for i, b := range shown {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	out := strings.Join(parts, " ")
	if len(data) > limit {
		out += fmt.Sprintf(" ... (%d bytes total)", len(data))
	}
	return out
}

// TraceBuffer keeps the most recent wire operations in a bounded ring.
type TraceBuffer struct {
	port    string
	entries []TraceEntry
	maxSize int
}

// NewTraceBuffer creates a trace buffer holding at most maxSize entries
func NewTraceBuffer(port string, maxSize int) *TraceBuffer {
	if maxSize <= 0 {
		maxSize = 16
	}
	return &TraceBuffer{
		port:    port,
		entries: make([]TraceEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// RecordTX records bytes written to the panel
func (tb *TraceBuffer) RecordTX(data []byte, note string) {
	tb.record(TraceTX, data, note)
}

// RecordRX records bytes read from the panel
func (tb *TraceBuffer) RecordRX(data []byte, note string) {
	tb.record(TraceRX, data, note)
}

func (tb *TraceBuffer) record(dir TraceDirection, data []byte, note string) {
	entry := TraceEntry{
		Direction: dir,
		Data:      append([]byte(nil), data...),
		Timestamp: time.Now(),
		Note:      note,
	}
	if len(tb.entries) >= tb.maxSize {
		copy(tb.entries, tb.entries[1:])
		tb.entries[len(tb.entries)-1] = entry
		return
	}
	tb.entries = append(tb.entries, entry)
}

// Entries returns a copy of the recorded entries, oldest first
func (tb *TraceBuffer) Entries() []TraceEntry {
	out := make([]TraceEntry, len(tb.entries))
	copy(out, tb.entries)
	return out
}

// WrapError attaches the collected trace to err. Returns nil if err is nil.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &TraceableError{
		Err:   err,
		Port:  tb.port,
		Trace: tb.Entries(),
	}
}

// Clear resets the trace buffer
func (tb *TraceBuffer) Clear() {
	tb.entries = tb.entries[:0]
}

// GetTrace extracts trace data from an error, returning nil if not present
func GetTrace(err error) *TraceableError {
	var te *TraceableError
	if errors.As(err, &te) {
		return te
	}
	return nil
}
