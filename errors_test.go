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
	"testing"

	"github.com/ZaparooProject/go-epd4in3/internal/frame"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "timeout", err: ErrTimeout, want: true},
		{name: "serial read", err: ErrSerialRead, want: true},
		{name: "serial write", err: ErrSerialWrite, want: true},
		{name: "no ack", err: ErrNoAck, want: true},
		{name: "wrapped no ack", err: fmt.Errorf("handshake: %w", ErrNoAck), want: true},
		{name: "gpio is fatal", err: ErrGPIO, want: false},
		{name: "closed link", err: ErrLinkClosed, want: false},
		{name: "invalid argument", err: ErrInvalidArgument, want: false},
		{name: "frame too large", err: ErrFrameTooLarge, want: false},
		{name: "unrelated", err: errors.New("boom"), want: false},
		{
			name: "write error over unplugged adapter",
			err:  NewWriteError("write", "/dev/ttyUSB0", syscall.ENODEV),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "closed link", err: ErrLinkClosed, want: true},
		{name: "device absent", err: ErrDeviceAbsent, want: true},
		{name: "gpio", err: NewGPIOError("reset", "GPIO4", errors.New("busy")), want: true},
		{name: "eof", err: fmt.Errorf("read: %w", io.EOF), want: true},
		{name: "closed pipe", err: io.ErrClosedPipe, want: true},
		{name: "eio", err: syscall.EIO, want: true},
		{name: "enxio", err: fmt.Errorf("open: %w", syscall.ENXIO), want: true},
		{name: "enodev", err: syscall.ENODEV, want: true},
		{name: "eagain", err: syscall.EAGAIN, want: false},
		{name: "timeout", err: ErrTimeout, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFrameError(t *testing.T) {
	t.Parallel()

	if !IsFrameError(frame.ErrTooLarge) {
		t.Error("frame.ErrTooLarge should be a frame error")
	}
	if !IsFrameError(fmt.Errorf("Bmp: %w", ErrInvalidArgument)) {
		t.Error("wrapped ErrInvalidArgument should be a frame error")
	}
	if IsFrameError(ErrSerialWrite) {
		t.Error("ErrSerialWrite is not a frame error")
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("input/output error")
	err := NewReadError("read", "/dev/ttyUSB0", cause)

	if got, want := err.Error(), "read /dev/ttyUSB0: serial read failed: input/output error"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrSerialRead) {
		t.Error("errors.Is should match the kind")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the cause")
	}

	var te *TransportError
	if !errors.As(fmt.Errorf("pixel 3: %w", err), &te) {
		t.Fatal("errors.As should find the TransportError")
	}
	if te.Port != "/dev/ttyUSB0" || te.Op != "read" {
		t.Errorf("unexpected fields: %+v", te)
	}
}

func TestNewTimeoutError(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("handshake", "COM3")
	if got, want := err.Error(), "handshake COM3: operation timeout"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if len(err.Unwrap()) != 1 {
		t.Errorf("Unwrap() = %v, want only the kind", err.Unwrap())
	}
	if !IsRetryable(err) {
		t.Error("timeout should be retryable")
	}
}

func TestNewGPIOError_NoPin(t *testing.T) {
	t.Parallel()

	err := NewGPIOError("host init", "", errors.New("no drivers"))
	if got, want := err.Error(), "host init: gpio operation failed: no drivers"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// =============================================================================
// Trace Tests
// =============================================================================

func TestTraceBuffer_BasicOperations(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("/dev/ttyUSB0", 10)
	tb.RecordTX([]byte{0xA5, 0x00, 0x09, 0x00, 0xCC, 0x33, 0xC3, 0x3C, 0xAC}, "Handshake")
	tb.RecordRX([]byte{'O', 'K'}, "ack")

	wrapped := tb.WrapError(ErrNoAck)

	te := GetTrace(wrapped)
	if te == nil {
		t.Fatal("WrapError should return a TraceableError")
	}
	if len(te.Trace) != 2 {
		t.Errorf("expected 2 trace entries, got %d", len(te.Trace))
	}
	if te.Trace[0].Direction != TraceTX || te.Trace[1].Direction != TraceRX {
		t.Errorf("unexpected directions: %v, %v", te.Trace[0].Direction, te.Trace[1].Direction)
	}
	if !errors.Is(wrapped, ErrNoAck) {
		t.Error("errors.Is should see through TraceableError")
	}
	if wrapped.Error() != ErrNoAck.Error() {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestTraceableError_FormatTrace(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("/dev/ttyAMA0", 10)
	tb.RecordTX([]byte{0xA5, 0x00, 0x0D, 0x20}, "Point")
	tb.RecordRX([]byte{0x00, 0x00}, "")

	te := GetTrace(tb.WrapError(errors.New("no ack")))
	formatted := te.FormatTrace()

	for _, want := range []string{"/dev/ttyAMA0", "> A5 00 0D 20 (Point)", "< 00 00", "2 entries"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("FormatTrace() missing %q:\n%s", want, formatted)
		}
	}

	empty := &TraceableError{Err: io.EOF, Port: "x"}
	if got := empty.FormatTrace(); got != "[x] (no trace data)" {
		t.Errorf("FormatTrace() on empty trace = %q", got)
	}
}

func TestTraceBuffer_CircularBuffer(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("test", 3)
	for i, note := range []string{"first", "second", "third", "fourth"} {
		tb.RecordTX([]byte{byte(i)}, note)
	}

	entries := tb.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Note != "second" || entries[2].Note != "fourth" {
		t.Errorf("unexpected order: %q .. %q", entries[0].Note, entries[2].Note)
	}

	tb.Clear()
	if len(tb.Entries()) != 0 {
		t.Error("Clear should drop all entries")
	}
}

func TestTraceBuffer_Defaults(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("test", 0)
	if tb.WrapError(nil) != nil {
		t.Error("WrapError(nil) should return nil")
	}
	if GetTrace(errors.New("plain")) != nil {
		t.Error("GetTrace on a plain error should return nil")
	}
	for i := range 20 {
		tb.RecordRX([]byte{byte(i)}, "")
	}
	if len(tb.Entries()) != 16 {
		t.Errorf("default capacity = %d, want 16", len(tb.Entries()))
	}
}

func TestTraceEntry_String(t *testing.T) {
	t.Parallel()

	entry := TraceEntry{Direction: TraceTX, Data: []byte{0xA5, 0x00}, Note: "start"}
	if got := entry.String(); !strings.Contains(got, "TX: A5 00 (start)") {
		t.Errorf("String() = %q", got)
	}
}

func TestFormatHexBytes(t *testing.T) {
	t.Parallel()

	if got := formatHexBytes(nil); got != "(empty)" {
		t.Errorf("formatHexBytes(nil) = %q", got)
	}
	long := make([]byte, 40)
	got := formatHexBytes(long)
	if !strings.HasSuffix(got, "... (40 bytes total)") {
		t.Errorf("formatHexBytes(long) = %q", got)
	}
}
