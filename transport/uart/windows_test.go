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

package uart

import (
	"runtime"
	"testing"
	"time"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
)

// TestWindowsPlatformDetection tests Windows platform detection utility
func TestWindowsPlatformDetection(t *testing.T) {
	t.Parallel()

	if got, want := isWindows(), runtime.GOOS == "windows"; got != want {
		t.Errorf("isWindows() = %v, want %v", got, want)
	}
}

// TestWindowsSpecificTimeout tests the platform default read timeout
func TestWindowsSpecificTimeout(t *testing.T) {
	t.Parallel()

	want := 50 * time.Millisecond
	if runtime.GOOS == "windows" {
		want = 100 * time.Millisecond
	}
	if got := getWindowsTimeout(); got != want {
		t.Errorf("getWindowsTimeout() = %v, want %v", got, want)
	}
}

// TestWindowsPostWriteDelay tests Windows-specific post-write delay
func TestWindowsPostWriteDelay(t *testing.T) {
	t.Parallel()

	start := time.Now()
	windowsPostWriteDelay()
	elapsed := time.Since(start)

	if runtime.GOOS == "windows" {
		if elapsed < 15*time.Millisecond {
			t.Errorf("windowsPostWriteDelay() on Windows took %v, expected at least 15ms", elapsed)
		}
	} else if elapsed > 5*time.Millisecond {
		t.Errorf("windowsPostWriteDelay() on non-Windows took %v, expected less than 5ms", elapsed)
	}
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	o := newOptions(nil)
	if o.baudRate != epd4in3.BaudRate {
		t.Errorf("baud rate = %d, want %d", o.baudRate, epd4in3.BaudRate)
	}
	if o.readTimeout != getWindowsTimeout() {
		t.Errorf("read timeout = %v, want %v", o.readTimeout, getWindowsTimeout())
	}
	if o.traceSize != DefaultTraceSize {
		t.Errorf("trace size = %d, want %d", o.traceSize, DefaultTraceSize)
	}

	o = newOptions([]Option{WithBaudRate(9600), WithReadTimeout(time.Second), WithTraceSize(4)})
	if o.baudRate != 9600 || o.readTimeout != time.Second || o.traceSize != 4 {
		t.Errorf("options not applied: %+v", o)
	}
}

func TestIsInterruptedSystemCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "eintr", err: errString("read: EINTR"), want: true},
		{name: "message", err: errString("Interrupted System Call"), want: true},
		{name: "other", err: errString("no such device"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isInterruptedSystemCall(tt.err); got != tt.want {
				t.Errorf("isInterruptedSystemCall(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
