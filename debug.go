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
	"fmt"
	"os"
	"time"
)

// debugEnabled gates console debug output. Session log output is written
// regardless whenever a session log is open.
var debugEnabled = os.Getenv("EPD_DEBUG") != "" || os.Getenv("DEBUG") != ""

// SetDebugEnabled turns console debug output on or off.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugEnabled reports whether console debug output is on.
func DebugEnabled() bool {
	return debugEnabled
}

// Debugf logs a formatted debug message.
func Debugf(format string, args ...any) {
	emit(fmt.Sprintf(format, args...))
}

// Debugln logs its operands, space separated.
func Debugln(args ...any) {
	emit(fmt.Sprintln(args...))
}

func emit(message string) {
	if n := len(message); n > 0 && message[n-1] == '\n' {
		message = message[:n-1]
	}

	if sessionLogWriter != nil {
		timestamp := time.Now().Format("15:04:05.000")
		_, _ = fmt.Fprintf(sessionLogWriter, "%s DEBUG: %s\n", timestamp, message)
	}

	if debugEnabled {
		_, _ = fmt.Fprintf(os.Stderr, "DEBUG: %s\n", message)
	}
}
