//nolint:paralleltest // Tests modify package-level debug state, cannot run in parallel
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
	"bytes"
	"io"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDebug routes debug output into a buffer for the rest of the test.
func captureDebug(t *testing.T) *bytes.Buffer {
	t.Helper()
	origEnabled, origWriter := debugEnabled, sessionLogWriter
	t.Cleanup(func() {
		debugEnabled = origEnabled
		sessionLogWriter = origWriter
	})

	var buf bytes.Buffer
	sessionLogWriter = &buf
	debugEnabled = false
	return &buf
}

func TestDebugf_WritesToSessionLog(t *testing.T) {
	buf := captureDebug(t)

	Debugf("test message %d", 42)

	assert.Contains(t, buf.String(), "DEBUG: test message 42\n")
}

func TestDebugf_IncludesTimestamp(t *testing.T) {
	buf := captureDebug(t)

	Debugf("test message")

	matched, err := regexp.MatchString(`^\d{2}:\d{2}:\d{2}\.\d{3} DEBUG: test message\n$`, buf.String())
	require.NoError(t, err)
	assert.True(t, matched, "unexpected log line: %q", buf.String())
}

func TestDebugln_SingleNewline(t *testing.T) {
	buf := captureDebug(t)

	Debugln("pixel", 7, "failed")

	assert.Contains(t, buf.String(), "DEBUG: pixel 7 failed\n")
	assert.NotContains(t, buf.String(), "\n\n")
}

func TestDebug_NilSessionWriter(t *testing.T) {
	captureDebug(t)
	sessionLogWriter = nil

	assert.NotPanics(t, func() {
		Debugf("test message %d", 42)
		Debugln("test message")
	})
}

func TestSetDebugEnabled(t *testing.T) {
	captureDebug(t)
	sessionLogWriter = io.Discard

	SetDebugEnabled(true)
	assert.True(t, DebugEnabled())
	SetDebugEnabled(false)
	assert.False(t, DebugEnabled())
}
