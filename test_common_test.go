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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// lineRecorder collects control line changes and delays in call order.
type lineRecorder struct {
	events []string
	mu     sync.Mutex
}

func (r *lineRecorder) add(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *lineRecorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *lineRecorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func (r *lineRecorder) Sleep(d time.Duration) {
	r.add("sleep " + d.String())
}

// recordingPin is a gpiotest pin that logs every level it is driven to and
// can be made to fail.
type recordingPin struct {
	*gpiotest.Pin
	rec  *lineRecorder
	fail error
}

func (p *recordingPin) Out(l gpio.Level) error {
	if p.fail != nil {
		return p.fail
	}
	p.rec.add(fmt.Sprintf("%s=%s", p.N, l))
	return p.Pin.Out(l)
}

type testRig struct {
	dev       *Device
	transport *MockTransport
	rec       *lineRecorder
	wake      *recordingPin
	reset     *recordingPin
}

func newRecordingPins(rec *lineRecorder) (wake, reset *recordingPin) {
	wake = &recordingPin{Pin: &gpiotest.Pin{N: "WAKE", Num: 2}, rec: rec}
	reset = &recordingPin{Pin: &gpiotest.Pin{N: "RST", Num: 4}, rec: rec}
	return wake, reset
}

// newTestRig creates a device on a mock transport with recording pins and a
// sleeper that returns immediately. The reset performed by New is cleared
// from the recorder.
func newTestRig(t *testing.T, opts ...Option) *testRig {
	t.Helper()
	rec := &lineRecorder{}
	wake, reset := newRecordingPins(rec)
	transport := NewMockTransport()

	opts = append([]Option{WithSleeper(rec)}, opts...)
	dev, err := New(transport, wake, reset, opts...)
	require.NoError(t, err)
	rec.Reset()

	return &testRig{
		dev:       dev,
		transport: transport,
		rec:       rec,
		wake:      wake,
		reset:     reset,
	}
}

// filled returns a w*h pixel slice of a single color.
func filled(w, h int, c Color) Colors {
	out := make(Colors, w*h)
	for i := range out {
		out[i] = c
	}
	return out
}
