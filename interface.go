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
	"time"

	"periph.io/x/conn/v3/gpio"
)

// displayInterface owns the serial link and the two control lines of the
// panel.
type displayInterface struct {
	transport Transport
	wake      gpio.PinOut
	rst       gpio.PinOut
	sleeper   Sleeper
}

// data writes raw bytes to the panel.
func (di *displayInterface) data(p []byte) error {
	if err := di.transport.Write(p); err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return err
		}
		return NewWriteError("write", "", err)
	}
	return nil
}

// send writes an encoded frame.
func (di *displayInterface) send(f *Frame) error {
	return di.data(f.Bytes())
}

// readAck reads len(buf) bytes of acknowledgement. Bytes the transport could
// not deliver keep their previous value.
func (di *displayInterface) readAck(buf []byte) error {
	if err := di.transport.Read(buf); err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return err
		}
		return NewReadError("read", "", err)
	}
	return nil
}

// pinSequence drives a control line through a list of levels, stopping at
// the first failure.
type pinSequence struct {
	err     error
	pin     gpio.PinOut
	sleeper Sleeper
	op      string
}

func (ps *pinSequence) out(l gpio.Level) {
	if ps.err != nil {
		return
	}
	if err := ps.pin.Out(l); err != nil {
		ps.err = NewGPIOError(ps.op, ps.pin.Name(), err)
	}
}

func (ps *pinSequence) sleep(d time.Duration) {
	if ps.err != nil {
		return
	}
	ps.sleeper.Sleep(d)
}

// reset pulses the reset line: low, high while the panel boots, low again.
func (di *displayInterface) reset() error {
	ps := &pinSequence{pin: di.rst, sleeper: di.sleeper, op: "reset"}
	ps.out(gpio.Low)
	ps.sleep(ResetLowDelay)
	ps.out(gpio.High)
	ps.sleep(ResetHighDelay)
	ps.out(gpio.Low)
	ps.sleep(ResetSettleDelay)
	return ps.err
}

// wakeUp pulses the wake line to bring the panel out of deep sleep.
func (di *displayInterface) wakeUp() error {
	ps := &pinSequence{pin: di.wake, sleeper: di.sleeper, op: "wake"}
	ps.out(gpio.Low)
	ps.sleep(WakeLowDelay)
	ps.out(gpio.High)
	ps.sleep(WakeHighDelay)
	ps.out(gpio.Low)
	ps.sleep(WakeSettleDelay)
	return ps.err
}
