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

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Default control lines on a Raspberry Pi header.
const (
	DefaultWakePin  = "GPIO2"
	DefaultResetPin = "GPIO4"
)

// OpenPins initializes the host GPIO drivers and looks up the wake and reset
// lines by name, e.g. "GPIO2" or "17". Both lines are driven low, the idle
// level the reset and wake pulses start from.
func OpenPins(wakeName, resetName string) (wake, reset gpio.PinOut, err error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, NewGPIOError("host init", "", err)
	}

	wakePin := gpioreg.ByName(wakeName)
	if wakePin == nil {
		return nil, nil, fmt.Errorf("%w: wake pin %q not found", ErrGPIO, wakeName)
	}
	resetPin := gpioreg.ByName(resetName)
	if resetPin == nil {
		return nil, nil, fmt.Errorf("%w: reset pin %q not found", ErrGPIO, resetName)
	}

	for _, p := range []gpio.PinIO{wakePin, resetPin} {
		if err := p.Out(gpio.Low); err != nil {
			return nil, nil, NewGPIOError("open", p.Name(), err)
		}
	}
	return wakePin, resetPin, nil
}
