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
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// enumeratePorts asks the serial library for the port list.
func enumeratePorts() ([]serialPort, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("port enumeration failed: %w", err)
	}
	ports := make([]serialPort, 0, len(details))
	for _, d := range details {
		ports = append(ports, portFromDetails(d))
	}
	return ports, nil
}

// portFromDetails converts an enumerator entry. VID:PID is only set for USB
// ports that report both halves.
func portFromDetails(d *enumerator.PortDetails) serialPort {
	port := serialPort{
		Path:         d.Name,
		Name:         d.Name,
		Product:      d.Product,
		SerialNumber: d.SerialNumber,
	}
	if d.IsUSB && d.VID != "" && d.PID != "" {
		port.VIDPID = strings.ToUpper(d.VID + ":" + d.PID)
	}
	return port
}
