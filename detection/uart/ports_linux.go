//go:build linux

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
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
)

// sysClassTTY is replaced in tests with a fake sysfs tree.
var sysClassTTY = "/sys/class/tty"

// usbAncestorLevels bounds the walk from a tty's interface directory up to
// the USB device that carries idVendor and idProduct.
const usbAncestorLevels = 6

// virtualTTY matches kernel consoles and pseudo terminals, which have no
// hardware behind them.
var virtualTTY = regexp.MustCompile(`^(tty\d*|console|ptmx|pty.*|ttyp.*)$`)

// listPorts reads /sys/class/tty, which sees USB bridges and SoC UARTs with
// their descriptors. The serial library is the fallback when sysfs is
// unavailable or empty.
func listPorts(ctx context.Context) ([]serialPort, error) {
	ports, err := scanSysfs(ctx, sysClassTTY)
	if err != nil {
		epd4in3.Debugf("sysfs scan failed, falling back to enumerator: %v", err)
	}
	if len(ports) > 0 {
		return ports, nil
	}
	return enumeratePorts()
}

// scanSysfs lists every tty under root that is backed by a device.
func scanSysfs(ctx context.Context, root string) ([]serialPort, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var ports []serialPort
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ports, ctx.Err()
		}
		name := entry.Name()
		if virtualTTY.MatchString(name) {
			continue
		}
		if port, ok := sysfsPort(filepath.Join(root, name), name); ok {
			ports = append(ports, port)
		}
	}
	return ports, nil
}

// sysfsPort describes one tty directory. Legacy 8250 slots that the kernel
// registers without hardware report UART type 0 and are skipped.
func sysfsPort(dir, name string) (serialPort, bool) {
	device, err := filepath.EvalSymlinks(filepath.Join(dir, "device"))
	if err != nil {
		return serialPort{}, false
	}
	if strings.HasPrefix(name, "ttyS") && readAttr(dir, "type") == "0" {
		return serialPort{}, false
	}

	port := serialPort{Path: "/dev/" + name, Name: name}
	if strings.Contains(filepath.ToSlash(device), "/usb") {
		readUSBDescriptors(&port, device)
	}
	return port, true
}

// readUSBDescriptors walks up from the interface directory to the first
// ancestor that carries USB ids.
func readUSBDescriptors(port *serialPort, dir string) {
	for range usbAncestorLevels {
		vid, pid := readAttr(dir, "idVendor"), readAttr(dir, "idProduct")
		if vid != "" && pid != "" {
			port.VIDPID = strings.ToUpper(vid + ":" + pid)
			port.Manufacturer = readAttr(dir, "manufacturer")
			port.Product = readAttr(dir, "product")
			port.SerialNumber = readAttr(dir, "serial")
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// readAttr returns a trimmed sysfs attribute, or "" when it is absent.
func readAttr(dir, attr string) string {
	data, err := os.ReadFile(filepath.Join(dir, attr)) // #nosec G304 -- sysfs attribute
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
