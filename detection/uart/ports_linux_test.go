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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSysfs builds a /sys/class/tty lookalike with a CP2102 bridge, a SoC
// UART, a populated and an empty 8250 slot, and a virtual console.
func fakeSysfs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content+"\n"), 0o600))
	}
	link := func(target, name string) {
		require.NoError(t, os.MkdirAll(target, 0o755))
		dir := filepath.Join(root, "class", name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.Symlink(target, filepath.Join(dir, "device")))
	}

	usbDev := filepath.Join(root, "devices", "pci0000:00", "usb1", "1-1")
	write(filepath.Join(usbDev, "idVendor"), "10c4")
	write(filepath.Join(usbDev, "idProduct"), "ea60")
	write(filepath.Join(usbDev, "manufacturer"), "Silicon Labs")
	write(filepath.Join(usbDev, "product"), "CP2102 USB to UART Bridge Controller")
	write(filepath.Join(usbDev, "serial"), "0001")
	link(filepath.Join(usbDev, "1-1:1.0", "ttyUSB0"), "ttyUSB0")

	link(filepath.Join(root, "devices", "platform", "fe201000.serial"), "ttyAMA0")

	serial8250 := filepath.Join(root, "devices", "platform", "serial8250")
	link(serial8250, "ttyS0")
	write(filepath.Join(root, "class", "ttyS0", "type"), "4")
	link(serial8250, "ttyS1")
	write(filepath.Join(root, "class", "ttyS1", "type"), "0")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "tty0"), 0o755))
	link(filepath.Join(root, "devices", "virtual", "tty", "console"), "console")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "ttyGS9"), 0o755))

	return filepath.Join(root, "class")
}

func TestScanSysfs(t *testing.T) {
	t.Parallel()

	ports, err := scanSysfs(context.Background(), fakeSysfs(t))
	require.NoError(t, err)

	byName := make(map[string]serialPort, len(ports))
	for _, p := range ports {
		byName[p.Name] = p
	}
	assert.Len(t, byName, 3)

	usb := byName["ttyUSB0"]
	assert.Equal(t, "/dev/ttyUSB0", usb.Path)
	assert.Equal(t, "10C4:EA60", usb.VIDPID)
	assert.Equal(t, "Silicon Labs", usb.Manufacturer)
	assert.Equal(t, "CP2102 USB to UART Bridge Controller", usb.Product)
	assert.Equal(t, "0001", usb.SerialNumber)

	soc := byName["ttyAMA0"]
	assert.Equal(t, "/dev/ttyAMA0", soc.Path)
	assert.Empty(t, soc.VIDPID)

	assert.Contains(t, byName, "ttyS0")
	assert.NotContains(t, byName, "ttyS1", "empty 8250 slot")
	assert.NotContains(t, byName, "tty0")
	assert.NotContains(t, byName, "console")
	assert.NotContains(t, byName, "ttyGS9", "no device link")
}

func TestScanSysfs_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := scanSysfs(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestScanSysfs_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ports, err := scanSysfs(ctx, fakeSysfs(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ports)
}

func TestVirtualTTY(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"tty", "tty0", "tty63", "console", "ptmx", "ptyp0", "ttyp0"} {
		assert.True(t, virtualTTY.MatchString(name), name)
	}
	for _, name := range []string{"ttyS0", "ttyUSB0", "ttyAMA0", "ttyACM0", "ttyGS0"} {
		assert.False(t, virtualTTY.MatchString(name), name)
	}
}
