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

// Package uart finds panels on serial ports. Importing it registers the
// detector with the detection package.
package uart

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
	"github.com/ZaparooProject/go-epd4in3/detection"
	"github.com/ZaparooProject/go-epd4in3/internal/frame"
	"github.com/ZaparooProject/go-epd4in3/transport/uart"
)

const (
	probeTimeout     = 2 * time.Second
	probeReadTimeout = 200 * time.Millisecond
)

// fullModeRetry gives a panel that is still booting a few chances to answer.
var fullModeRetry = &epd4in3.RetryConfig{
	MaxAttempts:       4,
	InitialBackoff:    100 * time.Millisecond,
	MaxBackoff:        500 * time.Millisecond,
	BackoffMultiplier: 2.0,
	RetryTimeout:      probeTimeout,
}

// scanner lists serial ports and, outside passive mode, probes each one.
type scanner struct{}

// New returns the serial port scanner.
func New() detection.Scanner {
	return &scanner{}
}

func init() {
	detection.SetScanner(New())
}

// Scan enumerates serial ports, drops filtered ones and probes the rest
// one at a time. Probing stops early when ctx is done.
func (s *scanner) Scan(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := listPortsFn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for i := range ports {
		if ctx.Err() != nil {
			break
		}
		if !opts.Allows(ports[i].Path, ports[i].VIDPID) {
			continue
		}
		if device, ok := s.classify(ctx, &ports[i], opts.Mode); ok {
			devices = append(devices, device)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// classify decides whether port is reported and with what confidence.
// Passive mode reports likely ports at Medium without touching them.
// Probing modes report only ports that answer, at High.
func (*scanner) classify(ctx context.Context, port *serialPort, mode detection.Mode) (detection.DeviceInfo, bool) {
	if mode == detection.Passive {
		if !isLikelyPanelPort(port) {
			return detection.DeviceInfo{}, false
		}
		return port.info(detection.Medium), true
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if !probeDeviceFn(probeCtx, port.Path, mode) {
		epd4in3.Debugf("no handshake on %s", port.Path)
		return detection.DeviceInfo{}, false
	}
	return port.info(detection.High), true
}

// serialPort is one enumerated port with whatever USB descriptors the
// platform exposed.
type serialPort struct {
	Path         string
	Name         string
	VIDPID       string
	Manufacturer string
	Product      string
	SerialNumber string
}

func (p *serialPort) info(confidence detection.Confidence) detection.DeviceInfo {
	return detection.DeviceInfo{
		Path:         p.Path,
		Name:         p.Name,
		VIDPID:       p.VIDPID,
		Manufacturer: p.Manufacturer,
		Product:      p.Product,
		Serial:       p.SerialNumber,
		Confidence:   confidence,
	}
}

// knownBridges are USB serial bridges found on panel driver boards and the
// adapters commonly used to wire one up.
var knownBridges = []string{
	"10C4:EA60", // Silicon Labs CP210x, used on the Waveshare USB driver board
	"1A86:7523", // QinHeng CH340
	"0403:6001", // FTDI FT232
	"067B:2303", // Prolific PL2303
}

// isLikelyPanelPort reports whether a port is of the kind panels are usually
// attached to: a known USB bridge or a single-board computer header UART.
func isLikelyPanelPort(port *serialPort) bool {
	upperVIDPID := strings.ToUpper(port.VIDPID)
	for _, known := range knownBridges {
		if upperVIDPID == known {
			return true
		}
	}

	lowerPath := strings.ToLower(port.Path)
	for _, header := range []string{"/dev/ttyama", "/dev/serial0", "/dev/ttys0"} {
		if strings.HasPrefix(lowerPath, header) {
			return true
		}
	}

	lowerProduct := strings.ToLower(port.Product)
	lowerManuf := strings.ToLower(port.Manufacturer)
	for _, keyword := range []string{"waveshare", "e-paper", "epaper", "epd"} {
		if strings.Contains(lowerProduct, keyword) || strings.Contains(lowerManuf, keyword) {
			return true
		}
	}

	return false
}

// Replaced in tests.
var (
	probeDeviceFn = probeDevice
	listPortsFn   = listPorts
)

// probeDevice opens path and checks that a panel answers the handshake.
// Safe mode sends a single frame so that unrelated devices see as little
// traffic as possible.
func probeDevice(ctx context.Context, path string, mode detection.Mode) bool {
	transport, err := uart.New(path, uart.WithReadTimeout(probeReadTimeout))
	if err != nil {
		return false
	}
	defer func() { _ = transport.Close() }()

	return probeTransport(ctx, transport, mode, fullModeRetry) == nil
}

// probeTransport runs the handshake for mode over an open transport.
func probeTransport(ctx context.Context, t epd4in3.Transport, mode detection.Mode,
	retry *epd4in3.RetryConfig,
) error {
	switch mode {
	case detection.Safe:
		return handshake(t)
	case detection.Full:
		return epd4in3.RetryWithConfig(ctx, retry, func() error { return handshake(t) })
	default:
		return fmt.Errorf("%w: mode %s does not probe", epd4in3.ErrInvalidArgument, mode)
	}
}

func handshake(t epd4in3.Transport) error {
	f, err := epd4in3.Handshake()
	if err != nil {
		return err
	}
	if err := t.Write(f.Bytes()); err != nil {
		return err
	}
	var ack [frame.AckLength]byte
	if err := t.Read(ack[:]); err != nil {
		return err
	}
	if !bytes.Equal(ack[:], frame.Ack) {
		return fmt.Errorf("%w: got % X", epd4in3.ErrNoAck, ack[:])
	}
	return nil
}
