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
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-epd4in3/internal/frame"
	"periph.io/x/conn/v3/gpio"
)

// Panel resolution in landscape orientation.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Option configures a Device in New.
type Option func(*Device) error

// WithBackgroundColor sets the initial background color. Background pixels
// are skipped by UpdateFrame.
func WithBackgroundColor(c Color) Option {
	return func(d *Device) error {
		if !c.Valid() {
			return fmt.Errorf("background: %w: %d", ErrInvalidColorCode, c)
		}
		d.session.Background = c
		return nil
	}
}

// WithForegroundColor sets the color the driver assumes the panel draws
// with after reset.
func WithForegroundColor(c Color) Option {
	return func(d *Device) error {
		if !c.Valid() {
			return fmt.Errorf("foreground: %w: %d", ErrInvalidColorCode, c)
		}
		d.session.Foreground = c
		return nil
	}
}

// WithSleeper replaces the wall-clock delay used for the reset and wake
// pulses.
func WithSleeper(s Sleeper) Option {
	return func(d *Device) error {
		if s == nil {
			return fmt.Errorf("%w: nil sleeper", ErrInvalidArgument)
		}
		d.iface.sleeper = s
		return nil
	}
}

// WithSize overrides the panel resolution used to map pixel indices to
// coordinates.
func WithSize(width, height int) Option {
	return func(d *Device) error {
		if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
			return fmt.Errorf("%w: size %dx%d", ErrInvalidArgument, width, height)
		}
		d.width = width
		d.height = height
		return nil
	}
}

// Device drives a Waveshare 4.3" UART e-paper panel.
//
// Thread Safety: Device is NOT thread-safe. The color session is mutated by
// every update, so all methods must be called from a single goroutine or
// protected with external synchronization.
type Device struct {
	iface     displayInterface
	session   Session
	lastStats UpdateStats
	state     State
	width     int
	height    int
}

// New takes ownership of the transport and both control lines and runs the
// reset sequence. The reset takes about 3.5 seconds.
func New(transport Transport, wake, reset gpio.PinOut, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidArgument)
	}
	if wake == nil || reset == nil {
		return nil, fmt.Errorf("%w: wake and reset pins are required", ErrInvalidArgument)
	}

	d := &Device{
		iface: displayInterface{
			transport: transport,
			wake:      wake,
			rst:       reset,
			sleeper:   realSleeper,
		},
		session: Session{
			Background: DefaultBackgroundColor,
			Foreground: DefaultForegroundColor,
		},
		width:  DefaultWidth,
		height: DefaultHeight,
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Init runs the reset sequence. New already does this; call it again to
// recover a panel that stopped responding.
func (d *Device) Init() error {
	if d.state == StateClosed {
		return ErrLinkClosed
	}
	if err := d.iface.reset(); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	d.state = StateReady
	Debugln("panel reset complete")
	return nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.iface.transport
}

// Width returns the panel width in pixels.
func (d *Device) Width() int {
	return d.width
}

// Height returns the panel height in pixels.
func (d *Device) Height() int {
	return d.height
}

// State returns the last known power state.
func (d *Device) State() State {
	return d.state
}

// Session returns the current color session.
func (d *Device) Session() Session {
	return d.session
}

// BackgroundColor returns the color UpdateFrame treats as blank.
func (d *Device) BackgroundColor() Color {
	return d.session.Background
}

// SetBackgroundColor changes the color UpdateFrame treats as blank. Nothing
// is sent to the panel.
func (d *Device) SetBackgroundColor(c Color) error {
	if !c.Valid() {
		return fmt.Errorf("background: %w: %d", ErrInvalidColorCode, c)
	}
	d.session.Background = c
	return nil
}

// ForegroundColor returns the color the driver believes the panel draws with.
func (d *Device) ForegroundColor() Color {
	return d.session.Foreground
}

// SetForegroundColor records c as the panel's drawing color without sending
// anything. Use SetColor to actually change it on the panel.
func (d *Device) SetForegroundColor(c Color) error {
	if !c.Valid() {
		return fmt.Errorf("foreground: %w: %d", ErrInvalidColorCode, c)
	}
	d.session.Foreground = c
	return nil
}

// LastUpdateStats returns the counters of the most recent UpdateFrame call.
func (d *Device) LastUpdateStats() UpdateStats {
	return d.lastStats
}

// Send writes a prebuilt frame. The panel's acknowledgement is not read.
func (d *Device) Send(f Frame) error {
	if d.state == StateClosed {
		return ErrLinkClosed
	}
	if err := d.iface.send(&f); err != nil {
		return err
	}
	Debugf("TX %s: %s", Command(f.Opcode()), formatHexBytes(f.Bytes()))
	return nil
}

// sendBuilt sends the result of a command builder.
func (d *Device) sendBuilt(f Frame, err error) error {
	if err != nil {
		return err
	}
	return d.Send(f)
}

// Handshake sends the handshake command and waits for the panel's "OK".
// It is the only command whose acknowledgement the facade checks, which
// makes it suitable for probing whether a panel is attached.
func (d *Device) Handshake() error {
	if err := d.sendBuilt(Handshake()); err != nil {
		return err
	}
	var ack [frame.AckLength]byte
	if err := d.iface.readAck(ack[:]); err != nil {
		return err
	}
	if !bytes.Equal(ack[:], frame.Ack) {
		return fmt.Errorf("%w: got %s", ErrNoAck, formatHexBytes(ack[:]))
	}
	return nil
}

// Sleep puts the panel into deep sleep. Only WakeUp brings it back.
func (d *Device) Sleep() error {
	if err := d.sendBuilt(Sleep()); err != nil {
		return err
	}
	d.state = StateAsleep
	return nil
}

// WakeUp pulses the wake line.
func (d *Device) WakeUp() error {
	if d.state == StateClosed {
		return ErrLinkClosed
	}
	if err := d.iface.wakeUp(); err != nil {
		return fmt.Errorf("wake failed: %w", err)
	}
	d.state = StateReady
	return nil
}

// ClearFrame clears the panel's frame memory to the background color.
func (d *Device) ClearFrame() error {
	return d.sendBuilt(Clear())
}

// DisplayFrame makes the panel show its frame memory.
func (d *Device) DisplayFrame() error {
	return d.sendBuilt(Refresh())
}

// SetColor sends a set-color command and updates the session to match.
func (d *Device) SetColor(foreground, background Color) error {
	if err := d.sendBuilt(SetColor(foreground, background)); err != nil {
		return err
	}
	d.session.Foreground = foreground
	d.session.Background = background
	return nil
}

// SetRotation sets the drawing orientation of the panel.
func (d *Device) SetRotation(r Rotation) error {
	return d.sendBuilt(SetRotation(r))
}

// SetFontSizeEn selects the size of the panel's English font.
func (d *Device) SetFontSizeEn(size FontSize) error {
	return d.sendBuilt(SetFontSizeEn(size))
}

// SetFontSizeZh selects the size of the panel's Chinese font.
func (d *Device) SetFontSizeZh(size FontSize) error {
	return d.sendBuilt(SetFontSizeZh(size))
}

// LoadFonts copies fonts from the panel's SD card to its flash.
func (d *Device) LoadFonts() error {
	return d.sendBuilt(LoadFont())
}

// LoadBitmaps copies bitmaps from the panel's SD card to its flash.
func (d *Device) LoadBitmaps() error {
	return d.sendBuilt(LoadBmp())
}

// DrawPoint draws a single pixel in the current foreground color.
func (d *Device) DrawPoint(x, y uint16) error {
	return d.sendBuilt(Point(x, y))
}

// DrawLine draws a line from (x0,y0) to (x1,y1).
func (d *Device) DrawLine(x0, y0, x1, y1 uint16) error {
	return d.sendBuilt(Line(x0, y0, x1, y1))
}

// DrawRect draws a rectangle outline.
func (d *Device) DrawRect(x0, y0, x1, y1 uint16) error {
	return d.sendBuilt(Rect(x0, y0, x1, y1))
}

// FillRect draws a filled rectangle.
func (d *Device) FillRect(x0, y0, x1, y1 uint16) error {
	return d.sendBuilt(FillRect(x0, y0, x1, y1))
}

// DrawCircle draws a circle outline.
func (d *Device) DrawCircle(x, y, r uint16) error {
	return d.sendBuilt(Circle(x, y, r))
}

// FillCircle draws a filled circle.
func (d *Device) FillCircle(x, y, r uint16) error {
	return d.sendBuilt(FillCircle(x, y, r))
}

// DrawTri draws a triangle outline.
func (d *Device) DrawTri(x0, y0, x1, y1, x2, y2 uint16) error {
	return d.sendBuilt(Tri(x0, y0, x1, y1, x2, y2))
}

// FillTri draws a filled triangle.
func (d *Device) FillTri(x0, y0, x1, y1, x2, y2 uint16) error {
	return d.sendBuilt(FillTri(x0, y0, x1, y1, x2, y2))
}

// DrawText draws txt with the panel's built-in fonts at (x,y).
func (d *Device) DrawText(x, y uint16, txt string) error {
	return d.sendBuilt(Text(x, y, txt))
}

// DrawBitmap draws a bitmap stored on the panel, e.g. "PIC7.BMP".
func (d *Device) DrawBitmap(x, y uint16, name string) error {
	return d.sendBuilt(Bmp(x, y, name))
}

// Close releases the transport. The control lines are left as they are.
func (d *Device) Close() error {
	if d.state == StateClosed {
		return nil
	}
	d.state = StateClosed
	if err := d.iface.transport.Close(); err != nil {
		if errors.Is(err, ErrLinkClosed) {
			return nil
		}
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}
