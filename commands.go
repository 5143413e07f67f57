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

	"github.com/ZaparooProject/go-epd4in3/internal/frame"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Frame is an encoded, checksummed command frame ready to be written to the
// panel.
type Frame = frame.Frame

// Command is a protocol opcode.
type Command byte

// Panel command set
const (
	CmdHandshake     Command = 0x00
	CmdSleep         Command = 0x08
	CmdUpdate        Command = 0x0A
	CmdSetRotation   Command = 0x0D
	CmdLoadFont      Command = 0x0E
	CmdLoadBmp       Command = 0x0F
	CmdSetColor      Command = 0x10
	CmdSetFontSizeEn Command = 0x1E
	CmdSetFontSizeZh Command = 0x1F
	CmdPoint         Command = 0x20
	CmdLine          Command = 0x22
	CmdFillRect      Command = 0x24
	CmdRect          Command = 0x25
	CmdCircle        Command = 0x26
	CmdFillCircle    Command = 0x27
	CmdTri           Command = 0x28
	CmdFillTri       Command = 0x29
	CmdClear         Command = 0x2E
	CmdText          Command = 0x30
	CmdBmp           Command = 0x70
)

var commandNames = map[Command]string{
	CmdHandshake:     "Handshake",
	CmdSleep:         "Sleep",
	CmdUpdate:        "Update",
	CmdSetRotation:   "SetRotation",
	CmdLoadFont:      "LoadFont",
	CmdLoadBmp:       "LoadBmp",
	CmdSetColor:      "SetColor",
	CmdSetFontSizeEn: "SetFontSizeEn",
	CmdSetFontSizeZh: "SetFontSizeZh",
	CmdPoint:         "Point",
	CmdLine:          "Line",
	CmdFillRect:      "FillRect",
	CmdRect:          "Rect",
	CmdCircle:        "Circle",
	CmdFillCircle:    "FillCircle",
	CmdTri:           "Tri",
	CmdFillTri:       "FillTri",
	CmdClear:         "Clear",
	CmdText:          "Text",
	CmdBmp:           "Bmp",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(0x%02X)", byte(c))
}

// Rotation is the orientation the panel applies to its own drawing commands.
type Rotation byte

const (
	Rotation0   Rotation = 0
	Rotation180 Rotation = 1
)

// FontSize selects one of the panel's built-in font heights.
type FontSize byte

const (
	FontSize32 FontSize = 1
	FontSize48 FontSize = 2
	FontSize64 FontSize = 3
)

// MaxBitmapNameLength is the longest bitmap file name the panel accepts,
// extension included.
const MaxBitmapNameLength = 11

func build(cmd Command, args *frame.Args) (Frame, error) {
	f, err := frame.BuildArgs(byte(cmd), args)
	if err != nil {
		return Frame{}, fmt.Errorf("%s: %w", cmd, err)
	}
	return f, nil
}

func coords(values ...uint16) *frame.Args {
	args := new(frame.Args)
	for _, v := range values {
		args.AppendUint16(v)
	}
	return args
}

// Handshake builds the no-op frame the panel answers with "OK".
func Handshake() (Frame, error) {
	return build(CmdHandshake, nil)
}

// LoadFont makes the panel import fonts from its SD card into flash.
func LoadFont() (Frame, error) {
	return build(CmdLoadFont, nil)
}

// LoadBmp makes the panel import bitmaps from its SD card into flash.
func LoadBmp() (Frame, error) {
	return build(CmdLoadBmp, nil)
}

// Clear fills the panel memory with the background color.
func Clear() (Frame, error) {
	return build(CmdClear, nil)
}

// Refresh shows the panel memory on screen.
func Refresh() (Frame, error) {
	return build(CmdUpdate, nil)
}

// Sleep puts the panel into deep sleep. Only the wake line brings it back.
func Sleep() (Frame, error) {
	return build(CmdSleep, nil)
}

// SetRotation selects normal or upside-down drawing.
func SetRotation(r Rotation) (Frame, error) {
	if r != Rotation0 && r != Rotation180 {
		return Frame{}, fmt.Errorf("%s: %w: rotation %d", CmdSetRotation, ErrInvalidArgument, r)
	}
	args := new(frame.Args)
	args.AppendByte(byte(r))
	return build(CmdSetRotation, args)
}

// SetColor sets the pen (foreground) and paper (background) colors.
func SetColor(foreground, background Color) (Frame, error) {
	if !foreground.Valid() || !background.Valid() {
		return Frame{}, fmt.Errorf("%s: %w: colors %d/%d", CmdSetColor, ErrInvalidArgument, foreground, background)
	}
	args := new(frame.Args)
	args.AppendByte(foreground.BitValue())
	args.AppendByte(background.BitValue())
	return build(CmdSetColor, args)
}

func setFontSize(cmd Command, size FontSize) (Frame, error) {
	if size < FontSize32 || size > FontSize64 {
		return Frame{}, fmt.Errorf("%s: %w: font size %d", cmd, ErrInvalidArgument, size)
	}
	args := new(frame.Args)
	args.AppendByte(byte(size))
	return build(cmd, args)
}

// SetFontSizeEn selects the font height used for ASCII text.
func SetFontSizeEn(size FontSize) (Frame, error) {
	return setFontSize(CmdSetFontSizeEn, size)
}

// SetFontSizeZh selects the font height used for Chinese text.
func SetFontSizeZh(size FontSize) (Frame, error) {
	return setFontSize(CmdSetFontSizeZh, size)
}

// Point draws a single pixel in the foreground color.
func Point(x, y uint16) (Frame, error) {
	return build(CmdPoint, coords(x, y))
}

// Line draws a line from (x0,y0) to (x1,y1).
func Line(x0, y0, x1, y1 uint16) (Frame, error) {
	return build(CmdLine, coords(x0, y0, x1, y1))
}

// Rect draws the outline of the rectangle spanned by two corners.
func Rect(x0, y0, x1, y1 uint16) (Frame, error) {
	return build(CmdRect, coords(x0, y0, x1, y1))
}

// FillRect draws a filled rectangle.
func FillRect(x0, y0, x1, y1 uint16) (Frame, error) {
	return build(CmdFillRect, coords(x0, y0, x1, y1))
}

// Circle draws a circle outline of radius r centered on (x,y).
func Circle(x, y, r uint16) (Frame, error) {
	return build(CmdCircle, coords(x, y, r))
}

// FillCircle draws a filled circle.
func FillCircle(x, y, r uint16) (Frame, error) {
	return build(CmdFillCircle, coords(x, y, r))
}

// Tri draws a triangle outline.
func Tri(x0, y0, x1, y1, x2, y2 uint16) (Frame, error) {
	return build(CmdTri, coords(x0, y0, x1, y1, x2, y2))
}

// FillTri draws a filled triangle.
func FillTri(x0, y0, x1, y1, x2, y2 uint16) (Frame, error) {
	return build(CmdFillTri, coords(x0, y0, x1, y1, x2, y2))
}

// Text draws txt with its top-left corner at (x,y). The panel expects GBK,
// so text is transcoded and NUL-terminated. Runes GBK cannot represent make
// the call fail with ErrInvalidArgument. They are not substituted with
// numeric character references such as "&#128512;", which the panel would
// draw literally.
func Text(x, y uint16, txt string) (Frame, error) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(txt))
	if err != nil {
		return Frame{}, fmt.Errorf("%s: %w: %w", CmdText, ErrInvalidArgument, err)
	}
	args := coords(x, y)
	args.AppendBytes(encoded)
	args.AppendByte(0x00)
	return build(CmdText, args)
}

// Bmp draws a bitmap stored on the panel. name must be plain ASCII and at
// most MaxBitmapNameLength characters, e.g. "PIC7.BMP".
func Bmp(x, y uint16, name string) (Frame, error) {
	if len(name) > MaxBitmapNameLength {
		return Frame{}, fmt.Errorf("%s: %w: name %q longer than %d characters",
			CmdBmp, ErrInvalidArgument, name, MaxBitmapNameLength)
	}
	for i := 0; i < len(name); i++ {
		if name[i] > 0x7F {
			return Frame{}, fmt.Errorf("%s: %w: name %q is not ASCII", CmdBmp, ErrInvalidArgument, name)
		}
	}
	args := coords(x, y)
	args.AppendBytes([]byte(name))
	args.AppendByte(0x00)
	return build(CmdBmp, args)
}
