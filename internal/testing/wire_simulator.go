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

// Package testing provides test utilities including a wire-level simulator
// of the Waveshare 4.3" serial e-paper panel.
//
// The VirtualEPD type implements io.ReadWriter and behaves like the panel at
// the frame level: it validates every frame it receives, applies the command
// to an in-memory frame store and answers "OK". Faults such as lost or
// zeroed acknowledgements can be injected to exercise retry handling.
package testing

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/ZaparooProject/go-epd4in3/internal/frame"
	"github.com/ZaparooProject/go-epd4in3/internal/syncutil"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Panel opcodes
const (
	opHandshake     = 0x00
	opSleep         = 0x08
	opUpdate        = 0x0A
	opSetRotation   = 0x0D
	opLoadFont      = 0x0E
	opLoadBmp       = 0x0F
	opSetColor      = 0x10
	opSetFontSizeEn = 0x1E
	opSetFontSizeZh = 0x1F
	opPoint         = 0x20
	opLine          = 0x22
	opFillRect      = 0x24
	opRect          = 0x25
	opCircle        = 0x26
	opFillCircle    = 0x27
	opTri           = 0x28
	opFillTri       = 0x29
	opClear         = 0x2E
	opText          = 0x30
	opBmp           = 0x70
)

// Panel tones as stored in the simulated frame memory
const (
	colorBlack = 0x00
	colorWhite = 0x03
)

// ErrUnplugged is returned by a simulator whose cable was pulled.
var ErrUnplugged = errors.New("simulated panel unplugged")

// ackBytes is the reply to every accepted frame.
var ackBytes = []byte{'O', 'K'}

// SimulatorPowerMode represents the panel power state
type SimulatorPowerMode int

const (
	PowerModeAwake SimulatorPowerMode = iota
	PowerModeSleep                    // Deep sleep, only the wake line helps
)

// SimulatorState tracks the internal state of the simulated panel
type SimulatorState struct {
	PowerMode  SimulatorPowerMode
	Refreshes  int // Update commands received
	Rejected   int // Frames that failed validation
	Foreground byte
	Background byte
	Rotation   byte
	FontSizeEn byte
	FontSizeZh byte
}

// ReceivedCommand is a validated frame as the panel saw it.
type ReceivedCommand struct {
	Text   string // Decoded string argument of text and bitmap commands
	Args   []byte
	Opcode byte
}

// VirtualEPD simulates the panel at the wire protocol level.
// It implements io.ReadWriter to plug directly into transport layer tests.
type VirtualEPD struct {
	rxBuffer  bytes.Buffer
	txBuffer  bytes.Buffer
	memory    []byte
	commands  []ReceivedCommand
	state     SimulatorState
	width     int
	height    int
	mu        syncutil.Mutex
	dropAcks  int
	zeroAcks  int
	unplugged bool
}

// NewVirtualEPD creates a simulator for a width x height panel. Frame memory
// starts white, drawing black on white.
func NewVirtualEPD(width, height int) *VirtualEPD {
	v := &VirtualEPD{
		memory: make([]byte, width*height),
		width:  width,
		height: height,
	}
	v.resetState()
	v.fill(colorWhite)
	return v
}

func (v *VirtualEPD) resetState() {
	v.state = SimulatorState{
		PowerMode:  PowerModeAwake,
		Foreground: colorBlack,
		Background: colorWhite,
		FontSizeEn: 1,
		FontSizeZh: 1,
	}
}

// Write implements io.Writer - receives data from the host.
func (v *VirtualEPD) Write(data []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unplugged {
		return 0, ErrUnplugged
	}

	v.rxBuffer.Write(data)
	frames, rest := frame.Extract(v.rxBuffer.Bytes())
	remaining := append([]byte(nil), rest...)
	v.rxBuffer.Reset()
	v.rxBuffer.Write(remaining)

	for _, f := range frames {
		v.processFrame(f)
	}
	return len(data), nil
}

// Read implements io.Reader - returns acknowledgements to the host. An empty
// read means the panel had nothing to say.
func (v *VirtualEPD) Read(buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unplugged {
		return 0, ErrUnplugged
	}
	if v.txBuffer.Len() == 0 {
		return 0, nil
	}
	return v.txBuffer.Read(buf)
}

func (v *VirtualEPD) processFrame(raw []byte) {
	opcode, args, err := frame.Validate(raw)
	if err != nil {
		v.state.Rejected++
		return
	}
	if v.state.PowerMode == PowerModeSleep {
		return
	}

	cmd := ReceivedCommand{Opcode: opcode, Args: args}
	v.apply(&cmd)
	v.commands = append(v.commands, cmd)
	v.acknowledge()
}

func (v *VirtualEPD) acknowledge() {
	switch {
	case v.dropAcks > 0:
		v.dropAcks--
	case v.zeroAcks > 0:
		v.zeroAcks--
		v.txBuffer.Write([]byte{0x00, 0x00})
	default:
		v.txBuffer.Write(ackBytes)
	}
}

func (v *VirtualEPD) apply(cmd *ReceivedCommand) {
	args := cmd.Args
	switch cmd.Opcode {
	case opSleep:
		v.state.PowerMode = PowerModeSleep
	case opUpdate:
		v.state.Refreshes++
	case opClear:
		v.fill(v.state.Background)
	case opSetColor:
		if len(args) == 2 {
			v.state.Foreground = args[0] & 0x03
			v.state.Background = args[1] & 0x03
		}
	case opSetRotation:
		if len(args) == 1 {
			v.state.Rotation = args[0]
		}
	case opSetFontSizeEn:
		if len(args) == 1 {
			v.state.FontSizeEn = args[0]
		}
	case opSetFontSizeZh:
		if len(args) == 1 {
			v.state.FontSizeZh = args[0]
		}
	case opPoint:
		if len(args) == 4 {
			v.set(coord(args, 0), coord(args, 1), v.state.Foreground)
		}
	case opFillRect:
		if len(args) == 8 {
			v.fillRect(coord(args, 0), coord(args, 1), coord(args, 2), coord(args, 3))
		}
	case opText:
		if len(args) > 4 {
			cmd.Text = decodeGBK(bytes.TrimRight(args[4:], "\x00"))
		}
	case opBmp:
		if len(args) > 4 {
			cmd.Text = string(bytes.TrimRight(args[4:], "\x00"))
		}
	case opHandshake, opLoadFont, opLoadBmp, opLine, opRect,
		opCircle, opFillCircle, opTri, opFillTri:
		// Recorded only; outline shapes are not rasterized.
	}
}

func coord(args []byte, i int) int {
	return int(binary.BigEndian.Uint16(args[2*i:]))
}

func decodeGBK(b []byte) string {
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func (v *VirtualEPD) set(x, y int, c byte) {
	if x < 0 || y < 0 || x >= v.width || y >= v.height {
		return
	}
	v.memory[x+v.width*y] = c
}

func (v *VirtualEPD) fill(c byte) {
	for i := range v.memory {
		v.memory[i] = c
	}
}

func (v *VirtualEPD) fillRect(x0, y0, x1, y1 int) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			v.set(x, y, v.state.Foreground)
		}
	}
}

// Pixel returns the color code stored at (x,y), or 0xFF out of range.
func (v *VirtualEPD) Pixel(x, y int) byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	if x < 0 || y < 0 || x >= v.width || y >= v.height {
		return 0xFF
	}
	return v.memory[x+v.width*y]
}

// Memory returns a copy of the frame memory in row-major order.
func (v *VirtualEPD) Memory() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.memory...)
}

// Commands returns every accepted command in arrival order.
func (v *VirtualEPD) Commands() []ReceivedCommand {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]ReceivedCommand, len(v.commands))
	copy(out, v.commands)
	return out
}

// CommandCount returns how many accepted commands had the given opcode.
func (v *VirtualEPD) CommandCount(opcode byte) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, c := range v.commands {
		if c.Opcode == opcode {
			n++
		}
	}
	return n
}

// GetState returns a copy of the simulator state.
func (v *VirtualEPD) GetState() SimulatorState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// HasPendingResponse reports whether acknowledgement bytes are waiting.
func (v *VirtualEPD) HasPendingResponse() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.txBuffer.Len() > 0
}

// DropNextAcks makes the panel process the next n frames without answering.
func (v *VirtualEPD) DropNextAcks(n int) {
	v.mu.Lock()
	v.dropAcks = n
	v.mu.Unlock()
}

// ZeroNextAcks makes the panel answer the next n frames with zero bytes.
func (v *VirtualEPD) ZeroNextAcks(n int) {
	v.mu.Lock()
	v.zeroAcks = n
	v.mu.Unlock()
}

// Unplug makes every subsequent read and write fail with ErrUnplugged.
func (v *VirtualEPD) Unplug() {
	v.mu.Lock()
	v.unplugged = true
	v.mu.Unlock()
}

// Wake simulates a pulse on the wake line.
func (v *VirtualEPD) Wake() {
	v.mu.Lock()
	v.state.PowerMode = PowerModeAwake
	v.mu.Unlock()
}

// Reset simulates a pulse on the reset line: pending I/O and the drawing
// state are lost, frame memory and the command log are kept.
func (v *VirtualEPD) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rxBuffer.Reset()
	v.txBuffer.Reset()
	v.dropAcks = 0
	v.zeroAcks = 0
	refreshes, rejected := v.state.Refreshes, v.state.Rejected
	v.resetState()
	v.state.Refreshes = refreshes
	v.state.Rejected = rejected
}
