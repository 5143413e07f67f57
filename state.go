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

// State is the power state of the panel as far as the driver knows it.
type State int

const (
	// StateUninitialized is the state before the reset sequence completed.
	StateUninitialized State = iota
	// StateReady means the panel accepts drawing commands.
	StateReady
	// StateAsleep means the panel is in deep sleep and needs WakeUp.
	StateAsleep
	// StateClosed means the transport has been released.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateAsleep:
		return "asleep"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the per-device color state. Background pixels are never sent;
// Foreground is the color the panel was last told to draw with, so an update
// only sends a set-color command when it changes.
type Session struct {
	Background Color
	Foreground Color
}
