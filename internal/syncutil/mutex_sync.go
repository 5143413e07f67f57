//go:build !deadlock

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

// Package syncutil provides the mutex types used across the driver. Without
// the deadlock build tag they are the plain sync types.
package syncutil

import "sync"

// Mutex is sync.Mutex unless built with -tags=deadlock.
//
//nolint:gocritic // Embedding sync.Mutex exposes Lock and Unlock
type Mutex struct {
	sync.Mutex
}

// RWMutex is sync.RWMutex unless built with -tags=deadlock.
//
//nolint:gocritic // Embedding sync.RWMutex exposes its interface
type RWMutex struct {
	sync.RWMutex
}
