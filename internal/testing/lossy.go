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

package testing

import (
	"io"
	"math/rand/v2"
	"time"
)

// LossyConfig configures the behavior of LossyConnection.
type LossyConfig struct {
	// DropRate is the probability that a byte read from the backend is lost.
	DropRate float64
	// ZeroRate is the probability that a byte read from the backend arrives
	// as 0x00, the way a glitching level shifter corrupts it.
	ZeroRate float64
	// MaxLatency adds a random delay of up to this much before each read.
	MaxLatency time.Duration
	// Seed makes the fault pattern reproducible when non-zero.
	Seed uint64
	// FragmentReads returns fewer bytes than requested at random, leaving
	// the rest for the next read.
	FragmentReads bool
}

// LossyConnection wraps an io.ReadWriter to simulate a noisy serial line
// between the host and the panel. Writes pass through untouched; faults are
// applied to what the host reads.
type LossyConnection struct {
	backend io.ReadWriter
	rng     *rand.Rand
	config  LossyConfig
	dropped int
	zeroed  int
}

// NewLossyConnection wraps backend with fault simulation.
func NewLossyConnection(backend io.ReadWriter, config LossyConfig) *LossyConnection {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}
	return &LossyConnection{
		backend: backend,
		config:  config,
		rng:     rng,
	}
}

// Write passes writes through to the backend without modification.
func (l *LossyConnection) Write(data []byte) (int, error) {
	return l.backend.Write(data) //nolint:wrapcheck // Pass-through wrapper
}

// Read reads from the backend and applies latency, fragmentation, loss and
// corruption in that order.
func (l *LossyConnection) Read(buf []byte) (int, error) {
	if l.config.MaxLatency > 0 {
		time.Sleep(time.Duration(l.rng.Int64N(int64(l.config.MaxLatency) + 1)))
	}

	want := len(buf)
	if l.config.FragmentReads && want > 1 {
		want = 1 + l.rng.IntN(want)
	}

	n, err := l.backend.Read(buf[:want])
	if err != nil || n == 0 {
		return n, err //nolint:wrapcheck // Pass-through wrapper
	}

	kept := 0
	for _, b := range buf[:n] {
		if l.config.DropRate > 0 && l.rng.Float64() < l.config.DropRate {
			l.dropped++
			continue
		}
		if l.config.ZeroRate > 0 && l.rng.Float64() < l.config.ZeroRate {
			l.zeroed++
			b = 0x00
		}
		buf[kept] = b
		kept++
	}
	return kept, nil
}

// Stats returns how many bytes were dropped and zeroed so far.
func (l *LossyConnection) Stats() (dropped, zeroed int) {
	return l.dropped, l.zeroed
}
