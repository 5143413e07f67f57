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
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLossyConnection_PassThrough(t *testing.T) {
	t.Parallel()

	backend := bytes.NewBufferString("OKOKOK")
	l := NewLossyConnection(backend, LossyConfig{Seed: 1})

	buf := make([]byte, 6)
	n, err := l.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "OKOKOK", string(buf[:n]))

	_, err = l.Write([]byte("xy"))
	require.NoError(t, err)
	assert.Equal(t, "xy", backend.String())
}

func TestLossyConnection_DropsEverything(t *testing.T) {
	t.Parallel()

	l := NewLossyConnection(bytes.NewBufferString("OKOK"), LossyConfig{DropRate: 1, Seed: 7})
	n, err := l.Read(make([]byte, 4))
	require.NoError(t, err)
	assert.Zero(t, n)

	dropped, zeroed := l.Stats()
	assert.Equal(t, 4, dropped)
	assert.Zero(t, zeroed)
}

func TestLossyConnection_ZeroesEverything(t *testing.T) {
	t.Parallel()

	l := NewLossyConnection(bytes.NewBufferString("OK"), LossyConfig{ZeroRate: 1, Seed: 7})
	buf := make([]byte, 2)
	n, err := l.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, buf[:n])
}

func TestLossyConnection_FragmentsWithoutLoss(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("OK"), 50)
	l := NewLossyConnection(bytes.NewBuffer(append([]byte(nil), payload...)),
		LossyConfig{FragmentReads: true, Seed: 42})

	var got []byte
	buf := make([]byte, 16)
	for range 1000 {
		n, err := l.Read(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		assert.LessOrEqual(t, n, len(buf))
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, payload, got)
}

func TestSimulatorTransport_BestEffortRead(t *testing.T) {
	t.Parallel()

	sim := NewVirtualEPD(4, 4)
	tr := NewSimulatorTransport(sim)
	require.NoError(t, tr.Write(buildCommandFrame(t, opHandshake)))

	buf := []byte{0xEE, 0xEE, 0xEE, 0xEE}
	require.NoError(t, tr.Read(buf))
	assert.Equal(t, []byte{'O', 'K', 0xEE, 0xEE}, buf, "missing bytes keep their old value")
	assert.Len(t, tr.Writes(), 1)
	assert.Same(t, sim, tr.Backend())
}

func TestSimulatorTransport_Closed(t *testing.T) {
	t.Parallel()

	tr := NewSimulatorTransport(NewVirtualEPD(4, 4))
	require.NoError(t, tr.Close())
	assert.True(t, tr.IsClosed())
	require.ErrorIs(t, tr.Write([]byte{0x00}), ErrTransportClosed)
	require.ErrorIs(t, tr.Read(make([]byte, 1)), ErrTransportClosed)
}

func TestSimulatorTransport_BackendError(t *testing.T) {
	t.Parallel()

	sim := NewVirtualEPD(4, 4)
	sim.Unplug()
	tr := NewSimulatorTransport(sim)
	require.ErrorIs(t, tr.Write([]byte{0x00}), ErrUnplugged)
	require.ErrorIs(t, tr.Read(make([]byte, 1)), ErrUnplugged)
}
