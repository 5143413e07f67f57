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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointFrame(t *testing.T, x, y uint16) []byte {
	t.Helper()
	f, err := Point(x, y)
	return mustFrame(t, f, err)
}

func setColorFrame(t *testing.T, fg, bg Color) []byte {
	t.Helper()
	f, err := SetColor(fg, bg)
	return mustFrame(t, f, err)
}

func TestUpdateFrame_AllBackgroundSendsNothing(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(4, 2))

	require.NoError(t, rig.dev.UpdateFrame(filled(4, 2, White)))

	assert.Zero(t, rig.transport.WriteCount())
	assert.Zero(t, rig.transport.ReadCount())
	stats := rig.dev.LastUpdateStats()
	assert.Equal(t, 8, stats.Pixels)
	assert.Equal(t, 8, stats.Skipped)
	assert.Zero(t, stats.Sent)
}

func TestUpdateFrame_SinglePixel(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(4, 2))

	px := filled(4, 2, White)
	px[5] = Black
	require.NoError(t, rig.dev.UpdateFrame(px))

	assert.Equal(t, [][]byte{pointFrame(t, 1, 1)}, rig.transport.Writes())
	assert.Equal(t, 1, rig.transport.ReadCount())
	assert.Equal(t, UpdateStats{Pixels: 8, Skipped: 7, Sent: 1}, rig.dev.LastUpdateStats())
}

func TestUpdateFrame_SwitchesColorOnlyWhenNeeded(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(4, 2))

	px := filled(4, 2, White)
	px[0] = Gray
	px[1] = Gray
	px[2] = Black
	require.NoError(t, rig.dev.UpdateFrame(px))

	want := [][]byte{
		setColorFrame(t, Gray, White),
		pointFrame(t, 0, 0),
		pointFrame(t, 1, 0),
		setColorFrame(t, Black, White),
		pointFrame(t, 2, 0),
	}
	assert.Equal(t, want, rig.transport.Writes())
	assert.Equal(t, Black, rig.dev.ForegroundColor())
	assert.Equal(t, 2, rig.dev.LastUpdateStats().ColorSwitches)
}

func TestUpdateFrame_CustomBackground(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(2, 1), WithBackgroundColor(Black))

	require.NoError(t, rig.dev.UpdateFrame(Colors{Black, White}))

	want := [][]byte{
		setColorFrame(t, White, Black),
		pointFrame(t, 1, 0),
	}
	assert.Equal(t, want, rig.transport.Writes())
}

func TestUpdateFrame_RetriesOnZeroAck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response []byte
	}{
		{name: "zero bytes", response: []byte{0x00, 0x00}},
		{name: "one byte missing", response: []byte{'O'}},
		{name: "silent panel", response: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rig := newTestRig(t, WithSize(1, 1))
			rig.transport.Queue(tt.response)

			require.NoError(t, rig.dev.UpdateFrame(Colors{Black}))

			p := pointFrame(t, 0, 0)
			assert.Equal(t, [][]byte{p, p}, rig.transport.Writes())
			stats := rig.dev.LastUpdateStats()
			assert.Equal(t, 1, stats.Retries)
			assert.Zero(t, stats.Failed)
		})
	}
}

func TestUpdateFrame_RetryKeepsCachedColor(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(1, 1))
	rig.transport.Queue([]byte{'O', 'K', 0x00, 'K'})

	require.NoError(t, rig.dev.UpdateFrame(Colors{Gray}))

	want := [][]byte{
		setColorFrame(t, Gray, White),
		pointFrame(t, 0, 0),
		pointFrame(t, 0, 0),
	}
	assert.Equal(t, want, rig.transport.Writes())
}

func TestUpdateFrame_ExhaustedPixelIsSkipped(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(2, 1))
	for range PixelRetries {
		rig.transport.Queue([]byte{0x00, 0x00})
	}

	require.NoError(t, rig.dev.UpdateFrame(Colors{Black, Black}))

	writes := rig.transport.Writes()
	require.Len(t, writes, PixelRetries+1)
	for _, w := range writes[:PixelRetries] {
		assert.Equal(t, pointFrame(t, 0, 0), w)
	}
	assert.Equal(t, pointFrame(t, 1, 0), writes[PixelRetries])

	stats := rig.dev.LastUpdateStats()
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, PixelRetries, stats.Retries)
	assert.Equal(t, PixelRetries+1, stats.Sent)
}

func TestUpdateFrame_WriteErrorPropagates(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(1, 1))
	rig.transport.SetWriteError(errors.New("cable pulled"))

	err := rig.dev.UpdateFrame(Colors{Black})
	require.ErrorIs(t, err, ErrSerialWrite)
	assert.Contains(t, err.Error(), "cable pulled")
}

func TestUpdateFrame_ReadErrorPropagates(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(1, 1))
	rig.transport.SetReadError(errors.New("port gone"))

	err := rig.dev.UpdateFrame(Colors{Black})
	require.ErrorIs(t, err, ErrSerialRead)
}

func TestUpdateFrame_InvalidInput(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(2, 2))

	require.ErrorIs(t, rig.dev.UpdateFrame(nil), ErrInvalidArgument)
	require.ErrorIs(t, rig.dev.UpdateFrame(filled(2, 1, Black)), ErrInvalidArgument)
	require.ErrorIs(t, rig.dev.UpdateFrame(Colors{Black, Color(7), White, White}), ErrInvalidColorCode)
	assert.Equal(t, 1, rig.transport.WriteCount(), "pixels before the bad one are sent")
}

// cancellingSource cancels its context when pixel at is read.
type cancellingSource struct {
	Colors
	cancel context.CancelFunc
	at     int
}

func (s cancellingSource) PixelAt(i int) Color {
	if i == s.at {
		s.cancel()
	}
	return s.Colors[i]
}

func TestUpdateFrameContext_CancelledBetweenPixels(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(4, 2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := cancellingSource{Colors: filled(4, 2, Black), cancel: cancel, at: 3}

	err := rig.dev.UpdateFrameContext(ctx, src)
	require.ErrorIs(t, err, context.Canceled)
	// the pixel being read when cancel fires is still completed
	assert.Equal(t, 4, rig.transport.WriteCount())
}

func TestUpdateFrameContext_AlreadyCancelled(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, rig.dev.UpdateFrameContext(ctx, Colors{Black}), context.Canceled)
	assert.Zero(t, rig.transport.WriteCount())
}

func TestUpdateFrame_AfterClose(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t, WithSize(1, 1))
	require.NoError(t, rig.dev.Close())

	require.ErrorIs(t, rig.dev.UpdateFrame(Colors{Black}), ErrLinkClosed)
}
