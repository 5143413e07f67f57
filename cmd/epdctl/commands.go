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

package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
	"github.com/ZaparooProject/go-epd4in3/graphics"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font"
)

type commandFunc func(ctx context.Context, a *app, device *epd4in3.Device, args []string) error

var commands = map[string]commandFunc{
	"text":   runText,
	"bitmap": runBitmap,
	"clear":  runClear,
	"sleep":  runSleep,
	"probe":  runProbe,
	"soak":   runSoak,
}

// composeFunc builds a frame on the host. Composed frames are either pushed
// to the panel or, with -preview, printed to the terminal.
type composeFunc func(a *app, args []string) (*graphics.Buffer, error)

var composers = map[string]composeFunc{
	"image":  composeImage,
	"render": composeRender,
	"card":   composeCard,
}

func parseRotation(degrees int) (graphics.Rotation, error) {
	switch degrees {
	case 0:
		return graphics.Rotate0, nil
	case 90:
		return graphics.Rotate90, nil
	case 180:
		return graphics.Rotate180, nil
	case 270:
		return graphics.Rotate270, nil
	default:
		return 0, fmt.Errorf("%w: rotation %d", epd4in3.ErrInvalidArgument, degrees)
	}
}

func parseCoord(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: coordinate %q", epd4in3.ErrInvalidArgument, s)
	}
	return uint16(v), nil
}

// newCanvas returns a background-filled buffer the size of the panel.
func (a *app) newCanvas() (*graphics.Buffer, error) {
	rot, err := parseRotation(a.opts.rotate)
	if err != nil {
		return nil, err
	}
	bg, _, err := a.cfg.Colors()
	if err != nil {
		return nil, err
	}
	buf := graphics.NewBuffer(a.cfg.Width, a.cfg.Height, bg)
	buf.SetRotation(rot)
	return buf, nil
}

// loadFace returns the -font face, or the built-in face when none is set.
// The returned func releases it.
func (a *app) loadFace(size float64) (font.Face, func(), error) {
	if a.opts.fontPath == "" {
		return graphics.DefaultFace, func() {}, nil
	}
	face, err := graphics.LoadFace(a.opts.fontPath, size)
	if err != nil {
		return nil, nil, err
	}
	return face, func() { _ = face.Close() }, nil
}

// push clears the panel, streams buf pixel by pixel and refreshes.
func (a *app) push(ctx context.Context, device *epd4in3.Device, buf *graphics.Buffer) error {
	if err := device.SetColor(device.ForegroundColor(), device.BackgroundColor()); err != nil {
		return err
	}
	if err := device.ClearFrame(); err != nil {
		return err
	}
	if err := device.UpdateFrameContext(ctx, buf); err != nil {
		return fmt.Errorf("frame update failed: %w", err)
	}
	if err := device.DisplayFrame(); err != nil {
		return err
	}

	stats := device.LastUpdateStats()
	a.printf("Updated %d pixels (%d sent, %d retries, %d failed)\n",
		stats.Pixels-stats.Skipped, stats.Sent, stats.Retries, stats.Failed)
	return nil
}

func composeImage(a *app, args []string) (*graphics.Buffer, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: image FILE", errUsage)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img, format, err := image.Decode(f)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", args[0], err)
	}
	epd4in3.Debugf("decoded %s image %v", format, img.Bounds())

	buf, err := a.newCanvas()
	if err != nil {
		return nil, err
	}
	buf.DrawImage(img, graphics.DrawOptions{
		Dither:     a.cfg.Dither,
		KeepAspect: a.cfg.KeepAspect,
	})
	return buf, nil
}

// composeRender rasterizes text on the host, one line per "\n", centered
// horizontally.
func composeRender(a *app, args []string) (*graphics.Buffer, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: render TEXT", errUsage)
	}
	_, fg, err := a.cfg.Colors()
	if err != nil {
		return nil, err
	}

	face, release, err := a.loadFace(a.opts.fontSize)
	if err != nil {
		return nil, err
	}
	defer release()

	buf, err := a.newCanvas()
	if err != nil {
		return nil, err
	}
	bounds := buf.Bounds()
	lineHeight := face.Metrics().Height.Ceil()
	lines := strings.Split(strings.Join(args, " "), `\n`)
	y := (bounds.Dy()-lineHeight*len(lines))/2 + face.Metrics().Ascent.Ceil()
	for _, line := range lines {
		x := (bounds.Dx() - graphics.MeasureString(line, face)) / 2
		buf.DrawString(x, y, line, face, fg)
		y += lineHeight
	}
	return buf, nil
}

// composeCard draws a framed title over wrapped body text.
func composeCard(a *app, args []string) (*graphics.Buffer, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: card TITLE [BODY]", errUsage)
	}
	bg, fg, err := a.cfg.Colors()
	if err != nil {
		return nil, err
	}

	titleFace, releaseTitle, err := a.loadFace(a.opts.fontSize)
	if err != nil {
		return nil, err
	}
	defer releaseTitle()
	bodyFace, releaseBody, err := a.loadFace(a.opts.fontSize / 2)
	if err != nil {
		return nil, err
	}
	defer releaseBody()

	buf, err := a.newCanvas()
	if err != nil {
		return nil, err
	}
	buf.DrawCard(graphics.Card{
		Title:      args[0],
		Body:       strings.Join(args[1:], " "),
		TitleFace:  titleFace,
		BodyFace:   bodyFace,
		Foreground: fg,
		Background: bg,
	})
	return buf, nil
}

// preview prints buf to the terminal instead of the panel.
func (a *app) preview(buf *graphics.Buffer) error {
	return graphics.WritePreview(a.previewOut, buf, buf.Width(), graphics.PreviewOptions{})
}

// runText uses the panel's built-in fonts.
func runText(_ context.Context, _ *app, device *epd4in3.Device, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: text X Y TEXT", errUsage)
	}
	x, err := parseCoord(args[0])
	if err != nil {
		return err
	}
	y, err := parseCoord(args[1])
	if err != nil {
		return err
	}
	if err := device.DrawText(x, y, strings.Join(args[2:], " ")); err != nil {
		return err
	}
	return device.DisplayFrame()
}

// runBitmap shows a picture stored on the panel's SD card or flash.
func runBitmap(_ context.Context, _ *app, device *epd4in3.Device, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: bitmap X Y NAME", errUsage)
	}
	x, err := parseCoord(args[0])
	if err != nil {
		return err
	}
	y, err := parseCoord(args[1])
	if err != nil {
		return err
	}
	if err := device.DrawBitmap(x, y, args[2]); err != nil {
		return err
	}
	return device.DisplayFrame()
}

func runClear(_ context.Context, a *app, device *epd4in3.Device, _ []string) error {
	if err := device.ClearFrame(); err != nil {
		return err
	}
	if err := device.DisplayFrame(); err != nil {
		return err
	}
	a.printf("Panel cleared to %s\n", device.BackgroundColor())
	return nil
}

func runSleep(_ context.Context, a *app, device *epd4in3.Device, _ []string) error {
	if err := device.Sleep(); err != nil {
		return err
	}
	a.printf("Panel is asleep\n")
	return nil
}

func runProbe(ctx context.Context, a *app, device *epd4in3.Device, _ []string) error {
	if err := device.HandshakeContext(ctx, epd4in3.DefaultRetryConfig()); err != nil {
		return fmt.Errorf("panel did not answer: %w", err)
	}
	a.printf("Panel answered the handshake\n")
	return nil
}

func (a *app) runDetect(ctx context.Context) error {
	opts, err := a.cfg.DetectionOptions()
	if err != nil {
		return err
	}
	opts.Refresh = true

	devices, err := a.detect(ctx, &opts)
	if err != nil {
		return err
	}
	for _, d := range devices {
		a.printf("%s\n", d)
	}
	return nil
}
