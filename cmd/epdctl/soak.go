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
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
	"github.com/ZaparooProject/go-epd4in3/graphics"
)

// soakPattern fills a buffer with one test picture.
type soakPattern struct {
	fill func(buf *graphics.Buffer) error
	name string
}

var soakPatterns = []soakPattern{
	{name: "noise", fill: fillNoise},
	{name: "checkerboard", fill: fillChecker},
	{name: "bands", fill: fillBands},
}

// SoakFrameResult holds the outcome of one pushed frame.
type SoakFrameResult struct {
	Pattern  string
	Stats    epd4in3.UpdateStats
	Duration time.Duration
	Index    int
	Success  bool
}

// CrashReport contains what is needed to debug a failed frame.
type CrashReport struct {
	Timestamp time.Time           `json:"timestamp"`
	Port      string              `json:"port,omitempty"`
	Pattern   string              `json:"pattern"`
	Error     string              `json:"error"`
	Trace     []LogEntry          `json:"trace,omitempty"`
	Stats     epd4in3.UpdateStats `json:"stats"`
	Frame     int                 `json:"frame"`
}

// LogEntry is one wire operation of a crash report.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Direction string    `json:"direction"`
	DataHex   string    `json:"data_hex,omitempty"`
	Note      string    `json:"note,omitempty"`
}

func printSoakBanner(a *app, frames int) {
	a.printf("================================================================================\n")
	a.printf("                         E-Paper Soak Test: %d frames\n", frames)
	a.printf("================================================================================\n")
}

// runSoak pushes FRAMES full-screen test pictures and reports pixels the
// panel never acknowledged. The first transport failure stops the run and
// leaves a JSON crash report.
func runSoak(ctx context.Context, a *app, device *epd4in3.Device, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: soak FRAMES", errUsage)
	}
	frames, err := strconv.Atoi(args[0])
	if err != nil || frames <= 0 {
		return fmt.Errorf("%w: frame count %q", epd4in3.ErrInvalidArgument, args[0])
	}

	printSoakBanner(a, frames)
	results := make([]*SoakFrameResult, 0, frames)
	defer func() { printSoakSummary(a, results) }()

	for i := range frames {
		pattern := soakPatterns[i%len(soakPatterns)]
		result, err := runSoakFrame(ctx, a, device, i, pattern)
		results = append(results, result)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			report := createCrashReport(a, result, err)
			if path, writeErr := writeCrashReportToFile(report, a.cfg.LogDir); writeErr == nil {
				a.printf("  Crash report written to %s\n", path)
			}
			return fmt.Errorf("frame %d: %w", i, err)
		}
		printSoakFrame(a, result)
	}
	return nil
}

func runSoakFrame(ctx context.Context, a *app, device *epd4in3.Device, index int,
	pattern soakPattern,
) (*SoakFrameResult, error) {
	result := &SoakFrameResult{Index: index, Pattern: pattern.name}
	started := time.Now()
	defer func() { result.Duration = time.Since(started) }()

	buf := graphics.NewBuffer(device.Width(), device.Height(), device.BackgroundColor())
	if err := pattern.fill(buf); err != nil {
		return result, err
	}

	if err := device.ClearFrame(); err != nil {
		return result, err
	}
	err := device.UpdateFrameContext(ctx, buf)
	result.Stats = device.LastUpdateStats()
	if err != nil {
		return result, err
	}
	if err := device.DisplayFrame(); err != nil {
		return result, err
	}
	result.Success = result.Stats.Failed == 0
	return result, nil
}

func fillNoise(buf *graphics.Buffer) error {
	noise := make([]byte, buf.PixelCount())
	if _, err := rand.Read(noise); err != nil {
		return fmt.Errorf("failed to generate noise: %w", err)
	}
	for i, n := range noise {
		buf.SetPixel(i%buf.Width(), i/buf.Width(), epd4in3.Color(n&0x03))
	}
	return nil
}

func fillChecker(buf *graphics.Buffer) error {
	const cell = 16
	for y := range buf.Height() {
		for x := range buf.Width() {
			if (x/cell+y/cell)%2 == 0 {
				buf.SetPixel(x, y, epd4in3.Black)
			}
		}
	}
	return nil
}

// fillBands draws one vertical band per tone.
func fillBands(buf *graphics.Buffer) error {
	band := (buf.Width() + 3) / 4
	for y := range buf.Height() {
		for x := range buf.Width() {
			buf.SetPixel(x, y, epd4in3.Color(x/band))
		}
	}
	return nil
}

func createCrashReport(a *app, result *SoakFrameResult, err error) *CrashReport {
	report := &CrashReport{
		Timestamp: time.Now(),
		Port:      a.cfg.Port,
		Frame:     result.Index,
		Pattern:   result.Pattern,
		Stats:     result.Stats,
		Error:     err.Error(),
	}

	if te := epd4in3.GetTrace(err); te != nil {
		report.Port = te.Port
		for _, entry := range te.Trace {
			report.Trace = append(report.Trace, LogEntry{
				Timestamp: entry.Timestamp,
				Direction: string(entry.Direction),
				DataHex:   formatHexString(entry.Data),
				Note:      entry.Note,
			})
		}
	}
	return report
}

func writeCrashReportToFile(report *CrashReport, dir string) (string, error) {
	timestamp := report.Timestamp.Format("20060102_150405")
	filename := filepath.Join(dir, fmt.Sprintf("soak_crash_frame%d_%s.json", report.Frame, timestamp))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal crash report: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write crash report: %w", err)
	}

	return filename, nil
}

func formatHexString(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

func printSoakFrame(a *app, result *SoakFrameResult) {
	status := "PASS"
	if !result.Success {
		status = "FAIL"
	}
	a.printf("  [%s] frame %d %-12s %d sent, %d retries, %d failed - %s\n",
		status, result.Index, result.Pattern,
		result.Stats.Sent, result.Stats.Retries, result.Stats.Failed,
		result.Duration.Round(100*time.Millisecond))
}

func printSoakSummary(a *app, results []*SoakFrameResult) {
	if len(results) == 0 {
		return
	}

	passCount, failedPixels, retries := 0, 0, 0
	for _, r := range results {
		if r.Success {
			passCount++
		}
		failedPixels += r.Stats.Failed
		retries += r.Stats.Retries
	}

	a.printf("================================================================================\n")
	a.printf("Frames: %d PASS, %d FAIL\n", passCount, len(results)-passCount)
	a.printf("Retries: %d, unacknowledged pixels: %d\n", retries, failedPixels)
	a.printf("================================================================================\n")
}
