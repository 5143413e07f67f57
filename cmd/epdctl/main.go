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

// Command epdctl drives a Waveshare 4.3" serial e-paper panel from the
// command line.
//
// Usage:
//
//	epdctl [flags] image FILE
//	epdctl [flags] render TEXT
//	epdctl [flags] card TITLE [BODY]
//	epdctl [flags] text X Y TEXT
//	epdctl [flags] bitmap X Y NAME
//	epdctl [flags] clear | sleep | probe | detect
//	epdctl [flags] soak FRAMES
//
// With -preview the image, render and card commands print the frame to the
// terminal and never touch the panel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
	"github.com/ZaparooProject/go-epd4in3/detection"
	_ "github.com/ZaparooProject/go-epd4in3/detection/uart"
	"github.com/ZaparooProject/go-epd4in3/internal/config"
	"github.com/ZaparooProject/go-epd4in3/transport/uart"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"
)

var errUsage = errors.New("usage: epdctl [flags] image|render|card|text|bitmap|clear|sleep|probe|detect|soak")

// Package-level flag variables
var (
	flagConfig   string
	flagPort     string
	flagWakePin  string
	flagResetPin string
	flagFont     string
	flagLogDir   string
	flagFontSize float64
	flagRotate   int
	flagTimeout  time.Duration
	flagDebug    bool
	flagPreview  bool
)

func init() {
	flag.StringVar(&flagConfig, "config", defaultConfigPath(), "YAML configuration file")
	flag.StringVar(&flagPort, "port", "", "Serial port (auto-detect if empty)")
	flag.StringVar(&flagWakePin, "wake", "", "Wake line GPIO name")
	flag.StringVar(&flagResetPin, "reset", "", "Reset line GPIO name")
	flag.StringVar(&flagFont, "font", "", "TrueType font for render (built-in bitmap face if empty)")
	flag.Float64Var(&flagFontSize, "size", 48, "Font size in points for render")
	flag.IntVar(&flagRotate, "rotate", 0, "Host-side rotation for image and render: 0, 90, 180 or 270")
	flag.DurationVar(&flagTimeout, "timeout", 0, "Abort after this long (0 = no limit)")
	flag.StringVar(&flagLogDir, "log-dir", "", "Write a session log into this directory")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
	flag.BoolVar(&flagPreview, "preview", false, "Print composed frames to the terminal instead of the panel")
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "epdctl", "config.yaml")
}

// runOptions are the per-invocation settings that do not live in the
// configuration file.
type runOptions struct {
	fontPath string
	fontSize float64
	rotate   int
	preview  bool
}

// parseConfig loads the configuration file and applies explicitly set flags
// on top of it.
func parseConfig() (*config.Config, runOptions, error) {
	cfg := config.DefaultConfig()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, runOptions{}, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = flagPort
		case "wake":
			cfg.WakePin = flagWakePin
		case "reset":
			cfg.ResetPin = flagResetPin
		case "debug":
			cfg.Debug = flagDebug
		case "log-dir":
			cfg.LogDir = flagLogDir
		}
	})
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, runOptions{}, err
	}

	return cfg, runOptions{
		fontPath: flagFont,
		fontSize: flagFontSize,
		rotate:   flagRotate,
		preview:  flagPreview,
	}, nil
}

// app wires the configuration to the hardware. The open functions are
// replaced in tests.
type app struct {
	cfg           *config.Config
	out           io.Writer
	previewOut    io.Writer
	openTransport func(port string, cfg *config.Config) (epd4in3.Transport, error)
	openPins      func(wake, reset string) (gpio.PinOut, gpio.PinOut, error)
	detect        func(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error)
	forget        func(cacheFile, path string) error
	deviceOpts    []epd4in3.Option
	opts          runOptions
}

func newApp(cfg *config.Config, opts runOptions, out io.Writer) *app {
	return &app{
		cfg:           cfg,
		opts:          opts,
		out:           out,
		previewOut:    out,
		openTransport: openUART,
		openPins:      epd4in3.OpenPins,
		detect:        detection.Detect,
		forget:        detection.Forget,
	}
}

func openUART(port string, cfg *config.Config) (epd4in3.Transport, error) {
	var opts []uart.Option
	if cfg.ReadTimeout > 0 {
		opts = append(opts, uart.WithReadTimeout(cfg.ReadTimeout))
	}
	transport, err := uart.New(port, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport: %w", err)
	}
	return transport, nil
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// resolvePort returns the configured port or the best detected panel.
// refresh bypasses the detection cache.
func (a *app) resolvePort(ctx context.Context, refresh bool) (detection.DeviceInfo, error) {
	if a.cfg.Port != "" {
		return detection.DeviceInfo{Path: a.cfg.Port, Confidence: detection.High}, nil
	}

	opts, err := a.cfg.DetectionOptions()
	if err != nil {
		return detection.DeviceInfo{}, err
	}
	opts.Refresh = refresh
	devices, err := a.detect(ctx, &opts)
	if err != nil {
		return detection.DeviceInfo{}, fmt.Errorf("auto-detection failed: %w", err)
	}
	target, ok := detection.Best(devices, detection.Medium)
	if !ok {
		return detection.DeviceInfo{}, detection.ErrNoDevicesFound
	}
	epd4in3.Debugf("auto-detected %s", target)
	return target, nil
}

// connect resolves the port, opens the panel and resets it. A port taken
// from the detection cache must answer a handshake; if it does not, it is
// forgotten and detection runs again against the hardware.
func (a *app) connect(ctx context.Context) (*epd4in3.Device, error) {
	target, err := a.resolvePort(ctx, false)
	if err != nil {
		return nil, err
	}
	device, err := a.open(target.Path)
	if err != nil || !target.Cached {
		return device, err
	}

	hsErr := device.Handshake()
	if hsErr == nil {
		return device, nil
	}
	epd4in3.Debugf("cached port %s did not answer: %v", target.Path, hsErr)
	_ = device.Close()

	opts, err := a.cfg.DetectionOptions()
	if err != nil {
		return nil, err
	}
	if err := a.forget(opts.CacheFile, target.Path); err != nil {
		epd4in3.Debugf("failed to forget %s: %v", target.Path, err)
	}
	if target, err = a.resolvePort(ctx, true); err != nil {
		return nil, err
	}
	return a.open(target.Path)
}

// open opens the serial port and control lines and resets the panel.
func (a *app) open(port string) (*epd4in3.Device, error) {
	bg, fg, err := a.cfg.Colors()
	if err != nil {
		return nil, err
	}

	transport, err := a.openTransport(port, a.cfg)
	if err != nil {
		return nil, err
	}
	wake, reset, err := a.openPins(a.cfg.WakePin, a.cfg.ResetPin)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	opts := append([]epd4in3.Option{
		epd4in3.WithSize(a.cfg.Width, a.cfg.Height),
		epd4in3.WithBackgroundColor(bg),
		epd4in3.WithForegroundColor(fg),
	}, a.deviceOpts...)
	device, err := epd4in3.New(transport, wake, reset, opts...)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to initialize panel on %s: %w", port, err)
	}
	a.printf("Connected to panel on %s (%dx%d)\n", port, device.Width(), device.Height())
	return device, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	if cmd == "detect" {
		return a.runDetect(ctx)
	}
	if compose, ok := composers[cmd]; ok {
		return a.runCompose(ctx, compose, rest)
	}
	handler, ok := commands[cmd]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	return a.withDevice(ctx, func(device *epd4in3.Device) error {
		return handler(ctx, a, device, rest)
	})
}

func (a *app) runCompose(ctx context.Context, compose composeFunc, args []string) error {
	buf, err := compose(a, args)
	if err != nil {
		return err
	}
	if a.opts.preview {
		return a.preview(buf)
	}
	return a.withDevice(ctx, func(device *epd4in3.Device) error {
		return a.push(ctx, device, buf)
	})
}

// withDevice connects, runs fn and closes the device.
func (a *app) withDevice(ctx context.Context, fn func(*epd4in3.Device) error) error {
	device, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close device: %v\n", err)
		}
	}()

	return fn(device)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode(flag.Args()))
}

func mainWithExitCode(args []string) int {
	cfg, opts, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if cfg.Debug {
		epd4in3.SetDebugEnabled(true)
	}
	if cfg.LogDir != "" {
		path, logErr := epd4in3.InitSessionLog(cfg.LogDir)
		if logErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Session log disabled: %v\n", logErr)
		} else {
			defer func() { _ = epd4in3.CloseSessionLog() }()
			epd4in3.Debugf("session log at %s", path)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if flagTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, flagTimeout)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Print("\nShutting down gracefully...\n")
		cancel()
	}()

	a := newApp(cfg, opts, os.Stdout)
	a.previewOut = colorable.NewColorableStdout()
	if err := a.run(ctx, args); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}
