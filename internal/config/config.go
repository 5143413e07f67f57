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

// Package config holds the epdctl configuration file model.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
	"github.com/ZaparooProject/go-epd4in3/detection"
	"gopkg.in/yaml.v3"
)

// ErrEmptyPath is returned by Load and Save when no path is given.
var ErrEmptyPath = errors.New("config path is empty")

// DetectionConfig controls port auto-detection when no port is configured.
type DetectionConfig struct {
	// Mode is "passive", "safe" or "full".
	Mode string `yaml:"mode"`
	// IgnorePaths lists ports that are never opened.
	IgnorePaths []string `yaml:"ignore_paths,omitempty"`
	// Blocklist adds USB VID:PID pairs to the built-in blocklist.
	Blocklist []string `yaml:"blocklist,omitempty"`
	// CacheFile remembers detected ports between runs. Empty selects
	// ports.yaml in the user cache directory; "off" disables the cache.
	CacheFile string `yaml:"cache_file,omitempty"`
	// CacheTTL is how long a remembered port is trusted, e.g. "12h".
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`
}

// cacheDisabled values turn the detection cache off.
var cacheDisabled = []string{"off", "none"}

// Config is the top-level epdctl configuration.
type Config struct {
	// Port is the serial device. Empty means auto-detect.
	Port string `yaml:"port"`

	// WakePin and ResetPin are periph.io pin names.
	WakePin  string `yaml:"wake_pin"`
	ResetPin string `yaml:"reset_pin"`

	Background string `yaml:"background"`
	Foreground string `yaml:"foreground"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// ReadTimeout bounds a single acknowledgement byte, e.g. "50ms".
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// Dither selects Floyd-Steinberg error diffusion when converting images.
	Dither bool `yaml:"dither"`
	// KeepAspect letterboxes images instead of stretching them.
	KeepAspect bool `yaml:"keep_aspect"`

	Detection DetectionConfig `yaml:"detection"`

	Debug bool `yaml:"debug"`
	// LogDir enables a session log file in this directory.
	LogDir string `yaml:"log_dir,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{Dither: true, KeepAspect: true}
	c.Normalize()
	return c
}

// Normalize fills in zero values so that partial files behave like the
// defaults.
func (c *Config) Normalize() {
	if c.WakePin == "" {
		c.WakePin = epd4in3.DefaultWakePin
	}
	if c.ResetPin == "" {
		c.ResetPin = epd4in3.DefaultResetPin
	}
	if c.Background == "" {
		c.Background = epd4in3.DefaultBackgroundColor.String()
	}
	if c.Foreground == "" {
		c.Foreground = epd4in3.DefaultForegroundColor.String()
	}
	if c.Width <= 0 {
		c.Width = epd4in3.DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = epd4in3.DefaultHeight
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	if c.Detection.Mode == "" {
		c.Detection.Mode = detection.Safe.String()
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if _, err := epd4in3.ParseColor(c.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}
	if _, err := epd4in3.ParseColor(c.Foreground); err != nil {
		errs = append(errs, fmt.Errorf("foreground: %w", err))
	}
	if c.Width > 0xFFFF || c.Height > 0xFFFF {
		errs = append(errs, fmt.Errorf("%w: size %dx%d", epd4in3.ErrInvalidArgument, c.Width, c.Height))
	}
	if _, err := detection.ParseMode(c.Detection.Mode); err != nil {
		errs = append(errs, fmt.Errorf("detection: %w", err))
	}
	for _, id := range c.Detection.Blocklist {
		if _, err := detection.ParseVIDPID(id); err != nil {
			errs = append(errs, fmt.Errorf("detection blocklist: %w", err))
		}
	}
	if c.Detection.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("%w: detection cache_ttl %s", epd4in3.ErrInvalidArgument, c.Detection.CacheTTL))
	}
	return errors.Join(errs...)
}

// Colors returns the parsed background and foreground colors.
func (c *Config) Colors() (background, foreground epd4in3.Color, err error) {
	if background, err = epd4in3.ParseColor(c.Background); err != nil {
		return 0, 0, err
	}
	if foreground, err = epd4in3.ParseColor(c.Foreground); err != nil {
		return 0, 0, err
	}
	return background, foreground, nil
}

// DetectionOptions merges the configured detection settings into the
// library defaults.
func (c *Config) DetectionOptions() (detection.Options, error) {
	opts := detection.DefaultOptions()
	mode, err := detection.ParseMode(c.Detection.Mode)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode
	opts.IgnorePaths = append(opts.IgnorePaths, c.Detection.IgnorePaths...)
	for _, id := range c.Detection.Blocklist {
		canonical, err := detection.ParseVIDPID(id)
		if err != nil {
			return opts, err
		}
		opts.Blocklist = append(opts.Blocklist, canonical)
	}
	opts.CacheFile = c.cacheFile()
	if c.Detection.CacheTTL > 0 {
		opts.CacheTTL = c.Detection.CacheTTL
	}
	return opts, nil
}

func (c *Config) cacheFile() string {
	file := c.Detection.CacheFile
	if slices.Contains(cacheDisabled, strings.ToLower(file)) {
		return ""
	}
	if file != "" {
		return file
	}
	dir, err := userCacheDir()
	if err != nil {
		epd4in3.Debugf("no user cache dir, detection cache disabled: %v", err)
		return ""
	}
	return filepath.Join(dir, "epdctl", "ports.yaml")
}

// userCacheDir is replaced in tests.
var userCacheDir = os.UserCacheDir

// Load reads a YAML configuration from path. A missing file yields the
// defaults without creating it.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".epdctl-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
