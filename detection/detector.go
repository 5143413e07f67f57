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

// Package detection finds the serial port an e-paper panel is attached to.
//
// A Scanner lists candidate ports. Detect filters them against the
// blocklist and ignore list, ranks them by confidence and, when a cache file
// is configured, remembers the result so the next process can skip probing.
package detection

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
	"github.com/ZaparooProject/go-epd4in3/internal/syncutil"
	"gopkg.in/yaml.v3"
)

// Mode selects how much traffic detection may put on a port.
type Mode int

const (
	// Passive only looks at port descriptors.
	Passive Mode = iota
	// Safe sends a single handshake frame.
	Safe
	// Full repeats the handshake with backoff, for panels still booting.
	Full
)

func (m Mode) String() string {
	switch m {
	case Passive:
		return "passive"
	case Safe:
		return "safe"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode is the inverse of Mode.String. An empty string means Safe.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "passive":
		return Passive, nil
	case "", "safe":
		return Safe, nil
	case "full":
		return Full, nil
	default:
		return Safe, fmt.Errorf("unknown detection mode %q", s)
	}
}

// Confidence ranks how sure detection is that a panel sits on a port.
type Confidence int

const (
	// Low is any serial port.
	Low Confidence = iota
	// Medium is a port of the kind panels are usually wired to.
	Medium
	// High is a port that answered the handshake.
	High
)

var confidenceNames = [...]string{Low: "low", Medium: "medium", High: "high"}

func (c Confidence) String() string {
	if c < 0 || int(c) >= len(confidenceNames) {
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
	return confidenceNames[c]
}

// MarshalYAML stores the confidence by name.
func (c Confidence) MarshalYAML() (any, error) {
	return c.String(), nil
}

// UnmarshalYAML accepts the names written by MarshalYAML.
func (c *Confidence) UnmarshalYAML(node *yaml.Node) error {
	i := slices.Index(confidenceNames[:], strings.ToLower(node.Value))
	if i < 0 {
		return fmt.Errorf("unknown confidence %q", node.Value)
	}
	*c = Confidence(i)
	return nil
}

// DeviceInfo describes one candidate port.
type DeviceInfo struct {
	// Path is what uart.New opens, e.g. "/dev/ttyUSB0" or "COM3".
	Path         string     `yaml:"path"`
	Name         string     `yaml:"name,omitempty"`
	VIDPID       string     `yaml:"vidpid,omitempty"`
	Manufacturer string     `yaml:"manufacturer,omitempty"`
	Product      string     `yaml:"product,omitempty"`
	Serial       string     `yaml:"serial,omitempty"`
	Confidence   Confidence `yaml:"confidence"`
	// Cached is set when the entry came from the cache file rather than a
	// scan in this process. Cached ports were not probed just now.
	Cached bool `yaml:"-"`
}

func (d DeviceInfo) String() string {
	var b strings.Builder
	b.WriteString(d.Path)
	if d.Product != "" {
		fmt.Fprintf(&b, " (%s)", d.Product)
	}
	fmt.Fprintf(&b, ", confidence %s", d.Confidence)
	if d.Cached {
		b.WriteString(", cached")
	}
	return b.String()
}

// Options controls Detect.
type Options struct {
	// Blocklist holds USB VID:PID pairs that are never opened.
	Blocklist []string
	// IgnorePaths holds ports that are never opened.
	IgnorePaths []string
	// CacheFile remembers results between processes. Empty disables it.
	CacheFile string
	// CacheTTL bounds how old a cache file may be. Zero never expires it.
	CacheTTL time.Duration
	// Timeout bounds the scan. Zero relies on the caller's context.
	Timeout time.Duration
	Mode    Mode
	// Refresh skips the cache lookup but still rewrites the cache.
	Refresh bool
}

// DefaultOptions returns safe-mode options with the built-in blocklist and
// no cache file.
func DefaultOptions() Options {
	return Options{
		Mode:      Safe,
		Timeout:   5 * time.Second,
		Blocklist: DefaultBlocklist(),
		CacheTTL:  DefaultCacheTTL,
	}
}

// Scanner lists candidate ports. Implementations should honor the
// options' mode and filters and stop when ctx is done.
type Scanner interface {
	Scan(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	// ErrNoDevicesFound indicates no panels were detected
	ErrNoDevicesFound = errors.New("no e-paper panels found")
	// ErrDetectionTimeout indicates the scan did not finish in time
	ErrDetectionTimeout = errors.New("detection timeout")
	// ErrNoScanner means no scanner package was imported
	ErrNoScanner = errors.New("no port scanner registered")
)

var (
	scannerMu      syncutil.Mutex
	defaultScanner Scanner
)

// SetScanner installs the scanner Detect uses. detection/uart calls it
// from init.
func SetScanner(s Scanner) {
	scannerMu.Lock()
	defaultScanner = s
	scannerMu.Unlock()
}

func currentScanner() Scanner {
	scannerMu.Lock()
	defer scannerMu.Unlock()
	return defaultScanner
}

// Detect returns candidate panels, best first, using the installed scanner.
func Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	return DetectWith(ctx, currentScanner(), opts)
}

// DetectWith is Detect with an explicit scanner.
//
// A fresh cache file is answered without scanning as long as at least one
// remembered port still exists and passes the filters. Otherwise the
// scanner runs and its result replaces the cache, so a port that vanished
// is forgotten.
func DetectWith(ctx context.Context, s Scanner, opts *Options) ([]DeviceInfo, error) {
	if opts.CacheFile != "" && !opts.Refresh {
		if devices := opts.filter(lookupCache(opts.CacheFile, opts.CacheTTL)); len(devices) > 0 {
			epd4in3.Debugf("detection: %d port(s) from %s", len(devices), opts.CacheFile)
			return devices, nil
		}
	}
	if s == nil {
		return nil, ErrNoScanner
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	devices, err := scan(ctx, s, opts)
	if err != nil && !errors.Is(err, ErrNoDevicesFound) {
		return nil, err
	}
	devices = rank(opts.filter(devices))

	if opts.CacheFile != "" {
		if err := storeCache(opts.CacheFile, devices); err != nil {
			epd4in3.Debugf("detection: cache not written: %v", err)
		}
	}
	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

// scan runs s in its own goroutine so that a port stuck in open cannot hold
// the caller past ctx.
func scan(ctx context.Context, s Scanner, opts *Options) ([]DeviceInfo, error) {
	type result struct {
		err     error
		devices []DeviceInfo
	}
	done := make(chan result, 1)
	go func() {
		devices, err := s.Scan(ctx, opts)
		done <- result{devices: devices, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrDetectionTimeout, ctx.Err())
		}
		return r.devices, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrDetectionTimeout, ctx.Err())
	}
}

// rank orders devices by confidence, highest first, then by path, and
// keeps only the best entry per path.
func rank(devices []DeviceInfo) []DeviceInfo {
	slices.SortStableFunc(devices, func(a, b DeviceInfo) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	seen := make(map[string]bool, len(devices))
	out := devices[:0]
	for _, d := range devices {
		key := portKey(d.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// Best returns the first device with at least minimum confidence. Devices
// are expected in Detect order.
func Best(devices []DeviceInfo, minimum Confidence) (DeviceInfo, bool) {
	for _, d := range devices {
		if d.Confidence >= minimum {
			return d, true
		}
	}
	return DeviceInfo{}, false
}
