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

package detection

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	epd4in3 "github.com/ZaparooProject/go-epd4in3"
	"github.com/ZaparooProject/go-epd4in3/internal/syncutil"
	"gopkg.in/yaml.v3"
)

// DefaultCacheTTL is how long a remembered port is trusted without a scan.
const DefaultCacheTTL = 24 * time.Hour

const cacheVersion = 1

// cacheDocument is the on-disk form of a detection result.
type cacheDocument struct {
	Saved   time.Time    `yaml:"saved"`
	Devices []DeviceInfo `yaml:"devices"`
	Version int          `yaml:"version"`
}

var (
	// cacheMu serializes read-modify-write cycles within one process.
	// Writers replace the file atomically, so readers need no lock.
	cacheMu syncutil.Mutex

	timeNow    = time.Now
	portExists = portPresent
)

// portPresent checks that a device node still exists. COM names have no
// filesystem node and are assumed present.
func portPresent(path string) bool {
	if !filepath.IsAbs(path) {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

func readCache(file string) (*cacheDocument, error) {
	data, err := os.ReadFile(file) // #nosec G304 -- path comes from the operator's config
	if err != nil {
		return nil, err
	}
	var doc cacheDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse detection cache %s: %w", file, err)
	}
	return &doc, nil
}

// lookupCache returns the remembered devices whose ports still exist, or
// nil when the file is missing, stale or from another format version.
func lookupCache(file string, ttl time.Duration) []DeviceInfo {
	doc, err := readCache(file)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			epd4in3.Debugf("detection: ignoring cache: %v", err)
		}
		return nil
	}
	if doc.Version != cacheVersion {
		return nil
	}
	if ttl > 0 && timeNow().Sub(doc.Saved) > ttl {
		return nil
	}

	var devices []DeviceInfo
	for _, d := range doc.Devices {
		if !portExists(d.Path) {
			continue
		}
		d.Cached = true
		devices = append(devices, d)
	}
	return devices
}

// storeCache replaces the cache with devices. An empty result removes the
// file so a later run scans again.
func storeCache(file string, devices []DeviceInfo) error {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if len(devices) == 0 {
		return removeCache(file)
	}
	return writeCache(file, &cacheDocument{
		Version: cacheVersion,
		Saved:   timeNow().UTC(),
		Devices: devices,
	})
}

// Forget drops path from the cache file, typically after the remembered
// port stopped answering. A missing file or unknown path is not an error.
func Forget(file, path string) error {
	if file == "" {
		return nil
	}
	cacheMu.Lock()
	defer cacheMu.Unlock()

	doc, err := readCache(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		// An unreadable cache is as good as none.
		return removeCache(file)
	}

	kept := doc.Devices[:0]
	for _, d := range doc.Devices {
		if !samePort(d.Path, path) {
			kept = append(kept, d)
		}
	}
	switch {
	case len(kept) == len(doc.Devices):
		return nil
	case len(kept) == 0:
		return removeCache(file)
	}
	doc.Devices = kept
	return writeCache(file, doc)
}

func removeCache(file string) error {
	if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove detection cache: %w", err)
	}
	return nil
}

func writeCache(file string, doc *cacheDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode detection cache: %w", err)
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".epd-ports-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmpName, file); err != nil {
		return fmt.Errorf("replace detection cache: %w", err)
	}
	return nil
}
