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
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultBlocklist returns USB serial devices that must not be probed.
// Opening these toggles DTR, which reboots the board behind them.
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno R3
		"2341:0042", // Arduino Mega 2560 R3
		"2341:8036", // Arduino Leonardo
	}
}

// ParseVIDPID returns s as an upper-case "VVVV:PPPP" pair. A "0x" prefix on
// either half is accepted.
func ParseVIDPID(s string) (string, error) {
	vid, pid, ok := strings.Cut(strings.TrimSpace(s), ":")
	if ok {
		vid, pid = usbID(vid), usbID(pid)
	}
	if !ok || vid == "" || pid == "" {
		return "", fmt.Errorf("invalid USB VID:PID %q", s)
	}
	return vid + ":" + pid, nil
}

// usbID normalizes one 16-bit hex half, or returns "" if it is not one.
func usbID(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0X")
	if len(s) != 4 {
		return ""
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return ""
		}
	}
	return s
}

// IsBlocked reports whether vidpid is on the blocklist. Malformed entries
// on either side never match.
func IsBlocked(vidpid string, blocklist []string) bool {
	id, err := ParseVIDPID(vidpid)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(blocklist, func(entry string) bool {
		blocked, err := ParseVIDPID(entry)
		return err == nil && blocked == id
	})
}

// IsPathIgnored reports whether path is on the ignore list.
func IsPathIgnored(path string, ignorePaths []string) bool {
	if path == "" {
		return false
	}
	return slices.ContainsFunc(ignorePaths, func(ignored string) bool {
		return ignored != "" && samePort(path, ignored)
	})
}

// Allows reports whether a port passes both the ignore list and the
// blocklist.
func (o *Options) Allows(path, vidpid string) bool {
	return !IsPathIgnored(path, o.IgnorePaths) && !IsBlocked(vidpid, o.Blocklist)
}

func (o *Options) filter(devices []DeviceInfo) []DeviceInfo {
	var out []DeviceInfo
	for _, d := range devices {
		if o.Allows(d.Path, d.VIDPID) {
			out = append(out, d)
		}
	}
	return out
}

// portKey folds case because Windows COM names are case-insensitive.
func portKey(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

func samePort(a, b string) bool {
	return portKey(a) == portKey(b)
}
