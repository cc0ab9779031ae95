// go-pn532-rhizome
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-pn532-rhizome.
//
// go-pn532-rhizome is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-pn532-rhizome is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-pn532-rhizome; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

//go:build linux

package i2c

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	// i2cFuncs is the ioctl command to get adapter functionality
	i2cFuncs = 0x0705

	// i2cFuncI2C indicates plain I2C support
	i2cFuncI2C = 0x00000001
)

// listBuses returns the /dev/i2c-N adapters that support plain I2C transfers
func listBuses() ([]busInfo, error) {
	matches, err := filepath.Glob("/dev/i2c-*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for I2C devices: %w", err)
	}

	buses := make([]busInfo, 0, len(matches))
	for _, path := range matches {
		number, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(path), "i2c-"))
		if err != nil {
			continue
		}
		if !supportsI2C(path) {
			continue
		}
		buses = append(buses, busInfo{Path: path, OpenName: strconv.Itoa(number)})
	}
	return buses, nil
}

// supportsI2C queries the adapter functionality bits
func supportsI2C(path string) bool {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return false
	}
	defer func() { _ = unix.Close(fd) }()

	funcs, err := unix.IoctlGetInt(fd, i2cFuncs)
	if err != nil {
		return false
	}
	return funcs&i2cFuncI2C != 0
}
