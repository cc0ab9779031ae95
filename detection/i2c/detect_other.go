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

//go:build !linux

package i2c

import (
	"github.com/ZaparooProject/go-pn532-rhizome/detection"
	i2ctransport "github.com/ZaparooProject/go-pn532-rhizome/transport/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// listBuses returns the buses registered by periph host drivers (e.g. USB bridges)
func listBuses() ([]busInfo, error) {
	if err := i2ctransport.InitHost(); err != nil {
		return nil, err
	}

	refs := i2creg.All()
	if len(refs) == 0 {
		return nil, detection.ErrUnsupportedPlatform
	}

	buses := make([]busInfo, 0, len(refs))
	for _, ref := range refs {
		buses = append(buses, busInfo{Path: ref.Name, OpenName: ref.Name})
	}
	return buses, nil
}
