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

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateChecksum(t *testing.T) {
	t.Parallel()

	assert.Equal(t, byte(0x00), CalculateChecksum(nil))
	assert.Equal(t, byte(0x30), CalculateChecksum([]byte{0x10, 0x20}))
	assert.Equal(t, byte(0x00), CalculateChecksum([]byte{0xFF, 0x01}))
}

func TestCalculateDataChecksum(t *testing.T) {
	t.Parallel()

	// GetFirmwareVersion: D4 02 DCS
	dcs := CalculateDataChecksum(HostToPn532, []byte{0x02})
	assert.Equal(t, byte(0x2A), dcs)
	assert.False(t, ValidateChecksum([]byte{HostToPn532, 0x02, dcs}))
	assert.True(t, ValidateChecksum([]byte{HostToPn532, 0x02, dcs + 1}))
}

func TestCalculateLengthChecksum(t *testing.T) {
	t.Parallel()

	for i := range 256 {
		length := byte(i)
		assert.Zero(t, length+CalculateLengthChecksum(length), "length %d", length)
	}
}
