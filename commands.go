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

package pn532

// PN532 Command codes
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSamConfiguration    = 0x14
	cmdRFConfiguration     = 0x32
	cmdInDataExchange      = 0x40
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
	cmdInJumpForDEP        = 0x56
)

// RFConfiguration items
const (
	rfItemField      = 0x01
	rfItemMaxRetries = 0x05
)

// Baud rates accepted by InListPassiveTarget and InJumpForDEP
const (
	BaudRate106kbps byte = 0x00
	BaudRate212kbps byte = 0x01
	BaudRate424kbps byte = 0x02
)

// InJumpForDEP activation modes
const (
	DEPModePassive byte = 0x00
	DEPModeActive  byte = 0x01
)

// PN532 status codes (lower six bits of the status byte)
const (
	statusOK             = 0x00
	statusTimeout        = 0x01
	statusCRCError       = 0x02
	statusParityError    = 0x03
	statusFraming        = 0x05
	statusBufferOverflow = 0x07
	statusRFProtocol     = 0x0B
	statusDEPProtocol    = 0x13
	statusDEPInvalid     = 0x25
	statusNoTarget       = 0x27
	statusRFOff          = 0x29
	statusReleased       = 0x2B
)

// statusText returns a short description of a PN532 status code
func statusText(code byte) string {
	switch code & 0x3F {
	case statusOK:
		return "ok"
	case statusTimeout:
		return "target timeout"
	case statusCRCError:
		return "CRC error"
	case statusParityError:
		return "parity error"
	case statusFraming:
		return "framing error"
	case statusBufferOverflow:
		return "buffer overflow"
	case statusRFProtocol:
		return "RF protocol error"
	case statusDEPProtocol:
		return "DEP protocol error"
	case statusDEPInvalid:
		return "invalid DEP state"
	case statusNoTarget:
		return "no target"
	case statusRFOff:
		return "RF field switched off by peer"
	case statusReleased:
		return "target released"
	default:
		return "unknown"
	}
}
