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

// Package testing provides canned PN532 responses for tests.
//
// Responses start at the response code (command + 1) with the TFI stripped,
// which is what pn532.Transport implementations return. EncodeResponseFrame wraps
// them into the frames a PN532 puts on the wire.
package testing

import "github.com/ZaparooProject/go-pn532-rhizome/internal/frame"

// Command bytes for reference
const (
	CmdGetFirmwareVersion  = 0x02
	CmdSAMConfiguration    = 0x14
	CmdRFConfiguration     = 0x32
	CmdInDataExchange      = 0x40
	CmdInListPassiveTarget = 0x4A
	CmdInRelease           = 0x52
	CmdInJumpForDEP        = 0x56
)

// Common UIDs for testing
var (
	// TestNTAG213UID is a sample NTAG213 UID
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

	// TestMIFARE1KUID is a sample MIFARE Classic 1K UID
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}

	// TestNFCID3 is a sample NFCID3 of a P2P target
	TestNFCID3 = []byte{0x01, 0xFE, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7, 0x00, 0x00}
)

// BuildFirmwareVersionResponse creates a GetFirmwareVersion response for a PN532 v1.6
func BuildFirmwareVersionResponse() []byte {
	return BuildFirmwareVersionResponseFor(0x32, 0x01, 0x06, 0x07)
}

// BuildFirmwareVersionResponseFor creates a GetFirmwareVersion response with the given fields
func BuildFirmwareVersionResponseFor(ic, ver, rev, support byte) []byte {
	return []byte{CmdGetFirmwareVersion + 1, ic, ver, rev, support}
}

// BuildZeroFirmwareVersionResponse is what a floating bus reads back
func BuildZeroFirmwareVersionResponse() []byte {
	return BuildFirmwareVersionResponseFor(0, 0, 0, 0)
}

// BuildSAMConfigurationResponse creates a SAMConfiguration response
func BuildSAMConfigurationResponse() []byte {
	return []byte{CmdSAMConfiguration + 1}
}

// BuildRFConfigurationResponse creates an RFConfiguration response
func BuildRFConfigurationResponse() []byte {
	return []byte{CmdRFConfiguration + 1}
}

// BuildTagDetectionResponse creates an InListPassiveTarget response for one target
func BuildTagDetectionResponse(tagType string, uid []byte) []byte {
	switch tagType {
	case "NTAG213":
		return buildDetectionResponse(uid, 0x44, 0x00)
	case "MIFARE1K":
		return buildDetectionResponse(uid, 0x04, 0x08)
	case "MIFARE4K":
		return buildDetectionResponse(uid, 0x02, 0x18)
	default:
		return buildDetectionResponse(uid, 0x04, 0x00)
	}
}

// BuildNoTagResponse creates an empty InListPassiveTarget response
func BuildNoTagResponse() []byte {
	return []byte{CmdInListPassiveTarget + 1, 0x00}
}

// BuildDEPTargetResponse creates a successful InJumpForDEP response for target 1
func BuildDEPTargetResponse(nfcid3, generalBytes []byte) []byte {
	response := []byte{CmdInJumpForDEP + 1, 0x00, 0x01}
	id := make([]byte, 10)
	copy(id, nfcid3)
	response = append(response, id...)
	// DIDt, BSt, BRt, TO, PPt
	response = append(response, 0x00, 0x00, 0x02, 0x0E, 0x32)
	return append(response, generalBytes...)
}

// BuildDataExchangeResponse creates a successful InDataExchange response
func BuildDataExchangeResponse(data []byte) []byte {
	response := []byte{CmdInDataExchange + 1, 0x00}
	return append(response, data...)
}

// BuildReleaseResponse creates a successful InRelease response
func BuildReleaseResponse() []byte {
	return []byte{CmdInRelease + 1, 0x00}
}

// BuildErrorResponse creates a response carrying a non-zero status byte
func BuildErrorResponse(cmd, errorCode byte) []byte {
	return []byte{cmd + 1, errorCode}
}

// EncodeResponseFrame wraps a response into a PN532-to-host information frame
func EncodeResponseFrame(response []byte) []byte {
	length := byte(len(response) + 1)
	frm := []byte{frame.Preamble, frame.StartCode1, frame.StartCode2,
		length, frame.CalculateLengthChecksum(length), frame.Pn532ToHost}
	frm = append(frm, response...)
	return append(frm, frame.CalculateDataChecksum(frame.Pn532ToHost, response), frame.Postamble)
}

// I2CRead prefixes data with the I2C ready byte and zero pads it to size
func I2CRead(data []byte, size int) []byte {
	buf := make([]byte, size)
	buf[0] = 0x01
	copy(buf[1:], data)
	return buf
}

func buildDetectionResponse(uid []byte, atqa, sak byte) []byte {
	response := []byte{CmdInListPassiveTarget + 1, 0x01, 0x01, 0x00, atqa, sak, byte(len(uid))}
	return append(response, uid...)
}
