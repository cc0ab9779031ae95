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

import "fmt"

// FirmwareVersion contains PN532 firmware information
type FirmwareVersion struct {
	Version          string
	Raw              uint32
	IC               byte
	Ver              byte
	Rev              byte
	Support          byte
	SupportIso14443a bool
	SupportIso14443b bool
	SupportIso18092  bool
}

// parseFirmwareVersion decodes a GetFirmwareVersion response ([0x03, IC, Ver, Rev, Support])
func parseFirmwareVersion(resp []byte) (*FirmwareVersion, error) {
	if len(resp) < 5 || resp[0] != cmdGetFirmwareVersion+1 {
		return nil, fmt.Errorf("%w: firmware version response % X", ErrInvalidResponse, resp)
	}

	fw := &FirmwareVersion{
		IC:      resp[1],
		Ver:     resp[2],
		Rev:     resp[3],
		Support: resp[4],
	}
	fw.Raw = uint32(fw.IC)<<24 | uint32(fw.Ver)<<16 | uint32(fw.Rev)<<8 | uint32(fw.Support)
	fw.Version = fmt.Sprintf("%d.%d", fw.Ver, fw.Rev)
	fw.SupportIso14443a = fw.Support&0x01 != 0
	fw.SupportIso14443b = fw.Support&0x02 != 0
	fw.SupportIso18092 = fw.Support&0x04 != 0
	return fw, nil
}

// Present reports whether the version read identifies a responding controller
func (fw *FirmwareVersion) Present() bool {
	return fw != nil && fw.Raw != 0
}
