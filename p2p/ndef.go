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

package p2p

import (
	"fmt"

	"github.com/hsanjuan/go-ndef"
)

// EncodeText wraps text in a single NDEF text record
func EncodeText(text, language string) ([]byte, error) {
	data, err := ndef.NewTextMessage(text, language).Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode NDEF text record: %w", err)
	}
	return data, nil
}

// DecodeMessage returns the printable form of an NDEF message.
// ok is false when data does not start with a well-formed message.
func DecodeMessage(data []byte) (text string, ok bool) {
	// the first record header must carry the message begin flag
	if len(data) < 3 || data[0]&0x80 == 0 {
		return "", false
	}
	msg := &ndef.Message{}
	if _, err := msg.Unmarshal(data); err != nil {
		return "", false
	}
	if len(msg.Records) == 0 {
		return "", false
	}
	return msg.String(), true
}
