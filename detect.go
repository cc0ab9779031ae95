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

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// TagType identifies the family of a detected ISO14443A tag
type TagType string

const (
	// TagTypeNTAG is an NFC Forum Type 2 tag (SAK 0x00)
	TagTypeNTAG TagType = "NTAG"
	// TagTypeMIFARE is a MIFARE Classic tag (SAK 0x08/0x18)
	TagTypeMIFARE TagType = "MIFARE"
	// TagTypeISO14443_4 is an ISO14443-4 compliant tag (SAK bit 0x20)
	TagTypeISO14443_4 TagType = "ISO14443-4"
	// TagTypeUnknown is any other tag
	TagTypeUnknown TagType = "UNKNOWN"
)

// DetectedTag represents a tag found by InListPassiveTarget
type DetectedTag struct {
	DetectedAt   time.Time
	UID          string
	Type         TagType
	UIDBytes     []byte
	ATQ          []byte
	ATS          []byte
	SAK          byte
	TargetNumber byte
}

// identifyTagType maps the SAK byte to a tag family
func identifyTagType(sak byte) TagType {
	switch {
	case sak == 0x00:
		return TagTypeNTAG
	case sak == 0x08 || sak == 0x18 || sak == 0x09:
		return TagTypeMIFARE
	case sak&0x20 != 0:
		return TagTypeISO14443_4
	default:
		return TagTypeUnknown
	}
}

// DetectTagContext polls once for a single 106 kbps type A target.
// It returns ErrNoTagDetected when the PN532 reports no target.
func (d *Device) DetectTagContext(ctx context.Context) (*DetectedTag, error) {
	tags, err := d.InListPassiveTargetContext(ctx, 1, BaudRate106kbps)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, ErrNoTagDetected
	}
	return tags[0], nil
}

// InListPassiveTargetContext lists up to maxTg passive targets at baud rate brTy.
// Only 106 kbps type A target data is decoded.
func (d *Device) InListPassiveTargetContext(ctx context.Context, maxTg, brTy byte) ([]*DetectedTag, error) {
	if maxTg == 0 || maxTg > 2 {
		return nil, fmt.Errorf("%w: maxTg must be 1 or 2", ErrInvalidParameter)
	}
	if brTy != BaudRate106kbps {
		return nil, fmt.Errorf("%w: only 106 kbps type A is supported", ErrInvalidParameter)
	}

	resp, err := d.sendCommand(ctx, cmdInListPassiveTarget, []byte{maxTg, brTy})
	if err != nil {
		if isDeadline(err) {
			return nil, fmt.Errorf("%w: %w", ErrNoTagDetected, err)
		}
		return nil, fmt.Errorf("InListPassiveTarget failed: %w", err)
	}

	return parseTargetsTypeA(resp, time.Now())
}

// parseTargetsTypeA decodes [0x4B, NbTg, {Tg, SENS_RES(2), SEL_RES, NFCIDLength, NFCID..., [ATSLen, ATS...]}...]
func parseTargetsTypeA(resp []byte, now time.Time) ([]*DetectedTag, error) {
	if len(resp) < 2 {
		return nil, fmt.Errorf("%w: InListPassiveTarget response too short", ErrInvalidResponse)
	}

	count := int(resp[1])
	tags := make([]*DetectedTag, 0, count)
	pos := 2

	for i := 0; i < count; i++ {
		if pos+5 > len(resp) {
			return nil, fmt.Errorf("%w: target %d header truncated", ErrInvalidResponse, i+1)
		}

		tag := &DetectedTag{
			TargetNumber: resp[pos],
			ATQ:          []byte{resp[pos+1], resp[pos+2]},
			SAK:          resp[pos+3],
			DetectedAt:   now,
		}
		uidLen := int(resp[pos+4])
		pos += 5

		if pos+uidLen > len(resp) {
			return nil, fmt.Errorf("%w: target %d UID truncated", ErrInvalidResponse, i+1)
		}
		tag.UIDBytes = append([]byte(nil), resp[pos:pos+uidLen]...)
		tag.UID = strings.ToUpper(hex.EncodeToString(tag.UIDBytes))
		tag.Type = identifyTagType(tag.SAK)
		pos += uidLen

		// ISO14443-4 targets append an ATS
		if tag.SAK&0x20 != 0 && pos < len(resp) {
			atsLen := int(resp[pos])
			if atsLen > 0 && pos+atsLen <= len(resp) {
				tag.ATS = append([]byte(nil), resp[pos+1:pos+atsLen]...)
				pos += atsLen
			}
		}

		tags = append(tags, tag)
	}

	return tags, nil
}
