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
	"errors"
	"fmt"
)

// maxExchangeData is the largest InDataExchange payload that fits a normal frame
// (255 - TFI - command - target number)
const maxExchangeData = 252

// DEPOptions configures InJumpForDEP
type DEPOptions struct {
	// GeneralBytes are sent to the target as Gi (max 48 bytes)
	GeneralBytes []byte
	// Mode is DEPModeActive or DEPModePassive
	Mode byte
	// BaudRate is BaudRate106kbps, BaudRate212kbps or BaudRate424kbps
	BaudRate byte
}

// DefaultDEPOptions returns active mode at 424 kbps
func DefaultDEPOptions() DEPOptions {
	return DEPOptions{
		Mode:     DEPModeActive,
		BaudRate: BaudRate424kbps,
	}
}

// DEPTarget describes the peer activated by InJumpForDEP
type DEPTarget struct {
	NFCID3       []byte
	GeneralBytes []byte
	TargetNumber byte
	DID          byte
	BS           byte
	BR           byte
	TO           byte
	PP           byte
}

// pollRequest is the FeliCa POL_REQ sent as passive initiator data at 212/424 kbps
var pollRequest = []byte{0x00, 0xFF, 0xFF, 0x00, 0x00}

// JumpForDEPContext registers the PN532 as a P2P initiator and activates a DEP target.
// A peer that does not answer within the transport timeout is reported as ErrNoTargetFound.
func (d *Device) JumpForDEPContext(ctx context.Context, opts DEPOptions) (*DEPTarget, error) {
	if opts.Mode != DEPModeActive && opts.Mode != DEPModePassive {
		return nil, fmt.Errorf("%w: DEP mode 0x%02X", ErrInvalidParameter, opts.Mode)
	}
	if opts.BaudRate > BaudRate424kbps {
		return nil, fmt.Errorf("%w: DEP baud rate 0x%02X", ErrInvalidParameter, opts.BaudRate)
	}
	if len(opts.GeneralBytes) > 48 {
		return nil, fmt.Errorf("%w: %d general bytes", ErrDataTooLarge, len(opts.GeneralBytes))
	}

	var next byte
	args := []byte{opts.Mode, opts.BaudRate, 0x00}
	if opts.Mode == DEPModePassive && opts.BaudRate != BaudRate106kbps {
		next |= 0x01
		args = append(args, pollRequest...)
	}
	if len(opts.GeneralBytes) > 0 {
		next |= 0x04
		args = append(args, opts.GeneralBytes...)
	}
	args[2] = next

	resp, err := d.sendCommand(ctx, cmdInJumpForDEP, args)
	if err != nil {
		if isDeadline(err) || errors.Is(err, ErrTransportTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrNoTargetFound, err)
		}
		return nil, fmt.Errorf("InJumpForDEP failed: %w", err)
	}
	if err := checkStatus(cmdInJumpForDEP, resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTargetFound, err)
	}

	target, err := parseDEPTarget(resp)
	if err != nil {
		return nil, err
	}
	d.currentTarget = target.TargetNumber
	debugf("DEP target %d activated (NFCID3 % X)", target.TargetNumber, target.NFCID3)
	return target, nil
}

// parseDEPTarget decodes [0x57, Status, Tg, NFCID3t(10), DIDt, BSt, BRt, TO, PPt, Gt...]
func parseDEPTarget(resp []byte) (*DEPTarget, error) {
	const minLen = 18
	if len(resp) < minLen {
		return nil, fmt.Errorf("%w: InJumpForDEP response %d bytes", ErrInvalidResponse, len(resp))
	}

	return &DEPTarget{
		TargetNumber: resp[2],
		NFCID3:       append([]byte(nil), resp[3:13]...),
		DID:          resp[13],
		BS:           resp[14],
		BR:           resp[15],
		TO:           resp[16],
		PP:           resp[17],
		GeneralBytes: append([]byte(nil), resp[18:]...),
	}, nil
}

// DataExchangeContext sends data to the current target and returns its reply
func (d *Device) DataExchangeContext(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) > maxExchangeData {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrDataTooLarge, len(data), maxExchangeData)
	}

	args := make([]byte, 0, len(data)+1)
	args = append(args, d.getCurrentTarget())
	args = append(args, data...)

	resp, err := d.sendCommand(ctx, cmdInDataExchange, args)
	if err != nil {
		return nil, fmt.Errorf("InDataExchange failed: %w", err)
	}
	if err := checkStatus(cmdInDataExchange, resp); err != nil {
		return nil, err
	}

	return append([]byte(nil), resp[2:]...), nil
}

// ReleaseContext releases the current target
func (d *Device) ReleaseContext(ctx context.Context) error {
	resp, err := d.sendCommand(ctx, cmdInRelease, []byte{d.getCurrentTarget()})
	if err != nil {
		return fmt.Errorf("InRelease failed: %w", err)
	}
	if err := checkStatus(cmdInRelease, resp); err != nil {
		return err
	}
	d.currentTarget = 0
	return nil
}

// getCurrentTarget returns the active target number (defaults to 1 if not set)
func (d *Device) getCurrentTarget() byte {
	if d.currentTarget == 0 {
		return 1
	}
	return d.currentTarget
}
