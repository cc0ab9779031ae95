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

/*
Package pn532 drives a PN532 NFC controller as an ISO14443A reader and as an
NFCIP-1 (P2P) initiator.

The package frames PN532 host commands and decodes their replies. Anticollision,
ISO18092 negotiation and bus timing stay with the PN532 firmware and the bus driver.
Transports live in sub-packages:

  - transport/i2c: I2C through periph.io, polling the ready status byte
  - transport/uart: HSU through go.bug.st/serial

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-pn532-rhizome"
	    "github.com/ZaparooProject/go-pn532-rhizome/transport/i2c"
	)

	device, err := pn532.ConnectDevice(ctx, "",
	    pn532.WithTransportFactory(i2c.NewTransport),
	    pn532.WithConnectTimeout(time.Second),
	)
	if errors.Is(err, pn532.ErrDeviceNotFound) {
	    // nothing answered with a firmware version
	}
	defer device.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	tag, err := device.DetectTagContext(pollCtx)
	cancel()
	if err == nil {
	    fmt.Printf("UID % X\n", tag.UIDBytes)
	}

Peer to peer:

	target, err := device.JumpForDEPContext(ctx, pn532.DefaultDEPOptions())
	if errors.Is(err, pn532.ErrNoTargetFound) {
	    // no peer in the field
	}
	reply, err := device.DataExchangeContext(ctx, []byte("hello"))
	_ = device.ReleaseContext(ctx)

Error Handling:

Transport failures are *TransportError values classified by IsRetryable and
GetErrorType; non-zero PN532 status bytes are *PN532Error values. Wrap a transport
with NewRetryTransport for exponential backoff on transient errors.

Thread Safety:

Device is not safe for concurrent use. Hand it to a single goroutine.
*/
package pn532
