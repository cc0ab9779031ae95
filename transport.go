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
	"time"
)

// TransportType names the physical link to the PN532
type TransportType string

const (
	TransportUART TransportType = "uart"
	TransportI2C  TransportType = "i2c"
	// TransportMock is reported by MockTransport
	TransportMock TransportType = "mock"
)

// Transport exchanges command frames with a PN532. SendCommandContext returns the
// response starting at the response code (command + 1) with the TFI stripped, and
// gives up when ctx is done or the transport timeout expires.
type Transport interface {
	SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error)
	SetTimeout(timeout time.Duration) error
	IsConnected() bool
	Type() TransportType
	Close() error
}
