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

package testing

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3/physic"
)

// ErrNoDevice is returned for transfers to an address nobody acknowledges
var ErrNoDevice = errors.New("i2c: no ACK from address")

// FakeBus is an in-memory i2c.BusCloser. Responder addresses acknowledge every
// transfer; a PN532 address answers command frames with the configured responses
// (ACK read of 7 bytes, then a response read of 263 bytes). Commands without a
// configured response are never acknowledged.
type FakeBus struct {
	responders map[uint16]bool
	responses  map[uint16]map[byte][]byte
	pending    map[uint16][][]byte
	commands   map[uint16][]byte
	mu         sync.Mutex
	closed     bool
}

// NewFakeBus creates a bus where the given addresses acknowledge transfers
func NewFakeBus(responders ...uint16) *FakeBus {
	b := &FakeBus{
		responders: make(map[uint16]bool),
		responses:  make(map[uint16]map[byte][]byte),
		pending:    make(map[uint16][][]byte),
		commands:   make(map[uint16][]byte),
	}
	for _, addr := range responders {
		b.responders[addr] = true
	}
	return b
}

// SetResponse makes addr answer cmd with resp (a response starting at cmd+1)
func (b *FakeBus) SetResponse(addr uint16, cmd byte, resp []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responders[addr] = true
	if b.responses[addr] == nil {
		b.responses[addr] = make(map[byte][]byte)
	}
	b.responses[addr][cmd] = resp
}

// SetPN532 configures addr as a ready PN532 v1.6
func (b *FakeBus) SetPN532(addr uint16) {
	b.SetResponse(addr, CmdGetFirmwareVersion, BuildFirmwareVersionResponse())
	b.SetResponse(addr, CmdSAMConfiguration, BuildSAMConfigurationResponse())
	b.SetResponse(addr, CmdRFConfiguration, BuildRFConfigurationResponse())
}

// Commands returns the command bytes written to addr, in order
func (b *FakeBus) Commands(addr uint16) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.commands[addr]...)
}

// Closed reports whether Close was called
func (b *FakeBus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (*FakeBus) String() string { return "fake" }

// Tx implements i2c.Bus
func (b *FakeBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.responders[addr] {
		return ErrNoDevice
	}
	if len(w) > 0 {
		b.write(addr, w)
		return nil
	}
	if q := b.pending[addr]; len(q) > 0 && len(q[0]) == len(r) {
		copy(r, q[0])
		b.pending[addr] = q[1:]
		return nil
	}
	clear(r)
	return nil
}

// write queues the replies to a host command frame: 00 00 FF LEN LCS D4 CMD ...
func (b *FakeBus) write(addr uint16, w []byte) {
	if len(w) < 7 || w[2] != 0xFF || w[5] != 0xD4 {
		return
	}
	cmd := w[6]
	b.commands[addr] = append(b.commands[addr], cmd)
	resp, ok := b.responses[addr][cmd]
	if !ok {
		b.pending[addr] = nil
		return
	}
	b.pending[addr] = [][]byte{
		I2CRead([]byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}, 7),
		I2CRead(EncodeResponseFrame(resp), 263),
	}
}

// SetSpeed implements i2c.Bus
func (*FakeBus) SetSpeed(physic.Frequency) error { return nil }

// Close implements i2c.BusCloser
func (b *FakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
