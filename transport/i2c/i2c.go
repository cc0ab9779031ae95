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

// Package i2c provides I2C transport implementation for PN532
package i2c

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
	"github.com/ZaparooProject/go-pn532-rhizome/detection"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/frame"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/transport"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the 7-bit I2C address of the PN532 (0x48 >> 1)
	DefaultAddress = 0x24

	// DefaultTimeout bounds one command exchange unless the caller's context is shorter
	DefaultTimeout = time.Second

	pn532Ready = 0x01

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	// Every I2C read starts with the ready status byte
	ackReadLen      = 1 + 6
	responseReadLen = 1 + frame.MaxNormalDataLength + frame.FrameOverhead

	readyPollInterval = time.Millisecond
	maxNackRetries    = 2
)

var hostOnce = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// InitHost registers the periph host drivers once per process
func InitHost() error {
	if err := hostOnce(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return nil
}

// OpenBus initializes the host drivers and opens the named I2C bus ("" = first bus)
func OpenBus(busName string) (i2c.BusCloser, error) {
	if err := InitHost(); err != nil {
		return nil, err
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", busName, err)
	}

	// Not every adapter supports changing the clock; keep its default then
	_ = bus.SetSpeed(maxClockFreq)

	return bus, nil
}

// Transport implements the pn532.Transport interface for I2C communication
type Transport struct {
	dev     *i2c.Dev
	closer  i2c.BusCloser
	busName string
	timeout time.Duration
}

// New opens busName and creates a transport for the PN532 at DefaultAddress.
// The transport owns the bus and closes it on Close.
func New(busName string) (*Transport, error) {
	return NewWithAddress(busName, DefaultAddress)
}

// NewWithAddress opens busName and creates a transport for the PN532 at addr
func NewWithAddress(busName string, addr uint16) (*Transport, error) {
	bus, err := OpenBus(busName)
	if err != nil {
		return nil, err
	}

	return NewWithOwnedBus(bus, busName, addr), nil
}

// NewWithOwnedBus creates a transport on an already opened bus and closes
// the bus on Close
func NewWithOwnedBus(bus i2c.BusCloser, busName string, addr uint16) *Transport {
	t := NewWithBus(bus, busName, addr)
	t.closer = bus
	return t
}

// NewWithBus creates a transport on an already opened bus. The caller keeps
// ownership of the bus.
func NewWithBus(bus i2c.Bus, busName string, addr uint16) *Transport {
	return &Transport{
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		busName: busName,
		timeout: DefaultTimeout,
	}
}

// NewTransport is a pn532.TransportFactory. path is a bus name, optionally
// followed by ":0xNN" to select a non-default address (e.g. "/dev/i2c-1:0x24").
func NewTransport(path string) (pn532.Transport, error) {
	busName, addr, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return NewWithAddress(busName, addr)
}

// FromDeviceInfo is a pn532.TransportFromDeviceFactory for devices found by the I2C detector
func FromDeviceInfo(info detection.DeviceInfo) (pn532.Transport, error) {
	if info.Transport != "i2c" {
		return nil, fmt.Errorf("%w: %s device %s", pn532.ErrInvalidParameter, info.Transport, info.Path)
	}
	return NewTransport(info.Path)
}

// ParsePath splits "bus[:0xNN]" into the bus name and the device address
func ParsePath(path string) (busName string, addr uint16, err error) {
	idx := strings.LastIndex(path, ":0x")
	if idx < 0 {
		idx = strings.LastIndex(path, ":0X")
	}
	if idx < 0 {
		return path, DefaultAddress, nil
	}

	v, err := strconv.ParseUint(path[idx+3:], 16, 7)
	if err != nil {
		return "", 0, fmt.Errorf("%w: I2C address in %q", pn532.ErrInvalidParameter, path)
	}
	return path[:idx], uint16(v), nil
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandContext(context.Background(), cmd, args)
}

// SendCommandContext sends a command and waits for its response. The wait ends at the
// transport timeout or when ctx is done, whichever comes first; an abandoned command
// is aborted on the PN532 with an ACK frame so the next command finds it idle.
func (t *Transport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("send command 0x%02X: %w", cmd, err)
	}

	if err := t.sendFrame(cmd, args); err != nil {
		return nil, err
	}

	if err := t.waitAck(ctx); err != nil {
		return nil, t.abortAbandoned(ctx, err)
	}

	resp, err := t.receiveFrame(ctx)
	if err != nil {
		return nil, t.abortAbandoned(ctx, err)
	}
	return resp, nil
}

// SendCommandWithContext is an alias of SendCommandContext
func (t *Transport) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandContext(ctx, cmd, args)
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout %v", pn532.ErrInvalidParameter, timeout)
	}
	t.timeout = timeout
	return nil
}

// Close closes the bus if the transport opened it
func (t *Transport) Close() error {
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	t.dev = nil
	if err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

// abortAbandoned sends an ACK so that the PN532 drops a command nobody waits for anymore.
// A wait is abandoned when ctx is done or the transport timeout expired.
func (t *Transport) abortAbandoned(ctx context.Context, err error) error {
	if t.dev == nil || (ctx.Err() == nil && !errors.Is(err, pn532.ErrTransportTimeout)) {
		return err
	}
	if ackErr := t.sendAck(); ackErr != nil {
		return errors.Join(err, ackErr)
	}
	return err
}

// sendFrame sends a command frame to the PN532
func (t *Transport) sendFrame(cmd byte, args []byte) error {
	if t.dev == nil {
		return pn532.NewTransportError("sendFrame", t.busName, pn532.ErrTransportNotReady, pn532.ErrorTypePermanent)
	}

	frm, err := frame.BuildCommandFrame(cmd, args)
	if err != nil {
		return pn532.NewDataTooLargeError("sendFrame", t.busName)
	}

	if err := t.dev.Tx(frm, nil); err != nil {
		return pn532.NewTransportError("sendFrame", t.busName,
			fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err), pn532.ErrorTypeTransient)
	}
	return nil
}

// readReady reads n bytes and reports whether the leading status byte says ready
func (t *Transport) readReady(buf []byte) (bool, error) {
	if err := t.dev.Tx(nil, buf); err != nil {
		return false, pn532.NewTransportError("read", t.busName,
			fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), pn532.ErrorTypeTransient)
	}
	return buf[0] == pn532Ready, nil
}

// waitAck waits for an ACK frame from the PN532
func (t *Transport) waitAck(ctx context.Context) error {
	buf := frame.GetSmallBuffer(ackReadLen)
	defer frame.PutBuffer(buf)

	_, err := transport.PollUntil(ctx, t.timeout, readyPollInterval, "waitAck", t.busName,
		func() (struct{}, bool, error) {
			ready, err := t.readReady(buf)
			if err != nil || !ready {
				return struct{}{}, !ready && err == nil, err
			}
			if !frame.IsAck(buf[1:]) {
				return struct{}{}, false, pn532.NewNoACKError("waitAck", t.busName)
			}
			return struct{}{}, false, nil
		})
	return err
}

// receiveFrame waits for the response frame, NACKing corrupted frames so the PN532 resends them
func (t *Transport) receiveFrame(ctx context.Context) ([]byte, error) {
	buf := frame.GetBuffer(responseReadLen)
	defer frame.PutBuffer(buf)

	cfg := transport.RetryConfig{
		Op:         "receiveFrame",
		Port:       t.busName,
		MaxRetries: maxNackRetries,
		OnRetry:    t.sendNack,
	}

	return transport.WithRetry(ctx, cfg, func() ([]byte, bool, error) {
		_, err := transport.PollUntil(ctx, t.timeout, readyPollInterval, "receiveFrame", t.busName,
			func() (struct{}, bool, error) {
				ready, err := t.readReady(buf)
				return struct{}{}, !ready && err == nil, err
			})
		if err != nil {
			return nil, false, err
		}

		data, err := frame.ParseResponse(buf[1:])
		switch {
		case err == nil:
			return data, false, nil
		case errors.Is(err, frame.ErrLengthChecksum), errors.Is(err, frame.ErrDataChecksum):
			pn532.Logger().Debug().Err(err).Str("bus", t.busName).Msg("corrupted frame, sending NACK")
			return nil, true, nil
		case errors.Is(err, frame.ErrApplicationFault):
			return nil, false, pn532.NewTransportError("receiveFrame", t.busName,
				fmt.Errorf("%w: %w", pn532.ErrCommunicationFailed, err), pn532.ErrorTypePermanent)
		default:
			return nil, false, pn532.NewTransportError("receiveFrame", t.busName,
				fmt.Errorf("%w: %w", pn532.ErrFrameCorrupted, err), pn532.ErrorTypeTransient)
		}
	})
}

// sendAck sends an ACK frame to the PN532
func (t *Transport) sendAck() error {
	if err := t.dev.Tx(frame.AckFrame, nil); err != nil {
		return fmt.Errorf("failed to send ACK: %w", err)
	}
	return nil
}

// sendNack sends a NACK frame to the PN532
func (t *Transport) sendNack() error {
	if err := t.dev.Tx(frame.NackFrame, nil); err != nil {
		return fmt.Errorf("failed to send NACK: %w", err)
	}
	return nil
}

var _ pn532.Transport = (*Transport)(nil)
