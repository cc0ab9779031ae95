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
	"time"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// RetryConfig configures retry behavior for transport operations
	RetryConfig *RetryConfig
	// Timeout is the default timeout for operations
	Timeout time.Duration
	// PassiveActivationRetries is written to RFConfiguration MxRtyPassiveActivation
	// during Init. 0xFF retries until the caller's deadline aborts the command.
	PassiveActivationRetries byte
	// SAMMode is the SAM configuration mode written during Init
	SAMMode SAMMode
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		RetryConfig:              DefaultRetryConfig(),
		Timeout:                  1 * time.Second,
		PassiveActivationRetries: 0xFF,
		SAMMode:                  SAMModeNormal,
	}
}

// Device represents a PN532 NFC reader device
//
// Thread Safety: Device is NOT thread-safe. All methods must be called from
// a single goroutine. The programs in this module hand the Device to exactly one
// run loop, which is the only owner of the underlying bus.
type Device struct {
	transport       Transport
	config          *DeviceConfig
	firmwareVersion *FirmwareVersion
	currentTarget   byte
}

// New creates a new PN532 device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// FirmwareVersion returns the version read during Init, nil before Init
func (d *Device) FirmwareVersion() *FirmwareVersion {
	return d.firmwareVersion
}

// Init initializes the PN532 device
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// InitContext verifies that the PN532 answers with a non-zero firmware version, then
// configures the SAM and the passive activation retries. A missing controller is reported
// as ErrDeviceNotFound.
func (d *Device) InitContext(ctx context.Context) error {
	fw, err := d.GetFirmwareVersionContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
	}
	if !fw.Present() {
		return fmt.Errorf("%w: firmware version read returned 0", ErrDeviceNotFound)
	}
	d.firmwareVersion = fw
	debugf("PN532 firmware %s (IC 0x%02X, support 0x%02X)", fw.Version, fw.IC, fw.Support)

	if err := d.SAMConfigContext(ctx, d.config.SAMMode, 0x14, true); err != nil {
		return err
	}

	if err := d.SetPassiveActivationRetriesContext(ctx, d.config.PassiveActivationRetries); err != nil {
		return fmt.Errorf("RF configuration failed: %w", err)
	}

	return nil
}

// GetFirmwareVersion reads the firmware version
func (d *Device) GetFirmwareVersion() (*FirmwareVersion, error) {
	return d.GetFirmwareVersionContext(context.Background())
}

// GetFirmwareVersionContext reads the firmware version
func (d *Device) GetFirmwareVersionContext(ctx context.Context) (*FirmwareVersion, error) {
	resp, err := d.sendCommand(ctx, cmdGetFirmwareVersion, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get firmware version: %w", err)
	}
	return parseFirmwareVersion(resp)
}

// SAMConfigContext configures the Security Access Module.
// timeout is in units of 50ms and only applies to virtual card mode.
func (d *Device) SAMConfigContext(ctx context.Context, mode SAMMode, timeout byte, useIRQ bool) error {
	irq := byte(0x00)
	if useIRQ {
		irq = 0x01
	}
	if _, err := d.sendCommand(ctx, cmdSamConfiguration, []byte{byte(mode), timeout, irq}); err != nil {
		return fmt.Errorf("SAM configuration failed: %w", err)
	}
	return nil
}

// SetPassiveActivationRetriesContext sets MxRtyPassiveActivation (0xFF = retry forever)
func (d *Device) SetPassiveActivationRetriesContext(ctx context.Context, retries byte) error {
	args := []byte{rfItemMaxRetries, 0xFF, 0x01, retries}
	if _, err := d.sendCommand(ctx, cmdRFConfiguration, args); err != nil {
		return fmt.Errorf("failed to set passive activation retries: %w", err)
	}
	return nil
}

// SetRFFieldContext switches the RF field on or off
func (d *Device) SetRFFieldContext(ctx context.Context, on bool) error {
	field := byte(0x00)
	if on {
		field = 0x01
	}
	if _, err := d.sendCommand(ctx, cmdRFConfiguration, []byte{rfItemField, field}); err != nil {
		return fmt.Errorf("failed to switch RF field: %w", err)
	}
	return nil
}

// SetTimeout sets the default timeout for operations
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// SetRetryConfig updates the retry configuration
func (d *Device) SetRetryConfig(config *RetryConfig) {
	d.config.RetryConfig = config
	if tr, ok := d.transport.(*RetryTransport); ok {
		tr.SetRetryConfig(config)
	}
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

// sendCommand sends cmd and checks that the response carries the matching response code
func (d *Device) sendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if d.transport == nil {
		return nil, ErrDeviceNotFound
	}

	resp, err := d.transport.SendCommandContext(ctx, cmd, args)
	if err != nil {
		return nil, err
	}

	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: empty response to command 0x%02X", ErrInvalidResponse, cmd)
	}
	if resp[0] != cmd+1 {
		return nil, fmt.Errorf("%w: unexpected response code 0x%02X for command 0x%02X",
			ErrInvalidResponse, resp[0], cmd)
	}

	return resp, nil
}

// checkStatus converts the status byte following the response code into an error
func checkStatus(cmd byte, resp []byte) error {
	if len(resp) < 2 {
		return fmt.Errorf("%w: response to command 0x%02X too short", ErrInvalidResponse, cmd)
	}
	if status := resp[1] & 0x3F; status != statusOK {
		return &PN532Error{Cmd: cmd, ErrorCode: status}
	}
	return nil
}

// isDeadline reports whether err comes from an expired or cancelled context
func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
