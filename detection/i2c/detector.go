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

// Package i2c finds PN532 controllers on I2C buses
package i2c

import (
	"context"
	"errors"
	"fmt"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
	"github.com/ZaparooProject/go-pn532-rhizome/detection"
	i2ctransport "github.com/ZaparooProject/go-pn532-rhizome/transport/i2c"
	"periph.io/x/conn/v3/i2c"
)

const (
	// DefaultPN532Address is the standard I2C address for PN532 (0x48 >> 1)
	DefaultPN532Address = 0x24

	probeTimeout = 200 * time.Millisecond
)

// busInfo names a bus both for display and for i2creg.Open
type busInfo struct {
	Path     string // e.g. "/dev/i2c-1"
	OpenName string // name accepted by i2creg.Open, e.g. "1"
}

// ScanBus probes every 7-bit address from first to last with a one byte read and
// returns the addresses that acknowledged, in ascending order.
func ScanBus(ctx context.Context, bus i2c.Bus, first, last uint8) ([]uint8, error) {
	if first > last || last > 0x7F {
		return nil, fmt.Errorf("%w: address range 0x%02X-0x%02X", pn532.ErrInvalidParameter, first, last)
	}

	var (
		found []uint8
		buf   [1]byte
	)
	for addr := int(first); addr <= int(last); addr++ {
		if err := ctx.Err(); err != nil {
			return found, fmt.Errorf("bus scan interrupted: %w", err)
		}
		if err := bus.Tx(uint16(addr), nil, buf[:]); err == nil {
			found = append(found, uint8(addr))
		}
	}
	return found, nil
}

// detector implements the Detector interface for I2C devices
type detector struct {
	listBuses func() ([]busInfo, error)
	openBus   func(name string) (i2c.BusCloser, error)
}

// New creates a new I2C detector
func New() detection.Detector {
	return &detector{
		listBuses: listBuses,
		openBus:   i2ctransport.OpenBus,
	}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "i2c"
}

// Detect searches for PN532 devices on I2C buses
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	buses, err := d.listBuses()
	if err != nil {
		return nil, err
	}
	if len(buses) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	var devices []detection.DeviceInfo
	for _, bus := range buses {
		if ctx.Err() != nil {
			return devices, detection.ErrDetectionTimeout
		}

		found, err := d.detectBus(ctx, bus, opts)
		if err != nil {
			pn532.Logger().Debug().Err(err).Str("bus", bus.Path).Msg("skipping I2C bus")
			continue
		}
		devices = append(devices, found...)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// detectBus scans one bus; passive mode lists the default address without bus traffic
func (d *detector) detectBus(ctx context.Context, bus busInfo, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if opts.Mode == detection.Passive {
		device := newDeviceInfo(bus, DefaultPN532Address)
		if detection.IsPathIgnored(device.Path, opts.IgnorePaths) {
			return nil, nil
		}
		return []detection.DeviceInfo{device}, nil
	}

	handle, err := d.openBus(bus.OpenName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = handle.Close() }()

	addresses, err := ScanBus(ctx, handle, opts.FirstAddress, opts.LastAddress)
	if err != nil {
		return nil, err
	}

	devices := make([]detection.DeviceInfo, 0, len(addresses))
	for _, addr := range addresses {
		device := newDeviceInfo(bus, addr)
		if detection.IsPathIgnored(device.Path, opts.IgnorePaths) {
			continue
		}

		// Only full mode probes addresses other than the default one
		if addr != DefaultPN532Address && opts.Mode != detection.Full {
			continue
		}

		fw, err := probeFirmware(ctx, handle, bus.Path, addr)
		switch {
		case err == nil:
			device.Confidence = detection.High
			device.Metadata["firmware"] = fw.Version
		case addr != DefaultPN532Address:
			continue
		}
		devices = append(devices, device)
	}
	return devices, nil
}

func newDeviceInfo(bus busInfo, addr uint8) detection.DeviceInfo {
	confidence := detection.Low
	if addr == DefaultPN532Address {
		confidence = detection.Medium
	}
	return detection.DeviceInfo{
		Transport:  "i2c",
		Path:       fmt.Sprintf("%s:0x%02X", bus.Path, addr),
		Name:       fmt.Sprintf("I2C device at %s address 0x%02X", bus.Path, addr),
		Confidence: confidence,
		Metadata: map[string]string{
			"bus":     bus.Path,
			"address": fmt.Sprintf("0x%02X", addr),
		},
	}
}

// probeFirmware asks the device at addr for its PN532 firmware version
func probeFirmware(ctx context.Context, bus i2c.Bus, busPath string, addr uint8) (*pn532.FirmwareVersion, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	device, err := pn532.New(i2ctransport.NewWithBus(bus, busPath, uint16(addr)))
	if err != nil {
		return nil, err
	}
	fw, err := device.GetFirmwareVersionContext(probeCtx)
	if err != nil {
		return nil, err
	}
	if !fw.Present() {
		return nil, errors.New("firmware version read returned 0")
	}
	return fw, nil
}
