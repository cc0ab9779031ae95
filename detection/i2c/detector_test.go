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

package i2c

import (
	"context"
	"testing"

	"github.com/ZaparooProject/go-pn532-rhizome/detection"
	testutil "github.com/ZaparooProject/go-pn532-rhizome/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
)

func newTestDetector(bus *testutil.FakeBus) *detector {
	return &detector{
		listBuses: func() ([]busInfo, error) {
			return []busInfo{{Path: "/dev/i2c-1", OpenName: "1"}}, nil
		},
		openBus: func(string) (i2c.BusCloser, error) { return bus, nil },
	}
}

func TestScanBus(t *testing.T) {
	t.Parallel()

	bus := testutil.NewFakeBus(0x24, 0x3C, 0x7E)
	found, err := ScanBus(context.Background(), bus, 0x01, 0x7E)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x24, 0x3C, 0x7E}, found)

	found, err = ScanBus(context.Background(), bus, 0x30, 0x40)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x3C}, found)

	found, err = ScanBus(context.Background(), testutil.NewFakeBus(), 0x01, 0x7E)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestScanBus_InvalidRange(t *testing.T) {
	t.Parallel()

	_, err := ScanBus(context.Background(), testutil.NewFakeBus(), 0x50, 0x10)
	require.Error(t, err)
	_, err = ScanBus(context.Background(), testutil.NewFakeBus(), 0x01, 0x80)
	require.Error(t, err)
}

func TestScanBus_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ScanBus(ctx, testutil.NewFakeBus(0x24), 0x01, 0x7E)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDetect_SafeMode(t *testing.T) {
	t.Parallel()

	bus := testutil.NewFakeBus(0x24, 0x3C)
	bus.SetResponse(0x24, testutil.CmdGetFirmwareVersion, testutil.BuildFirmwareVersionResponse())

	opts := detection.DefaultOptions()
	devices, err := newTestDetector(bus).Detect(context.Background(), &opts)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/i2c-1:0x24", devices[0].Path)
	assert.Equal(t, detection.High, devices[0].Confidence)
	assert.Equal(t, "1.6", devices[0].Metadata["firmware"])
	assert.True(t, bus.Closed())
}

func TestDetect_DefaultAddressWithoutFirmware(t *testing.T) {
	t.Parallel()

	bus := testutil.NewFakeBus(0x24)
	bus.SetResponse(0x24, testutil.CmdGetFirmwareVersion, testutil.BuildZeroFirmwareVersionResponse())

	opts := detection.DefaultOptions()
	devices, err := newTestDetector(bus).Detect(context.Background(), &opts)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, detection.Medium, devices[0].Confidence)
}

func TestDetect_PassiveModeDoesNotTouchBus(t *testing.T) {
	t.Parallel()

	d := newTestDetector(nil)
	d.openBus = func(string) (i2c.BusCloser, error) {
		t.Fatal("passive detection opened the bus")
		return nil, nil
	}

	opts := detection.DefaultOptions()
	opts.Mode = detection.Passive
	devices, err := d.Detect(context.Background(), &opts)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, detection.Medium, devices[0].Confidence)
}

func TestDetect_IgnoredPath(t *testing.T) {
	t.Parallel()

	bus := testutil.NewFakeBus(0x24)
	bus.SetResponse(0x24, testutil.CmdGetFirmwareVersion, testutil.BuildFirmwareVersionResponse())

	opts := detection.DefaultOptions()
	opts.IgnorePaths = []string{"/dev/i2c-1:0x24"}
	_, err := newTestDetector(bus).Detect(context.Background(), &opts)
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)
}

func TestDetect_NoBuses(t *testing.T) {
	t.Parallel()

	d := &detector{listBuses: func() ([]busInfo, error) { return nil, nil }}
	opts := detection.DefaultOptions()
	_, err := d.Detect(context.Background(), &opts)
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)

	d.listBuses = func() ([]busInfo, error) { return nil, detection.ErrUnsupportedPlatform }
	_, err = d.Detect(context.Background(), &opts)
	require.ErrorIs(t, err, detection.ErrUnsupportedPlatform)

	assert.Equal(t, "i2c", d.Transport())
}
