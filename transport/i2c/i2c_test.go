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
	"sync"
	"testing"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
	"github.com/ZaparooProject/go-pn532-rhizome/detection"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/frame"
	testutil "github.com/ZaparooProject/go-pn532-rhizome/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

func commandFrame(t *testing.T, cmd byte, args []byte) []byte {
	t.Helper()
	frm, err := frame.BuildCommandFrame(cmd, args)
	require.NoError(t, err)
	return frm
}

func ackRead() []byte {
	return testutil.I2CRead(frame.AckFrame, ackReadLen)
}

func responseRead(resp []byte) []byte {
	return testutil.I2CRead(testutil.EncodeResponseFrame(resp), responseReadLen)
}

func TestSendCommand_FirmwareVersion(t *testing.T) {
	t.Parallel()

	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: DefaultAddress, W: commandFrame(t, 0x02, nil)},
		{Addr: DefaultAddress, R: ackRead()},
		{Addr: DefaultAddress, R: responseRead(testutil.BuildFirmwareVersionResponse())},
	}}
	tr := NewWithBus(bus, "playback", DefaultAddress)

	resp, err := tr.SendCommand(0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, testutil.BuildFirmwareVersionResponse(), resp)
	require.NoError(t, bus.Close())
}

func TestSendCommand_WaitsForReady(t *testing.T) {
	t.Parallel()

	notReadyAck := make([]byte, ackReadLen)
	notReadyResp := make([]byte, responseReadLen)
	args := []byte{0x01, 0x00}

	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: DefaultAddress, W: commandFrame(t, 0x4A, args)},
		{Addr: DefaultAddress, R: notReadyAck},
		{Addr: DefaultAddress, R: ackRead()},
		{Addr: DefaultAddress, R: notReadyResp},
		{Addr: DefaultAddress, R: responseRead(testutil.BuildNoTagResponse())},
	}}
	tr := NewWithBus(bus, "playback", DefaultAddress)

	resp, err := tr.SendCommandContext(context.Background(), 0x4A, args)
	require.NoError(t, err)
	assert.Equal(t, testutil.BuildNoTagResponse(), resp)
	require.NoError(t, bus.Close())
}

func TestSendCommand_NacksCorruptedFrame(t *testing.T) {
	t.Parallel()

	good := testutil.EncodeResponseFrame(testutil.BuildSAMConfigurationResponse())
	corrupted := append([]byte(nil), good...)
	corrupted[len(corrupted)-2] ^= 0xFF

	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: DefaultAddress, W: commandFrame(t, 0x14, []byte{0x01, 0x14, 0x01})},
		{Addr: DefaultAddress, R: ackRead()},
		{Addr: DefaultAddress, R: testutil.I2CRead(corrupted, responseReadLen)},
		{Addr: DefaultAddress, W: frame.NackFrame},
		{Addr: DefaultAddress, R: testutil.I2CRead(good, responseReadLen)},
	}}
	tr := NewWithBus(bus, "playback", DefaultAddress)

	resp, err := tr.SendCommand(0x14, []byte{0x01, 0x14, 0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x15}, resp)
	require.NoError(t, bus.Close())
}

func TestSendCommand_MissingAck(t *testing.T) {
	t.Parallel()

	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: DefaultAddress, W: commandFrame(t, 0x02, nil)},
		{Addr: DefaultAddress, R: testutil.I2CRead(frame.NackFrame, ackReadLen)},
	}}
	tr := NewWithBus(bus, "playback", DefaultAddress)

	_, err := tr.SendCommand(0x02, nil)
	require.ErrorIs(t, err, pn532.ErrNoACK)
	assert.True(t, pn532.IsRetryable(err))
}

func TestSendCommand_ApplicationError(t *testing.T) {
	t.Parallel()

	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: DefaultAddress, W: commandFrame(t, 0x02, nil)},
		{Addr: DefaultAddress, R: ackRead()},
		{Addr: DefaultAddress, R: testutil.I2CRead([]byte{0x00, 0x00, 0xFF, 0x01, 0xFF, 0x7F, 0x81, 0x00}, responseReadLen)},
	}}
	tr := NewWithBus(bus, "playback", DefaultAddress)

	_, err := tr.SendCommand(0x02, nil)
	require.ErrorIs(t, err, pn532.ErrCommunicationFailed)
	assert.False(t, pn532.IsRetryable(err))
}

func TestSendCommand_DataTooLarge(t *testing.T) {
	t.Parallel()

	tr := NewWithBus(&i2ctest.Playback{}, "playback", DefaultAddress)
	_, err := tr.SendCommand(0x40, make([]byte, 300))
	require.ErrorIs(t, err, pn532.ErrDataTooLarge)
}

// busyBus never raises the ready flag and records writes
type busyBus struct {
	writes [][]byte
	mu     sync.Mutex
}

func (*busyBus) String() string { return "busy" }

func (b *busyBus) Tx(_ uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(w) > 0 {
		b.writes = append(b.writes, append([]byte(nil), w...))
	}
	clear(r)
	return nil
}

func (*busyBus) SetSpeed(physic.Frequency) error { return nil }

func TestSendCommand_TransportTimeout(t *testing.T) {
	t.Parallel()

	bus := &busyBus{}
	tr := NewWithBus(bus, "busy", DefaultAddress)
	require.NoError(t, tr.SetTimeout(20*time.Millisecond))

	_, err := tr.SendCommand(0x02, nil)
	require.ErrorIs(t, err, pn532.ErrTransportTimeout)
	assert.Equal(t, pn532.ErrorTypeTimeout, pn532.GetErrorType(err))

	bus.mu.Lock()
	defer bus.mu.Unlock()
	require.Len(t, bus.writes, 2)
	assert.Equal(t, frame.AckFrame, bus.writes[1])
}

func TestSendCommand_DeadlineAborts(t *testing.T) {
	t.Parallel()

	bus := &busyBus{}
	tr := NewWithBus(bus, "busy", DefaultAddress)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tr.SendCommandContext(ctx, 0x4A, []byte{0x01, 0x00})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	require.Len(t, bus.writes, 2)
	assert.Equal(t, frame.AckFrame, bus.writes[1])
}

func TestSendCommand_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := NewWithBus(&i2ctest.Playback{}, "playback", DefaultAddress)
	_, err := tr.SendCommandWithContext(ctx, 0x02, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		bus     string
		addr    uint16
		wantErr bool
	}{
		{name: "empty", path: "", bus: "", addr: DefaultAddress},
		{name: "bus number", path: "1", bus: "1", addr: DefaultAddress},
		{name: "device path with address", path: "/dev/i2c-1:0x24", bus: "/dev/i2c-1", addr: 0x24},
		{name: "upper case prefix", path: "/dev/i2c-0:0X3C", bus: "/dev/i2c-0", addr: 0x3C},
		{name: "address out of range", path: "/dev/i2c-1:0xFF", wantErr: true},
		{name: "garbage address", path: "1:0xzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bus, addr, err := ParsePath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, pn532.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bus, bus)
			assert.Equal(t, tt.addr, addr)
		})
	}
}

func TestFromDeviceInfo_RejectsOtherTransports(t *testing.T) {
	t.Parallel()

	_, err := FromDeviceInfo(detection.DeviceInfo{Transport: "uart", Path: "/dev/ttyUSB0"})
	require.ErrorIs(t, err, pn532.ErrInvalidParameter)
}

func TestTransportBasics(t *testing.T) {
	t.Parallel()

	tr := NewWithBus(&i2ctest.Playback{}, "playback", DefaultAddress)
	assert.Equal(t, pn532.TransportI2C, tr.Type())
	assert.True(t, tr.IsConnected())
	require.ErrorIs(t, tr.SetTimeout(0), pn532.ErrInvalidParameter)
	require.NoError(t, tr.Close())
}
