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
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-pn532-rhizome/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReadyMock() *MockTransport {
	mock := NewMockTransport()
	mock.SetResponse(testutil.CmdGetFirmwareVersion, testutil.BuildFirmwareVersionResponse())
	mock.SetResponse(testutil.CmdSAMConfiguration, testutil.BuildSAMConfigurationResponse())
	mock.SetResponse(testutil.CmdRFConfiguration, testutil.BuildRFConfigurationResponse())
	return mock
}

func TestNew(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)
	assert.Same(t, mock, device.Transport())
	assert.Nil(t, device.FirmwareVersion())

	_, err = New(mock, WithSAMMode(SAMMode(9)))
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(mock, WithMaxRetries(0))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDevice_InitContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setupMock      func(*MockTransport)
		wantErr        error
		name           string
		errorSubstring string
	}{
		{
			name:      "successful initialization",
			setupMock: func(*MockTransport) {},
		},
		{
			name: "firmware read fails",
			setupMock: func(mock *MockTransport) {
				mock.SetError(testutil.CmdGetFirmwareVersion, errors.New("bus error"))
			},
			wantErr:        ErrDeviceNotFound,
			errorSubstring: "bus error",
		},
		{
			name: "firmware reads zero",
			setupMock: func(mock *MockTransport) {
				mock.SetResponse(testutil.CmdGetFirmwareVersion, testutil.BuildZeroFirmwareVersionResponse())
			},
			wantErr:        ErrDeviceNotFound,
			errorSubstring: "returned 0",
		},
		{
			name: "SAM configuration fails",
			setupMock: func(mock *MockTransport) {
				mock.SetError(testutil.CmdSAMConfiguration, errors.New("SAM config failed"))
			},
			errorSubstring: "SAM config failed",
		},
		{
			name: "RF configuration fails",
			setupMock: func(mock *MockTransport) {
				mock.SetError(testutil.CmdRFConfiguration, errors.New("RF config failed"))
			},
			errorSubstring: "RF configuration failed",
		},
		{
			name: "unexpected response code",
			setupMock: func(mock *MockTransport) {
				mock.SetResponse(testutil.CmdGetFirmwareVersion, []byte{0x15})
			},
			wantErr: ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := newReadyMock()
			tt.setupMock(mock)
			device, err := New(mock)
			require.NoError(t, err)

			err = device.InitContext(context.Background())
			if tt.wantErr == nil && tt.errorSubstring == "" {
				require.NoError(t, err)
				require.NotNil(t, device.FirmwareVersion())
				assert.Equal(t, "1.6", device.FirmwareVersion().Version)
				return
			}

			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errorSubstring != "" {
				assert.Contains(t, err.Error(), tt.errorSubstring)
			}
		})
	}
}

func TestDevice_InitContext_ZeroFirmwareStopsBringUp(t *testing.T) {
	t.Parallel()

	mock := newReadyMock()
	mock.SetResponse(testutil.CmdGetFirmwareVersion, testutil.BuildZeroFirmwareVersionResponse())
	device, err := New(mock)
	require.NoError(t, err)

	require.ErrorIs(t, device.Init(), ErrDeviceNotFound)
	assert.Zero(t, mock.GetCallCount(testutil.CmdSAMConfiguration))
	assert.Zero(t, mock.GetCallCount(testutil.CmdRFConfiguration))
	assert.Nil(t, device.FirmwareVersion())
}

func TestDevice_InitContext_WritesConfiguration(t *testing.T) {
	t.Parallel()

	mock := newReadyMock()
	device, err := New(mock, WithPassiveActivationRetries(0x10))
	require.NoError(t, err)
	require.NoError(t, device.InitContext(context.Background()))

	history := mock.History()
	require.Len(t, history, 3)
	assert.Equal(t, MockCall{Cmd: 0x02}, history[0])
	assert.Equal(t, MockCall{Cmd: 0x14, Args: []byte{0x01, 0x14, 0x01}}, history[1])
	assert.Equal(t, MockCall{Cmd: 0x32, Args: []byte{0x05, 0xFF, 0x01, 0x10}}, history[2])
}

func TestDevice_InitContext_Timeout(t *testing.T) {
	t.Parallel()

	mock := newReadyMock()
	mock.SetDelay(time.Second)
	device, err := New(mock)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = device.InitContext(ctx)
	require.ErrorIs(t, err, ErrDeviceNotFound)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseFirmwareVersion(t *testing.T) {
	t.Parallel()

	fw, err := parseFirmwareVersion(testutil.BuildFirmwareVersionResponse())
	require.NoError(t, err)
	assert.Equal(t, uint32(0x32010607), fw.Raw)
	assert.Equal(t, byte(0x32), fw.IC)
	assert.True(t, fw.Present())
	assert.True(t, fw.SupportIso14443a)
	assert.True(t, fw.SupportIso14443b)
	assert.True(t, fw.SupportIso18092)

	zero, err := parseFirmwareVersion(testutil.BuildZeroFirmwareVersionResponse())
	require.NoError(t, err)
	assert.False(t, zero.Present())

	var missing *FirmwareVersion
	assert.False(t, missing.Present())

	_, err = parseFirmwareVersion([]byte{0x03, 0x32})
	require.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDevice_SetRFField(t *testing.T) {
	t.Parallel()

	mock := newReadyMock()
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.SetRFFieldContext(context.Background(), false))
	assert.Equal(t, []MockCall{{Cmd: 0x32, Args: []byte{0x01, 0x00}}}, mock.History())
}

func TestDevice_SetTimeoutAndRetryConfig(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	wrapped := NewRetryTransport(mock, nil)
	device, err := New(wrapped, WithTimeout(250*time.Millisecond), WithMaxRetries(5))
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, device.config.Timeout)
	assert.Equal(t, 5, wrapped.config.MaxAttempts)

	cfg := fastRetryConfig(2)
	device.SetRetryConfig(cfg)
	assert.Same(t, cfg, wrapped.config)
}

func TestDevice_Close(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)
	require.NoError(t, device.Close())
	assert.False(t, mock.IsConnected())

	_, err = device.GetFirmwareVersion()
	require.ErrorIs(t, err, ErrTransportRead)
}
