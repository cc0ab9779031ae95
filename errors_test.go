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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableAndErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err       error
		name      string
		wantType  ErrorType
		retryable bool
	}{
		{name: "nil error", err: nil, wantType: ErrorTypePermanent},
		{name: "transport timeout", err: ErrTransportTimeout, wantType: ErrorTypeTimeout, retryable: true},
		{name: "transport read", err: ErrTransportRead, wantType: ErrorTypeTransient, retryable: true},
		{name: "transport write", err: ErrTransportWrite, wantType: ErrorTypeTransient, retryable: true},
		{name: "not ready", err: ErrTransportNotReady, wantType: ErrorTypeTransient, retryable: true},
		{name: "no ACK", err: ErrNoACK, wantType: ErrorTypeTransient, retryable: true},
		{name: "frame corrupted", err: ErrFrameCorrupted, wantType: ErrorTypeTransient, retryable: true},
		{name: "checksum mismatch", err: ErrChecksumMismatch, wantType: ErrorTypeTransient, retryable: true},
		{name: "wrapped with %w", err: fmt.Errorf("poll: %w", ErrNoACK), wantType: ErrorTypeTransient, retryable: true},
		{name: "device not found", err: ErrDeviceNotFound, wantType: ErrorTypePermanent},
		{name: "no target found", err: ErrNoTargetFound, wantType: ErrorTypePermanent},
		{name: "data too large", err: ErrDataTooLarge, wantType: ErrorTypePermanent},
		{name: "PN532 status error", err: &PN532Error{Cmd: 0x40, ErrorCode: 0x01}, wantType: ErrorTypePermanent},
		{
			name:     "text only mention is not wrapping",
			err:      errors.New("outer: " + ErrTransportTimeout.Error()),
			wantType: ErrorTypePermanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.Equal(t, tt.wantType, GetErrorType(tt.err))
		})
	}
}

func TestTransportError_RetryableFlagWins(t *testing.T) {
	t.Parallel()

	te := &TransportError{Err: ErrTransportTimeout, Op: "read", Type: ErrorTypeTimeout, Retryable: false}
	assert.False(t, IsRetryable(te))
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(te))

	wrapped := fmt.Errorf("init: %w", NewNoACKError("waitAck", "/dev/i2c-1"))
	assert.True(t, IsRetryable(wrapped))
}

func TestTransportError_Error(t *testing.T) {
	t.Parallel()

	withPort := NewTransportError("read", "/dev/i2c-1", errors.New("bus busy"), ErrorTypeTransient)
	assert.Equal(t, "read on /dev/i2c-1: bus busy", withPort.Error())
	assert.True(t, withPort.Retryable)

	withoutPort := NewTransportError("write", "", errors.New("device busy"), ErrorTypePermanent)
	assert.Equal(t, "write: device busy", withoutPort.Error())
	assert.False(t, withoutPort.Retryable)
}

func TestTransportErrorConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		te        *TransportError
		sentinel  error
		name      string
		wantType  ErrorType
		retryable bool
	}{
		{name: "timeout", te: NewTimeoutError("read", "p"), sentinel: ErrTransportTimeout, wantType: ErrorTypeTimeout, retryable: true},
		{name: "no ACK", te: NewNoACKError("read", "p"), sentinel: ErrNoACK, wantType: ErrorTypeTransient, retryable: true},
		{name: "frame corrupted", te: NewFrameCorruptedError("read", "p"), sentinel: ErrFrameCorrupted, wantType: ErrorTypeTransient, retryable: true},
		{name: "checksum", te: NewChecksumMismatchError("read", "p"), sentinel: ErrChecksumMismatch, wantType: ErrorTypeTransient, retryable: true},
		{name: "not ready", te: NewTransportNotReadyError("read", "p"), sentinel: ErrTransportNotReady, wantType: ErrorTypeTransient, retryable: true},
		{name: "too large", te: NewDataTooLargeError("write", "p"), sentinel: ErrDataTooLarge, wantType: ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.te, tt.sentinel)
			assert.Equal(t, "p", tt.te.Port)
			assert.Equal(t, tt.wantType, tt.te.Type)
			assert.Equal(t, tt.retryable, tt.te.Retryable)
		})
	}
}

func TestPN532Error(t *testing.T) {
	t.Parallel()

	err := &PN532Error{Cmd: 0x40, ErrorCode: 0x01}
	assert.True(t, err.IsTimeout())
	assert.Equal(t, "PN532 command 0x40 failed with status 0x01 (target timeout)", err.Error())

	other := &PN532Error{Cmd: 0x56, ErrorCode: 0x27}
	assert.False(t, other.IsTimeout())
	assert.Contains(t, other.Error(), "no target")

	var target *PN532Error
	require.ErrorAs(t, fmt.Errorf("exchange: %w", other), &target)
	assert.Equal(t, byte(0x56), target.Cmd)
}

func TestErrorTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "permanent", ErrorTypePermanent.String())
	assert.Equal(t, "transient", ErrorTypeTransient.String())
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
	assert.Equal(t, "ErrorType(7)", ErrorType(7).String())
}
