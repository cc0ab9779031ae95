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

package logging_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"

	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/logging"
)

// Provide touches zerolog globals, so these tests do not run in parallel
func TestProvide(t *testing.T) {
	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr error
	}{
		{
			"positive case - console/info",
			logging.Config{LogOutput: "console", LogLevel: "info"},
			nil,
		},
		{
			"positive case - json/error",
			logging.Config{LogOutput: "json", LogLevel: "error"},
			nil,
		},
		{
			"positive case - stdout/debug",
			logging.Config{LogOutput: "stdout", LogLevel: "debug"},
			nil,
		},
		{
			"positive case - stderr/warn",
			logging.Config{LogOutput: "stderr", LogLevel: "warn"},
			nil,
		},
		{
			"positive case - empty output",
			logging.Config{LogOutput: "", LogLevel: "info"},
			nil,
		},
		{
			"invalid logging level",
			logging.Config{LogOutput: "stdout", LogLevel: "critical"},
			logging.ErrInvalidLogLevel,
		},
		{
			"invalid logging output",
			logging.Config{LogOutput: "text", LogLevel: "warn"},
			logging.ErrInvalidLogOutput,
		},
		{
			"invalid logging output and level",
			logging.Config{LogOutput: "out", LogLevel: "debug2"},
			logging.ErrInvalidLogLevel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := logging.Provide(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, result.Logger)
		})
	}
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func TestFxLogger(t *testing.T) {
	t.Parallel()

	logger := zerolog.Nop()
	assert.IsType(t, &fxevent.ConsoleLogger{}, logging.FxLogger(&logger, zerolog.DebugLevel))
	assert.Equal(t, fxevent.NopLogger, logging.FxLogger(&logger, zerolog.InfoLevel))
}

func TestShortCallerFormatter(t *testing.T) {
	t.Parallel()

	got := logging.ShortCallerFormatter(0, "/home/user/go-pn532-rhizome/polling/monitor.go", 42)
	assert.Equal(t, "polling/monitor.go:42", got)
}
