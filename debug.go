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
	"sync/atomic"

	"github.com/rs/zerolog"
)

var driverLogger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	driverLogger.Store(&nop)
}

// SetLogger routes driver debug output to logger. Driver messages are logged at debug level
// with component=pn532.
func SetLogger(logger zerolog.Logger) {
	l := logger.With().Str("component", "pn532").Logger()
	driverLogger.Store(&l)
}

// Logger returns the logger currently used by the driver
func Logger() *zerolog.Logger {
	return driverLogger.Load()
}

func debugf(format string, args ...any) {
	Logger().Debug().Msgf(format, args...)
}

func debugln(msg string) {
	Logger().Debug().Msg(msg)
}
