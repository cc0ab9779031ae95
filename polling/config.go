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

package polling

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Config contains configuration options for the poll loop
type Config struct {
	// PollTimeout bounds a single InListPassiveTarget call
	PollTimeout time.Duration `validate:"gt=0"`
	// ScanInterval is the pause after every poll cycle
	ScanInterval time.Duration `validate:"gte=0"`
	// RemovalPause is the extra pause after a detection. The tag is not
	// checked for departure, so a tag left on the reader is reported again.
	RemovalPause time.Duration `validate:"gte=0"`
	// RepeatSuppression hides a UID that was seen by the previous poll
	// until a poll comes back empty
	RepeatSuppression bool
}

// DefaultConfig returns the default poll timings
func DefaultConfig() *Config {
	return &Config{
		PollTimeout:  100 * time.Millisecond,
		ScanInterval: 100 * time.Millisecond,
		RemovalPause: 1 * time.Second,
	}
}

// Validate checks the config against its validate tags
func (c *Config) Validate(v *validator.Validate) error {
	return v.Struct(c)
}
