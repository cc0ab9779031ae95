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

package p2p

import (
	"time"

	"github.com/go-playground/validator/v10"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
)

// DefaultMessageTemplate is formatted with the message counter
const DefaultMessageTemplate = "Message #%d from PN532 initiator"

// Config contains configuration options for the P2P initiator
type Config struct {
	// Template is the periodic message, with an optional %d for the counter
	Template string `validate:"msgtemplate"`
	// Language is the NDEF text record language
	Language string `validate:"required_if=NDEF true"`
	// SendInterval is the minimum time between two periodic attempts
	SendInterval time.Duration `validate:"gt=0"`
	// MaxPayload limits the transmitted and received message sizes
	MaxPayload int `validate:"min=1,max=64"`
	// BaudRate is the DEP bit rate in kbps
	BaudRate int `validate:"oneof=106 212 424"`
	// Passive selects passive instead of active DEP
	Passive bool
	// NDEF wraps outgoing text in an NDEF text record
	NDEF bool
}

// DefaultConfig returns the default sender configuration
func DefaultConfig() *Config {
	return &Config{
		Template:     DefaultMessageTemplate,
		Language:     "en",
		SendInterval: 3 * time.Second,
		MaxPayload:   MaxPayloadSize,
		BaudRate:     424,
	}
}

// Validate checks the config against its validate tags
func (c *Config) Validate(v *validator.Validate) error {
	return v.Struct(c)
}

// DEPOptions converts the config to InJumpForDEP options
func (c *Config) DEPOptions() pn532.DEPOptions {
	opts := pn532.DefaultDEPOptions()
	if c.Passive {
		opts.Mode = pn532.DEPModePassive
	}
	switch c.BaudRate {
	case 106:
		opts.BaudRate = pn532.BaudRate106kbps
	case 212:
		opts.BaudRate = pn532.BaudRate212kbps
	default:
		opts.BaudRate = pn532.BaudRate424kbps
	}
	return opts
}
