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

// Package console prints the human-readable status lines of the programs
// and reads operator lines from the terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ZaparooProject/go-pn532-rhizome/p2p"
)

// MaxUIDLength is the number of UID bytes the scanner reports
const MaxUIDLength = 7

// Output handles consistent formatting of messages
type Output struct {
	w  io.Writer
	mu sync.Mutex
}

// NewOutput creates a new output handler writing to w
func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

func (o *Output) printf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintf(o.w, format, args...)
}

// ScanStarted prints the bus scan header
func (o *Output) ScanStarted() {
	o.printf("\nScanning I2C bus...\n")
}

// BusDevice prints one responding I2C address
func (o *Output) BusDevice(addr uint8) {
	o.printf("Found I2C device at 0x%02X\n", addr)
}

// Initializing prints the controller bring-up header
func (o *Output) Initializing() {
	o.printf("\nInitializing PN532...\n")
}

// ChipNotFound prints the fatal bring-up message
func (o *Output) ChipNotFound(err error) {
	o.printf("No response from PN532: %v\n", err)
}

// ChipVersion prints the raw firmware version word
func (o *Output) ChipVersion(raw uint32) {
	o.printf("Found PN532 chip version: 0x%08X\n", raw)
}

// Ready prints the end of bring-up
func (o *Output) Ready() {
	o.printf("PN532 ready\n")
}

// WaitingForCard prints the scanner banner
func (o *Output) WaitingForCard() {
	o.printf("Waiting for an NFC card...\n\n")
}

// WaitingForPeer prints the sender banner
func (o *Output) WaitingForPeer(interval time.Duration, console bool) {
	o.printf("Sending to P2P targets every %s\n", interval)
	if console {
		o.printf("Type a line and press Enter to send it now\n")
	}
	o.printf("\n")
}

// CardDetected prints the UID of a detected tag, at most MaxUIDLength bytes
func (o *Output) CardDetected(uid []byte) {
	if len(uid) > MaxUIDLength {
		uid = uid[:MaxUIDLength]
	}
	o.printf("Card detected\nUID Length: %d bytes\nUID Value:  %s\n\n", len(uid), FormatUID(uid))
}

// FormatUID renders each byte as 0x followed by two uppercase hex digits
func FormatUID(uid []byte) string {
	parts := make([]string, len(uid))
	for i, b := range uid {
		parts[i] = fmt.Sprintf("0x%02X", b)
	}
	return strings.Join(parts, " ")
}

// ExchangeResult prints the outcome of one P2P attempt
func (o *Output) ExchangeResult(result *p2p.Result) {
	if result.Outcome == p2p.OutcomeNoPeer {
		o.printf("No peer found\n")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sent: %s\n", p2p.Render([]byte(result.Message)))
	if result.Truncated {
		fmt.Fprintf(&sb, "  (truncated to %d bytes)\n", result.Sent.Len())
	}
	if result.Outcome == p2p.OutcomeExchanged {
		sb.WriteString("Exchange OK\n")
	} else {
		reason := strings.TrimPrefix(result.Err.Error(), p2p.ErrExchangeFailed.Error()+": ")
		fmt.Fprintf(&sb, "Exchange failed: %s\n", reason)
	}
	if result.Response.Len() > 0 {
		fmt.Fprintf(&sb, "Response (%d bytes): %s\n", result.Response.Len(), result.Response.Render())
		if text, ok := p2p.DecodeMessage(result.Response.Bytes()); ok {
			fmt.Fprintf(&sb, "NDEF: %s\n", strings.TrimSpace(text))
		}
	}
	sb.WriteString("\n")

	o.printf("%s", sb.String())
}
