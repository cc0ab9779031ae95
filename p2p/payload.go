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

import "strings"

// MaxPayloadSize is the capacity of the send and receive buffers
const MaxPayloadSize = 64

// Payload is a bounded byte buffer. Writes beyond its limit are dropped.
type Payload struct {
	buf   [MaxPayloadSize]byte
	n     int
	limit int
}

// NewPayload returns an empty payload holding at most limit bytes.
// limit is clamped to 1..MaxPayloadSize.
func NewPayload(limit int) Payload {
	switch {
	case limit < 1:
		limit = 1
	case limit > MaxPayloadSize:
		limit = MaxPayloadSize
	}
	return Payload{limit: limit}
}

// Set replaces the contents with data and reports whether data was truncated
func (p *Payload) Set(data []byte) bool {
	if p.limit == 0 {
		p.limit = MaxPayloadSize
	}
	p.n = copy(p.buf[:p.limit], data)
	return len(data) > p.n
}

// SetString replaces the contents with s and reports whether s was truncated
func (p *Payload) SetString(s string) bool {
	return p.Set([]byte(s))
}

// Bytes returns the stored bytes. The slice aliases the payload.
func (p *Payload) Bytes() []byte {
	return p.buf[:p.n]
}

// Len returns the number of stored bytes
func (p *Payload) Len() int {
	return p.n
}

// Cap returns the payload limit
func (p *Payload) Cap() int {
	if p.limit == 0 {
		return MaxPayloadSize
	}
	return p.limit
}

// String returns the stored bytes as text
func (p *Payload) String() string {
	return string(p.Bytes())
}

// Render returns the stored bytes with every byte outside printable ASCII
// replaced by a dot. The result has exactly Len() characters.
func (p *Payload) Render() string {
	return Render(p.Bytes())
}

// Render maps bytes 32..126 to themselves and anything else to '.'
func Render(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		if b >= 32 && b <= 126 {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
