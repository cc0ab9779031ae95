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

package frame

import (
	"bytes"
	"errors"
	"fmt"
)

// Frame errors. Transports translate them into pn532 transport errors.
var (
	ErrFrameTooLarge    = errors.New("frame data too large")
	ErrNoFrameStart     = errors.New("frame start not found")
	ErrShortFrame       = errors.New("frame truncated")
	ErrLengthChecksum   = errors.New("length checksum mismatch")
	ErrDataChecksum     = errors.New("data checksum mismatch")
	ErrUnexpectedTFI    = errors.New("unexpected frame identifier")
	ErrApplicationFault = errors.New("PN532 application error frame")
)

// BuildCommandFrame builds a normal information frame carrying cmd and args from host to PN532
func BuildCommandFrame(cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args) // TFI + cmd + args
	if dataLen > MaxNormalDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, dataLen)
	}

	frm := make([]byte, 0, dataLen+FrameOverhead)
	frm = append(frm, Preamble, StartCode1, StartCode2,
		byte(dataLen), CalculateLengthChecksum(byte(dataLen)),
		HostToPn532, cmd)
	frm = append(frm, args...)

	dcs := CalculateDataChecksum(HostToPn532, append([]byte{cmd}, args...))
	frm = append(frm, dcs, Postamble)
	return frm, nil
}

// IsAck reports whether buf contains an ACK frame
func IsAck(buf []byte) bool {
	return bytes.Contains(buf, AckFrame[1:])
}

// FindStart returns the offset of the LEN byte following the first 0x00 0xFF start code
func FindStart(buf []byte) (int, bool) {
	idx := bytes.Index(buf, []byte{StartCode1, StartCode2})
	if idx < 0 {
		return 0, false
	}
	return idx + 2, true
}

// ParseResponse extracts the response data (command code onwards, TFI stripped) from a raw
// PN532 response frame. Leading bytes before the start code are skipped.
func ParseResponse(buf []byte) ([]byte, error) {
	off, ok := FindStart(buf)
	if !ok {
		return nil, ErrNoFrameStart
	}
	if off+2 > len(buf) {
		return nil, ErrShortFrame
	}

	length := buf[off]
	lcs := buf[off+1]
	if length+lcs != 0 {
		return nil, ErrLengthChecksum
	}

	start := off + 2
	end := start + int(length)
	if end+1 > len(buf) {
		return nil, ErrShortFrame
	}

	body := buf[start:end]
	if ValidateChecksum(buf[start : end+1]) {
		return nil, ErrDataChecksum
	}

	if len(body) == 1 && body[0] == ErrorFrameCode {
		return nil, ErrApplicationFault
	}
	if len(body) == 0 || body[0] != Pn532ToHost {
		return nil, ErrUnexpectedTFI
	}

	data := make([]byte, len(body)-1)
	copy(data, body[1:])
	return data, nil
}
