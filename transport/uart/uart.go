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

// Package uart provides the PN532 HSU (high speed UART) transport
package uart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
	"github.com/ZaparooProject/go-pn532-rhizome/detection"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/frame"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/transport"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the PN532 HSU default speed
	DefaultBaudRate = 115200

	// DefaultTimeout bounds one command exchange unless the caller's context is shorter
	DefaultTimeout = time.Second

	readChunkTimeout = 10 * time.Millisecond
	maxNackRetries   = 2
)

// wakeupSequence brings the PN532 out of power down before the first command
var wakeupSequence = []byte{
	0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// port is the subset of serial.Port the transport needs
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Transport implements pn532.Transport over a serial port
type Transport struct {
	port     port
	portName string
	timeout  time.Duration
	awake    bool
}

// New opens portName at DefaultBaudRate
func New(portName string) (*Transport, error) {
	return NewWithBaudRate(portName, DefaultBaudRate)
}

// NewWithBaudRate opens portName at baudRate, 8N1
func NewWithBaudRate(portName string, baudRate int) (*Transport, error) {
	p, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, pn532.NewTransportError("open", portName, err, pn532.ErrorTypePermanent)
	}

	return newWithPort(p, portName), nil
}

func newWithPort(p port, portName string) *Transport {
	return &Transport{
		port:     p,
		portName: portName,
		timeout:  DefaultTimeout,
	}
}

// NewTransport is a pn532.TransportFactory
func NewTransport(path string) (pn532.Transport, error) {
	return New(path)
}

// FromDeviceInfo is a pn532.TransportFromDeviceFactory for serial devices
func FromDeviceInfo(info detection.DeviceInfo) (pn532.Transport, error) {
	if info.Transport != "uart" {
		return nil, fmt.Errorf("%w: %s device %s", pn532.ErrInvalidParameter, info.Transport, info.Path)
	}
	return New(info.Path)
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandContext(context.Background(), cmd, args)
}

// SendCommandWithContext is an alias of SendCommandContext
func (t *Transport) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandContext(ctx, cmd, args)
}

// SendCommandContext sends a command and waits for its response until the transport
// timeout or ctx ends the wait. A command abandoned because of ctx is aborted with an ACK.
func (t *Transport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("send command 0x%02X: %w", cmd, err)
	}
	if t.port == nil {
		return nil, pn532.NewTransportError("SendCommand", t.portName, pn532.ErrTransportNotReady, pn532.ErrorTypePermanent)
	}

	frm, err := frame.BuildCommandFrame(cmd, args)
	if err != nil {
		return nil, pn532.NewDataTooLargeError("sendFrame", t.portName)
	}

	if err := t.wakeup(); err != nil {
		return nil, err
	}
	// Stale bytes from an aborted exchange would be mistaken for the ACK
	_ = t.port.ResetInputBuffer()

	if err := t.write(frm); err != nil {
		return nil, err
	}

	var pending []byte
	pending, err = t.waitAck(ctx)
	if err != nil {
		return nil, t.abortAbandoned(ctx, err)
	}

	resp, err := t.receiveFrame(ctx, pending)
	if err != nil {
		return nil, t.abortAbandoned(ctx, err)
	}
	return resp, nil
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout %v", pn532.ErrInvalidParameter, timeout)
	}
	t.timeout = timeout
	return nil
}

// Close closes the serial port
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the port is open
func (t *Transport) IsConnected() bool {
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

func (t *Transport) wakeup() error {
	if t.awake {
		return nil
	}
	if err := t.write(wakeupSequence); err != nil {
		return err
	}
	t.awake = true
	return nil
}

func (t *Transport) write(data []byte) error {
	if _, err := t.port.Write(data); err != nil {
		return pn532.NewTransportError("write", t.portName,
			fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err), pn532.ErrorTypeTransient)
	}
	return nil
}

// abortAbandoned ACKs a command whose wait ended on ctx or on the transport timeout
func (t *Transport) abortAbandoned(ctx context.Context, err error) error {
	if t.port == nil || (ctx.Err() == nil && !errors.Is(err, pn532.ErrTransportTimeout)) {
		return err
	}
	if ackErr := t.write(frame.AckFrame); ackErr != nil {
		return errors.Join(err, ackErr)
	}
	return err
}

// readMore appends whatever arrives within one read chunk to buf
func (t *Transport) readMore(buf []byte) ([]byte, error) {
	if err := t.port.SetReadTimeout(readChunkTimeout); err != nil {
		return buf, pn532.NewTransportError("read", t.portName, err, pn532.ErrorTypePermanent)
	}

	chunk := frame.GetSmallBuffer(16)
	defer frame.PutBuffer(chunk)

	n, err := t.port.Read(chunk)
	if err != nil && !errors.Is(err, io.EOF) {
		return buf, pn532.NewTransportError("read", t.portName,
			fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), pn532.ErrorTypeTransient)
	}
	return append(buf, chunk[:n]...), nil
}

// waitAck reads until an ACK frame arrives and returns the bytes that followed it
func (t *Transport) waitAck(ctx context.Context) ([]byte, error) {
	var buf []byte
	return transport.PollUntil(ctx, t.timeout, 0, "waitAck", t.portName,
		func() ([]byte, bool, error) {
			var err error
			if buf, err = t.readMore(buf); err != nil {
				return nil, false, err
			}
			if idx := bytes.Index(buf, frame.AckFrame[1:]); idx >= 0 {
				return buf[idx+len(frame.AckFrame)-1:], false, nil
			}
			if bytes.Contains(buf, frame.NackFrame[1:]) {
				return nil, false, pn532.NewNoACKError("waitAck", t.portName)
			}
			return nil, true, nil
		})
}

// receiveFrame reads until a complete response frame is buffered, NACKing corrupted frames
func (t *Transport) receiveFrame(ctx context.Context, pending []byte) ([]byte, error) {
	buf := pending

	cfg := transport.RetryConfig{
		Op:         "receiveFrame",
		Port:       t.portName,
		MaxRetries: maxNackRetries,
		OnRetry: func() error {
			buf = nil
			return t.write(frame.NackFrame)
		},
	}

	return transport.WithRetry(ctx, cfg, func() ([]byte, bool, error) {
		_, err := transport.PollUntil(ctx, t.timeout, 0, "receiveFrame", t.portName,
			func() (struct{}, bool, error) {
				if frameComplete(buf) {
					return struct{}{}, false, nil
				}
				var err error
				buf, err = t.readMore(buf)
				return struct{}{}, err == nil, err
			})
		if err != nil {
			return nil, false, err
		}

		data, err := frame.ParseResponse(buf)
		switch {
		case err == nil:
			return data, false, nil
		case errors.Is(err, frame.ErrLengthChecksum), errors.Is(err, frame.ErrDataChecksum):
			pn532.Logger().Debug().Err(err).Str("port", t.portName).Msg("corrupted frame, sending NACK")
			return nil, true, nil
		case errors.Is(err, frame.ErrApplicationFault):
			return nil, false, pn532.NewTransportError("receiveFrame", t.portName,
				fmt.Errorf("%w: %w", pn532.ErrCommunicationFailed, err), pn532.ErrorTypePermanent)
		default:
			return nil, false, pn532.NewTransportError("receiveFrame", t.portName,
				fmt.Errorf("%w: %w", pn532.ErrFrameCorrupted, err), pn532.ErrorTypeTransient)
		}
	})
}

// frameComplete reports whether buf holds a whole normal information frame
func frameComplete(buf []byte) bool {
	off, ok := frame.FindStart(buf)
	if !ok || off+2 > len(buf) {
		return false
	}
	return len(buf) >= off+2+int(buf[off])+2
}

var _ pn532.Transport = (*Transport)(nil)
