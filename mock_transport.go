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
	"fmt"
	"sync"
	"time"
)

// MockTransport is an in-memory Transport answering commands with canned responses.
// It is exported so that packages building on the driver can test without hardware.
type MockTransport struct {
	responses map[byte][][]byte
	errors    map[byte]error
	calls     map[byte]int
	history   []MockCall
	delay     time.Duration
	timeout   time.Duration
	mu        sync.Mutex
	closed    bool
}

// MockCall records one command sent to a MockTransport
type MockCall struct {
	Args []byte
	Cmd  byte
}

// NewMockTransport creates a mock transport without any configured responses
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][][]byte),
		errors:    make(map[byte]error),
		calls:     make(map[byte]int),
		timeout:   time.Second,
	}
}

// SetResponse makes cmd always answer with response
func (m *MockTransport) SetResponse(cmd byte, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = [][]byte{response}
	delete(m.errors, cmd)
}

// QueueResponses makes cmd answer with each response in turn; the last one repeats
func (m *MockTransport) QueueResponses(cmd byte, responses ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = append(m.responses[cmd], responses...)
	delete(m.errors, cmd)
}

// SetError makes cmd fail with err
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[cmd] = err
}

// SetDelay delays every command by delay
func (m *MockTransport) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
}

// GetCallCount returns how many times cmd was sent
func (m *MockTransport) GetCallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[cmd]
}

// History returns every command sent so far
func (m *MockTransport) History() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.history...)
}

// SendCommand implements Transport
func (m *MockTransport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return m.SendCommandContext(context.Background(), cmd, args)
}

// SendCommandContext implements Transport; a configured delay is cut short by ctx
func (m *MockTransport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrTransportRead
	}
	m.calls[cmd]++
	m.history = append(m.history, MockCall{Cmd: cmd, Args: append([]byte(nil), args...)})
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("mock command 0x%02X: %w", cmd, ctx.Err())
		case <-time.After(delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.errors[cmd]; ok {
		return nil, err
	}

	queue := m.responses[cmd]
	if len(queue) == 0 {
		return nil, NewTimeoutError("SendCommand", "mock")
	}
	resp := queue[0]
	if len(queue) > 1 {
		m.responses[cmd] = queue[1:]
	}
	return append([]byte(nil), resp...), nil
}

// Close implements Transport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout implements Transport
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected implements Transport
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport
func (*MockTransport) Type() TransportType {
	return TransportMock
}

var _ Transport = (*MockTransport)(nil)
