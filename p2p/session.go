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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/validation/validators"
)

var (
	// ErrNoPeer is returned when no DEP target answered InJumpForDEP
	ErrNoPeer = errors.New("no peer found")
	// ErrExchangeFailed is returned when the peer did not complete InDataExchange
	ErrExchangeFailed = errors.New("exchange failed")
)

// Initiator is the part of the PN532 driver used by a session
type Initiator interface {
	JumpForDEPContext(ctx context.Context, opts pn532.DEPOptions) (*pn532.DEPTarget, error)
	DataExchangeContext(ctx context.Context, data []byte) ([]byte, error)
	ReleaseContext(ctx context.Context) error
}

var _ Initiator = (*pn532.Device)(nil)

// State is the state of the initiator cycle
type State int

const (
	// StateIdle waits for the send interval or a console line
	StateIdle State = iota
	// StateExchanging is one discovery and exchange attempt
	StateExchanging
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExchanging:
		return "exchanging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome classifies one exchange attempt
type Outcome int

const (
	// OutcomeNoPeer means discovery failed and nothing was sent
	OutcomeNoPeer Outcome = iota
	// OutcomeExchanged means the peer acknowledged the message
	OutcomeExchanged
	// OutcomeExchangeFailed means the message was built but the exchange failed
	OutcomeExchangeFailed
)

// String returns the outcome name used in logs and metric labels
func (o Outcome) String() string {
	switch o {
	case OutcomeNoPeer:
		return "no_peer"
	case OutcomeExchanged:
		return "exchanged"
	case OutcomeExchangeFailed:
		return "exchange_failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result describes one exchange attempt
type Result struct {
	Target    *pn532.DEPTarget
	Err       error
	Message   string
	Sent      Payload
	Response  Payload
	Outcome   Outcome
	Truncated bool
}

// Session holds the initiator state shared by the periodic and console paths.
// It is not safe for concurrent use.
type Session struct {
	lastSend  time.Time
	initiator Initiator
	config    *Config
	clock     clockwork.Clock
	logger    *zerolog.Logger
	counter   Counter
	state     State
}

// NewSession creates a session. The first periodic attempt is due one
// send interval after creation.
func NewSession(initiator Initiator, config *Config, clock clockwork.Clock, logger *zerolog.Logger) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Session{
		initiator: initiator,
		config:    config,
		clock:     clock,
		logger:    logger,
		lastSend:  clock.Now(),
	}
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Counter returns the number the next periodic message will carry
func (s *Session) Counter() uint16 {
	return s.counter.Value()
}

// LastSend returns the start time of the last periodic attempt
func (s *Session) LastSend() time.Time {
	return s.lastSend
}

// NextDue returns when the next periodic attempt may start
func (s *Session) NextDue() time.Time {
	return s.lastSend.Add(s.config.SendInterval)
}

// Due reports whether the send interval has elapsed since the last periodic attempt
func (s *Session) Due() bool {
	return s.clock.Since(s.lastSend) >= s.config.SendInterval
}

// SendPeriodic runs one periodic attempt. The counter is consumed only once a peer is found.
func (s *Session) SendPeriodic(ctx context.Context) (*Result, error) {
	s.lastSend = s.clock.Now()
	return s.Exchange(ctx, func() string {
		return s.formatMessage(s.counter.Next())
	})
}

// SendLine sends an operator line through the same discovery and exchange path.
// It leaves the counter and the send interval untouched.
func (s *Session) SendLine(ctx context.Context, line string) (*Result, error) {
	return s.Exchange(ctx, func() string {
		return line
	})
}

// Exchange discovers a peer, builds the message and exchanges it.
// build is only called after a peer answered.
func (s *Session) Exchange(ctx context.Context, build func() string) (*Result, error) {
	s.state = StateExchanging
	defer func() {
		s.state = StateIdle
	}()

	result := &Result{
		Sent:     NewPayload(s.config.MaxPayload),
		Response: NewPayload(s.config.MaxPayload),
	}

	target, err := s.initiator.JumpForDEPContext(ctx, s.config.DEPOptions())
	if err != nil {
		result.Outcome = OutcomeNoPeer
		result.Err = fmt.Errorf("%w: %w", ErrNoPeer, err)
		s.logger.Debug().Err(err).Msg("No DEP target answered")
		return result, result.Err
	}
	result.Target = target

	result.Message = build()
	data, err := s.encode(result.Message)
	if err != nil {
		s.release(ctx)
		result.Outcome = OutcomeExchangeFailed
		result.Err = fmt.Errorf("%w: %w", ErrExchangeFailed, err)
		return result, result.Err
	}
	result.Truncated = result.Sent.Set(data)
	if result.Truncated {
		s.logger.Debug().
			Int("len", len(data)).
			Int("max", result.Sent.Cap()).
			Msg("Outgoing message truncated")
	}

	resp, err := s.initiator.DataExchangeContext(ctx, result.Sent.Bytes())
	s.release(ctx)
	if err != nil {
		result.Outcome = OutcomeExchangeFailed
		result.Err = fmt.Errorf("%w: %w", ErrExchangeFailed, err)
		return result, result.Err
	}

	result.Response.Set(resp)
	result.Outcome = OutcomeExchanged
	return result, nil
}

func (s *Session) formatMessage(n uint16) string {
	if counters, ok := validators.CounterVerbs(s.config.Template); ok && counters == 1 {
		return fmt.Sprintf(s.config.Template, n)
	}
	return strings.ReplaceAll(s.config.Template, "%%", "%")
}

func (s *Session) encode(msg string) ([]byte, error) {
	if !s.config.NDEF {
		return []byte(msg), nil
	}
	return EncodeText(msg, s.config.Language)
}

// release frees the DEP target so the next attempt starts from discovery
func (s *Session) release(ctx context.Context) {
	if err := s.initiator.ReleaseContext(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to release DEP target")
	}
}
