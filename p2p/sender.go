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
	"strings"
)

// Sender drives a session: a periodic attempt every send interval and an
// immediate attempt for every non-blank console line.
// Run is the only goroutine that touches the initiator.
type Sender struct {
	session *Session
	lines   <-chan string
	// OnResult is called after every attempt
	OnResult func(result *Result)
}

// NewSender creates a sender. lines may be nil when there is no console input.
func NewSender(session *Session, lines <-chan string) *Sender {
	return &Sender{
		session: session,
		lines:   lines,
	}
}

// Session returns the driven session
func (s *Sender) Session() *Session {
	return s.session
}

// Run sends until ctx is cancelled and returns ctx.Err().
// A closed line channel only stops console input.
func (s *Sender) Run(ctx context.Context) error {
	lines := s.lines
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.session.Due() {
			result, err := s.session.SendPeriodic(ctx)
			s.report(result, err)
			continue
		}

		timer := s.session.clock.NewTimer(s.session.NextDue().Sub(s.session.clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		case line, ok := <-lines:
			timer.Stop()
			if !ok {
				s.session.logger.Debug().Msg("Console input closed")
				lines = nil
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			result, err := s.session.SendLine(ctx, line)
			s.report(result, err)
		}
	}
}

func (s *Sender) report(result *Result, err error) {
	logger := s.session.logger
	switch {
	case err == nil:
		logger.Debug().
			Str("message", result.Message).
			Int("response_len", result.Response.Len()).
			Msg("Exchange completed")
	case errors.Is(err, ErrNoPeer):
		logger.Debug().Err(err).Msg("Exchange skipped")
	default:
		logger.Warn().Err(err).Str("message", result.Message).Msg("Exchange failed")
	}
	if s.OnResult != nil {
		s.OnResult(result)
	}
}
