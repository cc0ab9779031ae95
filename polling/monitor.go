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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
)

// Reader is the part of the PN532 driver used by the monitor
type Reader interface {
	InListPassiveTargetContext(ctx context.Context, maxTg, brTy byte) ([]*pn532.DetectedTag, error)
}

var _ Reader = (*pn532.Device)(nil)

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithClock sets the clock used for the pauses between polls
func WithClock(clock clockwork.Clock) MonitorOption {
	return func(m *Monitor) {
		m.clock = clock
	}
}

// WithLogger sets the logger for poll failures
func WithLogger(logger *zerolog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// Monitor polls a PN532 for passive ISO14443A tags.
// Only the goroutine running Run may touch the reader.
type Monitor struct {
	reader Reader
	config *Config
	clock  clockwork.Clock
	logger *zerolog.Logger
	// OnCardDetected is called for every reported tag
	OnCardDetected func(tag *pn532.DetectedTag) error
	// OnPoll is called once per poll cycle with its outcome
	OnPoll func(result PollResult, err error)
	state  CardState
	mu     sync.Mutex
}

// NewMonitor creates a poll loop for reader
func NewMonitor(reader Reader, config *Config, opts ...MonitorOption) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	nop := zerolog.Nop()
	m := &Monitor{
		reader: reader,
		config: config,
		clock:  clockwork.NewRealClock(),
		logger: &nop,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetState returns a snapshot of the card state
func (m *Monitor) GetState() CardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run polls until ctx is cancelled and returns ctx.Err()
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tag, err := m.PollOnce(ctx)
		if err != nil && !errors.Is(err, ErrNoTagInPoll) && ctx.Err() != nil {
			return ctx.Err()
		}

		if m.handlePoll(tag, err) == ResultHit {
			m.updateState(func(cs *CardState) { cs.TransitionToRemovalPause() })
			if pauseErr := m.pause(ctx, m.config.RemovalPause); pauseErr != nil {
				return pauseErr
			}
			m.updateState(func(cs *CardState) { cs.TransitionToIdle() })
		}

		if pauseErr := m.pause(ctx, m.config.ScanInterval); pauseErr != nil {
			return pauseErr
		}
	}
}

// PollOnce lists at most one 106 kbps type A target within PollTimeout.
// An empty field is reported as ErrNoTagInPoll.
func (m *Monitor) PollOnce(ctx context.Context) (*pn532.DetectedTag, error) {
	pollCtx, cancel := context.WithTimeout(ctx, m.config.PollTimeout)
	defer cancel()

	tags, err := m.reader.InListPassiveTargetContext(pollCtx, 1, pn532.BaudRate106kbps)
	if err != nil {
		if isMiss(err) && ctx.Err() == nil {
			return nil, ErrNoTagInPoll
		}
		return nil, fmt.Errorf("tag detection failed: %w", err)
	}

	if len(tags) == 0 {
		return nil, ErrNoTagInPoll
	}

	return tags[0], nil
}

func (m *Monitor) handlePoll(tag *pn532.DetectedTag, err error) PollResult {
	result := ResultHit
	switch {
	case errors.Is(err, ErrNoTagInPoll):
		result = ResultMiss
		m.updateState(func(cs *CardState) { cs.RecordMiss() })
	case err != nil:
		result = ResultError
		m.logger.Warn().Err(err).Msg("Poll failed")
		m.updateState(func(cs *CardState) { cs.RecordError() })
	case m.config.RepeatSuppression && m.GetState().SeenAgain(tag.UID):
		result = ResultSuppressed
		m.logger.Debug().Str("uid", tag.UID).Msg("Tag still present")
	default:
		m.updateState(func(cs *CardState) { cs.TransitionToDetected(tag.UID, m.clock.Now()) })
		m.logger.Debug().Str("uid", tag.UID).Str("type", string(tag.Type)).Msg("Tag detected")
		if m.OnCardDetected != nil {
			if cbErr := m.OnCardDetected(tag); cbErr != nil {
				m.logger.Error().Err(cbErr).Str("uid", tag.UID).Msg("Failed to handle detected tag")
			}
		}
	}

	if m.OnPoll != nil {
		m.OnPoll(result, err)
	}
	return result
}

func (m *Monitor) updateState(fn func(cs *CardState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
}

// pause sleeps for d on the monitor clock, returning early when ctx is done
func (m *Monitor) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := m.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// isMiss reports whether err only means that no tag answered in time
func isMiss(err error) bool {
	return errors.Is(err, pn532.ErrNoTagDetected) ||
		errors.Is(err, pn532.ErrTransportTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}
