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
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxAttempts is the number of attempts for a transport command
	DefaultMaxAttempts = 3
	// DefaultInitialBackoff is the delay before the first retry
	DefaultInitialBackoff = 10 * time.Millisecond
	// DefaultMaxBackoff caps the delay between retries
	DefaultMaxBackoff = 500 * time.Millisecond
	// DefaultBackoffMultiplier grows the delay between retries
	DefaultBackoffMultiplier = 2.0
	// DefaultJitter is the random jitter factor (0.0-1.0)
	DefaultJitter = 0.1
)

// RetryConfig configures retry behavior for transport operations
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Jitter            float64
	RetryTimeout      time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       DefaultMaxAttempts,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
		Jitter:            DefaultJitter,
		RetryTimeout:      5 * time.Second,
	}
}

// RetryWithConfig runs fn until it succeeds, returns a non-retryable error,
// attempts are exhausted or ctx is done.
func RetryWithConfig(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	if config.RetryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.RetryTimeout)
		defer cancel()
	}

	attempts := max(config.MaxAttempts, 1)
	backoff := config.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("retry aborted after %d attempts: %w", attempt-1, lastErr)
			}
			return fmt.Errorf("retry aborted: %w", err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == attempts {
			break
		}

		debugf("attempt %d/%d failed: %v", attempt, attempts, lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt, lastErr)
		case <-time.After(jittered(backoff, config.Jitter)):
		}

		backoff = nextBackoff(backoff, config)
	}

	return lastErr
}

func nextBackoff(current time.Duration, config *RetryConfig) time.Duration {
	multiplier := config.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	next := time.Duration(float64(current) * multiplier)
	if config.MaxBackoff > 0 && next > config.MaxBackoff {
		return config.MaxBackoff
	}
	return next
}

func jittered(d time.Duration, factor float64) time.Duration {
	if factor <= 0 || d <= 0 {
		return d
	}
	delta := float64(d) * factor
	// #nosec G404 -- jitter does not need a cryptographic source
	return d + time.Duration(rand.Float64()*delta)
}

// RetryTransport retries transient transport failures of the wrapped transport.
// An expired or cancelled context ends the retries.
type RetryTransport struct {
	Transport
	config *RetryConfig
}

// NewRetryTransport wraps transport; a nil config selects DefaultRetryConfig
func NewRetryTransport(transport Transport, config *RetryConfig) *RetryTransport {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryTransport{Transport: transport, config: config}
}

func (t *RetryTransport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	var resp []byte
	err := RetryWithConfig(ctx, t.config, func() error {
		var err error
		resp, err = t.Transport.SendCommandContext(ctx, cmd, args)
		return err
	})
	return resp, err
}

func (t *RetryTransport) SetTimeout(timeout time.Duration) error {
	if err := t.Transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("retry transport: %w", err)
	}
	return nil
}

func (t *RetryTransport) Close() error {
	if err := t.Transport.Close(); err != nil {
		return fmt.Errorf("retry transport: %w", err)
	}
	return nil
}

// SetRetryConfig replaces the retry configuration
func (t *RetryTransport) SetRetryConfig(config *RetryConfig) {
	t.config = config
}
