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

package scanner

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/console"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/metrics"
	"github.com/ZaparooProject/go-pn532-rhizome/polling"
)

type Component struct {
	monitor *polling.Monitor
}

// Monitor returns the poll loop driven by the component
func (c *Component) Monitor() *polling.Monitor {
	return c.monitor
}

func run(
	ctx context.Context,
	stopped chan struct{},
	monitor *polling.Monitor,
	cfg polling.Config,
	logger *zerolog.Logger,
) {
	defer close(stopped)

	logger.Info().
		Dur("poll_timeout", cfg.PollTimeout).
		Dur("scan_interval", cfg.ScanInterval).
		Dur("removal_pause", cfg.RemovalPause).
		Bool("suppress_repeats", cfg.RepeatSuppression).
		Msg("Starting scanner")

	// Run only returns once ctx is cancelled
	_ = monitor.Run(ctx)
}

func New(
	lc fx.Lifecycle,
	cfg polling.Config,
	validate *validator.Validate,
	clock clockwork.Clock,
	device *pn532.Device,
	out *console.Output,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) (*Component, error) {
	if err := cfg.Validate(validate); err != nil {
		return nil, fmt.Errorf("invalid scanner config: %w", err)
	}

	monitor := polling.NewMonitor(device, &cfg, polling.WithClock(clock), polling.WithLogger(logger))
	monitor.OnCardDetected = func(tag *pn532.DetectedTag) error {
		out.CardDetected(tag.UIDBytes)
		return nil
	}
	monitor.OnPoll = func(result polling.PollResult, _ error) {
		collector.ObservePoll(result)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			out.WaitingForCard()
			go run(ctx, stopped, monitor, cfg, logger) // nolint: contextcheck
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-stopped:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			state := monitor.GetState()
			logger.Info().
				Uint64("detections", state.Detections).
				Uint64("misses", state.Misses).
				Uint64("errors", state.Errors).
				Msg("Scanner stopped")
			return nil
		},
	})

	return &Component{monitor: monitor}, nil
}

var Module = fx.Module("scanner",
	fx.Provide(New),
)
