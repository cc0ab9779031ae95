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

package sender

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/console"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/metrics"
	"github.com/ZaparooProject/go-pn532-rhizome/p2p"
)

type Config struct {
	P2P p2p.Config
	// Console enables sending operator lines read from Input
	Console bool
	// Input defaults to os.Stdin
	Input io.Reader
}

type Component struct {
	sender *p2p.Sender
}

// Sender returns the loop driven by the component, nil before start
func (c *Component) Sender() *p2p.Sender {
	return c.sender
}

func run(
	ctx context.Context,
	stopped chan struct{},
	sender *p2p.Sender,
	cfg Config,
	logger *zerolog.Logger,
) {
	defer close(stopped)

	logger.Info().
		Dur("interval", cfg.P2P.SendInterval).
		Int("max_payload", cfg.P2P.MaxPayload).
		Int("baud_rate", cfg.P2P.BaudRate).
		Bool("passive", cfg.P2P.Passive).
		Bool("ndef", cfg.P2P.NDEF).
		Msg("Starting sender")

	// Run only returns once ctx is cancelled
	_ = sender.Run(ctx)
}

func New(
	lc fx.Lifecycle,
	cfg Config,
	validate *validator.Validate,
	clock clockwork.Clock,
	device *pn532.Device,
	out *console.Output,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) (*Component, error) {
	if err := cfg.P2P.Validate(validate); err != nil {
		return nil, fmt.Errorf("invalid sender config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})

	component := &Component{}
	session := p2p.NewSession(device, &cfg.P2P, clock, logger)
	onResult := func(result *p2p.Result) {
		out.ExchangeResult(result)
		collector.ObserveExchange(result)
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var lines <-chan string
			if cfg.Console {
				input := cfg.Input
				if input == nil {
					input = os.Stdin
				}
				lines = console.ReadLines(ctx, input, logger) // nolint: contextcheck
			}
			component.sender = p2p.NewSender(session, lines)
			component.sender.OnResult = onResult

			out.WaitingForPeer(cfg.P2P.SendInterval, cfg.Console)
			go run(ctx, stopped, component.sender, cfg, logger) // nolint: contextcheck
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-stopped:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			logger.Info().Uint16("next_message", session.Counter()).Msg("Sender stopped")
			return nil
		},
	})

	return component, nil
}

var Module = fx.Module("sender",
	fx.Provide(New),
)
