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

package exporter

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ZaparooProject/go-pn532-rhizome/internal/metrics"
)

type Config struct {
	// HTTPListenAddress disables the exporter when empty
	HTTPListenAddress   string
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPShutdownTimeout time.Duration
}

type Component struct {
	addr net.Addr
}

// Addr returns the address the exporter listens on, nil when disabled
func (c *Component) Addr() net.Addr {
	return c.addr
}

func New(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg Config,
	logger *zerolog.Logger,
	collector *metrics.Collector,
) *Component {
	component := &Component{}
	if cfg.HTTPListenAddress == "" {
		logger.Debug().Msg("Exporter disabled")
		return component
	}

	registry := collector.GetRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		registry,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	))
	svr := &http.Server{
		Handler:           mux,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var listenCfg net.ListenConfig
			listener, err := listenCfg.Listen(ctx, "tcp", cfg.HTTPListenAddress)
			if err != nil {
				logger.Error().Err(err).Str("addr", cfg.HTTPListenAddress).Msg("Failed to set up exporter server")
				return err
			}
			component.addr = listener.Addr()
			logger.Info().Stringer("addr", listener.Addr()).Msg("Exporter server is ready to accept connections")
			go func() {
				if serveErr := svr.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
					logger.Warn().Err(serveErr).Msg("Exporter server exited prematurely")
					if shutErr := shutdowner.Shutdown(); shutErr != nil {
						logger.Error().Err(shutErr).Msg("Failed to handle premature exporter server shutdown")
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			if cfg.HTTPShutdownTimeout > 0 {
				var cancel context.CancelFunc
				stopCtx, cancel = context.WithTimeout(stopCtx, cfg.HTTPShutdownTimeout)
				defer cancel()
			}
			if stopErr := svr.Shutdown(stopCtx); stopErr != nil {
				logger.Error().Err(stopErr).Msg("Failed to stop exporter server gracefully")
				return stopErr
			}
			logger.Info().Msg("Exporter server stopped")
			return nil
		},
	})

	return component
}

var Module = fx.Module("exporter",
	fx.Provide(New),
)
