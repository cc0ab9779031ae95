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

package bringup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"periph.io/x/conn/v3/i2c"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
	"github.com/ZaparooProject/go-pn532-rhizome/detection"
	i2cdetect "github.com/ZaparooProject/go-pn532-rhizome/detection/i2c"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/console"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/metrics"
	i2ctransport "github.com/ZaparooProject/go-pn532-rhizome/transport/i2c"
	"github.com/ZaparooProject/go-pn532-rhizome/transport/uart"
)

const (
	TransportI2C  = "i2c"
	TransportUART = "uart"
	TransportAuto = "auto"
)

// ErrUnknownTransport is returned for a transport name other than i2c, uart or auto
var ErrUnknownTransport = errors.New("bringup: unknown transport")

type Config struct {
	Transport   string
	Bus         string
	Port        string
	IgnorePaths []string
	// Timeout is the transport timeout for every PN532 command
	Timeout time.Duration
	// Deadline bounds the whole bring-up
	Deadline time.Duration
	// Retries wraps the transport in a retrying transport when above 1
	Retries                  int
	Address                  uint16
	PassiveActivationRetries byte
	// ScanBus probes every address between ScanFirst and ScanLast before bring-up
	ScanBus   bool
	ScanFirst uint8
	ScanLast  uint8
}

// Opener creates the hardware handles used during bring-up
type Opener struct {
	OpenBus    func(name string) (i2c.BusCloser, error)
	OpenSerial pn532.TransportFactory
	Detect     pn532.DetectFunc
}

// DefaultOpener opens real hardware
func DefaultOpener() Opener {
	return Opener{
		OpenBus:    i2ctransport.OpenBus,
		OpenSerial: uart.NewTransport,
		Detect:     detection.DetectAll,
	}
}

// Provide brings the PN532 up: optional bus scan, firmware check, SAM and RF
// configuration. Any failure is returned so the application does not start.
func Provide(
	lc fx.Lifecycle,
	cfg Config,
	opener Opener,
	out *console.Output,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) (*pn532.Device, error) {
	ctx := context.Background()
	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}

	device, err := connect(ctx, cfg, opener, out, collector, logger)
	if err != nil {
		out.ChipNotFound(err)
		logger.Error().Err(err).Str("transport", cfg.Transport).Msg("PN532 bring-up failed")
		return nil, err
	}

	fw := device.FirmwareVersion()
	out.ChipVersion(fw.Raw)
	out.Ready()
	collector.ObserveChip(fw.Version)
	logger.Info().
		Str("firmware", fw.Version).
		Str("transport", string(device.Transport().Type())).
		Msg("PN532 ready")

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if closeErr := device.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("Failed to close PN532")
				return closeErr
			}
			return nil
		},
	})

	return device, nil
}

func connect(
	ctx context.Context,
	cfg Config,
	opener Opener,
	out *console.Output,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) (*pn532.Device, error) {
	opts := []pn532.ConnectOption{
		pn532.WithConnectTimeout(cfg.Timeout),
		pn532.WithDeviceOptions(pn532.WithPassiveActivationRetries(cfg.PassiveActivationRetries)),
	}
	if cfg.Retries > 1 {
		retry := pn532.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Retries
		opts = append(opts, pn532.WithTransportRetry(retry))
	}

	switch cfg.Transport {
	case TransportI2C, "":
		bus, err := opener.OpenBus(cfg.Bus)
		if err != nil {
			return nil, fmt.Errorf("failed to open I2C bus %q: %w", cfg.Bus, err)
		}
		if cfg.ScanBus {
			scanBus(ctx, bus, cfg, out, collector, logger)
		}
		out.Initializing()
		opts = append(opts, pn532.WithTransportFactory(func(string) (pn532.Transport, error) {
			return i2ctransport.NewWithOwnedBus(bus, cfg.Bus, cfg.Address), nil
		}))
		return pn532.ConnectDevice(ctx, cfg.Bus, opts...)
	case TransportUART:
		out.Initializing()
		opts = append(opts, pn532.WithTransportFactory(opener.OpenSerial))
		return pn532.ConnectDevice(ctx, cfg.Port, opts...)
	case TransportAuto:
		out.Initializing()
		detectOpts := detection.DefaultOptions()
		detectOpts.IgnorePaths = cfg.IgnorePaths
		detectOpts.FirstAddress = cfg.ScanFirst
		detectOpts.LastAddress = cfg.ScanLast
		opts = append(opts,
			pn532.WithAutoDetection(opener.Detect, fromDeviceInfo),
			pn532.WithDetectionOptions(detectOpts),
		)
		return pn532.ConnectDevice(ctx, "", opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
}

// scanBus reports every responding address. A failed scan is not fatal;
// the firmware check decides whether a PN532 is there.
func scanBus(
	ctx context.Context,
	bus i2c.Bus,
	cfg Config,
	out *console.Output,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) {
	out.ScanStarted()
	found, err := i2cdetect.ScanBus(ctx, bus, cfg.ScanFirst, cfg.ScanLast)
	if err != nil {
		logger.Warn().Err(err).Str("bus", cfg.Bus).Msg("I2C bus scan failed")
	}
	for _, addr := range found {
		out.BusDevice(addr)
	}
	collector.BusResponders.Set(float64(len(found)))
	logger.Debug().Int("count", len(found)).Str("bus", cfg.Bus).Msg("I2C bus scanned")
}

func fromDeviceInfo(info detection.DeviceInfo) (pn532.Transport, error) {
	switch info.Transport {
	case TransportI2C:
		return i2ctransport.FromDeviceInfo(info)
	case TransportUART:
		return uart.FromDeviceInfo(info)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, info.Transport)
	}
}

var Module = fx.Module("bringup",
	fx.Provide(DefaultOpener),
	fx.Provide(Provide),
)
