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
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-pn532-rhizome/detection"
)

// TransportFactory is a function type for creating transports
type TransportFactory func(path string) (Transport, error)

// TransportFromDeviceFactory is a function type for creating transports from detected devices
type TransportFromDeviceFactory func(device detection.DeviceInfo) (Transport, error)

// DetectFunc lists candidate PN532 devices
type DetectFunc func(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error)

// ConnectOption represents a functional option for ConnectDevice
type ConnectOption func(*connectConfig) error

// connectConfig holds configuration options for device connection
type connectConfig struct {
	transportFactory       TransportFactory
	transportDeviceFactory TransportFromDeviceFactory
	detect                 DetectFunc
	retryConfig            *RetryConfig
	detectOptions          detection.Options
	deviceOptions          []Option
	timeout                time.Duration
	autoDetect             bool
}

// WithAutoDetection enables automatic device detection instead of using a specific path
func WithAutoDetection(detect DetectFunc, factory TransportFromDeviceFactory) ConnectOption {
	return func(c *connectConfig) error {
		if detect == nil || factory == nil {
			return errors.New("auto-detection needs a detector and a transport factory")
		}
		c.autoDetect = true
		c.detect = detect
		c.transportDeviceFactory = factory
		return nil
	}
}

// WithDetectionOptions sets the options passed to the detector
func WithDetectionOptions(opts detection.Options) ConnectOption {
	return func(c *connectConfig) error {
		c.detectOptions = opts
		return nil
	}
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithConnectTimeout sets the device connection timeout
func WithConnectTimeout(timeout time.Duration) ConnectOption {
	return func(c *connectConfig) error {
		c.timeout = timeout
		return nil
	}
}

// WithTransportFactory sets the transport factory function
func WithTransportFactory(factory TransportFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportFactory = factory
		return nil
	}
}

// WithTransportRetry wraps the created transport in a RetryTransport
func WithTransportRetry(config *RetryConfig) ConnectOption {
	return func(c *connectConfig) error {
		if config == nil {
			config = DefaultRetryConfig()
		}
		c.retryConfig = config
		return nil
	}
}

func applyConnectOptions(opts []ConnectOption) (*connectConfig, error) {
	config := &connectConfig{
		timeout:       time.Second,
		detectOptions: detection.DefaultOptions(),
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply connect option: %w", err)
		}
	}

	return config, nil
}

// ConnectDevice creates and initializes a PN532 device from a path or auto-detection.
// It returns an error wrapping ErrDeviceNotFound when the controller does not answer.
//
// Example usage:
//
//	device, err := pn532.ConnectDevice(ctx, "1", pn532.WithTransportFactory(i2c.NewTransport))
func ConnectDevice(ctx context.Context, path string, opts ...ConnectOption) (*Device, error) {
	config, err := applyConnectOptions(opts)
	if err != nil {
		return nil, err
	}

	transport, err := createTransport(ctx, path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	if config.retryConfig != nil {
		transport = NewRetryTransport(transport, config.retryConfig)
	}

	device, err := setupDevice(ctx, transport, config)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	return device, nil
}

func createTransport(ctx context.Context, path string, config *connectConfig) (Transport, error) {
	if config.autoDetect {
		return createAutoDetectedTransport(ctx, config)
	}
	return createManualTransport(path, config.transportFactory)
}

func setupDevice(ctx context.Context, transport Transport, config *connectConfig) (*Device, error) {
	device, err := New(transport, config.deviceOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if config.timeout > 0 {
		if err := device.SetTimeout(config.timeout); err != nil {
			return nil, fmt.Errorf("failed to set timeout: %w", err)
		}
	}

	if err := device.InitContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize device: %w", err)
	}

	return device, nil
}

// createManualTransport handles creation of transport for a specific path
func createManualTransport(path string, factory TransportFactory) (Transport, error) {
	if factory == nil {
		return nil, errors.New("transport factory not provided")
	}

	transport, err := factory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport for path %q: %w", path, err)
	}

	return transport, nil
}

// createAutoDetectedTransport handles auto-detection of devices
func createAutoDetectedTransport(ctx context.Context, config *connectConfig) (Transport, error) {
	devices, err := config.detect(ctx, &config.detectOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to detect devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, ErrDeviceNotFound
	}

	// Highest confidence first
	best := devices[0]
	for _, dev := range devices[1:] {
		if dev.Confidence > best.Confidence {
			best = dev
		}
	}
	debugf("auto-detected %s", best.String())

	return config.transportDeviceFactory(best)
}
