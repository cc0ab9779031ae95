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

package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Detection errors
var (
	ErrNoDevicesFound      = errors.New("no PN532 devices found")
	ErrDetectionTimeout    = errors.New("device detection timed out")
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
	ErrUnknownTransport    = errors.New("no detector registered for transport")
)

// Mode controls how aggressively a detector probes candidate devices
type Mode int

const (
	// Passive only lists devices without talking to them
	Passive Mode = iota
	// Safe probes with read-only transactions
	Safe
	// Full probes every candidate
	Full
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Passive:
		return "passive"
	case Safe:
		return "safe"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Confidence expresses how likely a candidate is a PN532
type Confidence int

const (
	// Low means the device exists but nothing suggests a PN532
	Low Confidence = iota
	// Medium means the device sits where a PN532 is expected
	Medium
	// High means the device answered a probe
	High
)

// String returns the confidence name
func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

// DeviceInfo describes a candidate device found by a detector
type DeviceInfo struct {
	Metadata   map[string]string
	Transport  string
	Path       string
	Name       string
	Confidence Confidence
}

// String returns a one-line description
func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s %s (%s, confidence %s)", d.Transport, d.Path, d.Name, d.Confidence)
}

// Options configures detection
type Options struct {
	// IgnorePaths lists device paths that must not be probed
	IgnorePaths []string
	// Timeout bounds the whole detection run
	Timeout time.Duration
	// Mode is the probing mode
	Mode Mode
	// FirstAddress and LastAddress bound the I2C address scan (7-bit)
	FirstAddress uint8
	LastAddress  uint8
}

// DefaultOptions returns options scanning the full 7-bit I2C range in safe mode
func DefaultOptions() Options {
	return Options{
		Mode:         Safe,
		Timeout:      5 * time.Second,
		FirstAddress: 0x01,
		LastAddress:  0x7E,
	}
}

// Detector finds candidate devices for one transport
type Detector interface {
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
	Transport() string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Detector)
)

// RegisterDetector makes a detector available to DetectAll and DetectTransport
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Transport()] = d
}

// DetectTransport runs the detector registered for transport
func DetectTransport(ctx context.Context, transport string, opts *Options) ([]DeviceInfo, error) {
	registryMu.RLock()
	d, ok := registry[transport]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, transport)
	}

	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	devices, err := d.Detect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s detection failed: %w", transport, err)
	}
	return devices, nil
}

// DetectAll runs every registered detector and returns the devices found,
// highest confidence first. Detector errors are skipped unless nothing was found.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	registryMu.RLock()
	transports := make([]string, 0, len(registry))
	for name := range registry {
		transports = append(transports, name)
	}
	registryMu.RUnlock()
	sort.Strings(transports)

	var (
		all     []DeviceInfo
		lastErr error
	)
	for _, name := range transports {
		devices, err := DetectTransport(ctx, name, opts)
		if err != nil {
			lastErr = err
			continue
		}
		all = append(all, devices...)
	}

	if len(all) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrNoDevicesFound
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})
	return all, nil
}
