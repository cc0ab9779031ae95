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

package commander

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/bringup"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/build"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/exporter"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/logging"
	i2ctransport "github.com/ZaparooProject/go-pn532-rhizome/transport/i2c"
)

// Globals are the flags shared by both programs
type Globals struct {
	Version kong.VersionFlag `help:"Display the app version and exit"`

	LogLevel  string `default:"info"    enum:"trace,debug,info,warn,error"  help:"Sets the minimum severity level for log messages"` // nolint:lll
	LogOutput string `default:"console" enum:"console,stdout,stderr,json"   help:"Specifies the format for log output"`

	Transport         string        `default:"i2c" enum:"i2c,uart,auto" help:"Selects how the PN532 is attached"`
	Bus               string        `default:""                         help:"I2C bus name or number, optionally followed by :0xNN for the PN532 address; empty selects the first bus"` // nolint:lll
	Port              string        `default:""                         help:"Serial port of a PN532 on the uart transport"`
	IgnorePaths       []string      `                                   help:"Device paths skipped by auto detection"`
	Timeout           time.Duration `default:"1s"                       help:"Sets the maximum time to wait for a PN532 command response"`           // nolint:lll
	BringupTimeout    time.Duration `default:"10s"                      help:"Sets the maximum time for the bus scan and PN532 initialization"`      // nolint:lll
	Retries           int           `default:"1"                        help:"Number of attempts for a failed PN532 command before giving up"`       // nolint:lll
	ActivationRetries uint8         `default:"255"                      help:"PN532 passive activation retries; 255 retries until the poll timeout"` // nolint:lll

	MetricsAddress         string        `default:""    help:"Serves Prometheus metrics on this address when set"`
	MetricsReadTimeout     time.Duration `default:"5s"  help:"Sets the maximum duration to read a metrics request before timing out"`
	MetricsWriteTimeout    time.Duration `default:"5s"  help:"Sets the maximum duration to write a metrics response before timing out"`
	MetricsShutdownTimeout time.Duration `default:"10s" help:"The amount of time the metrics server will wait gracefully closing connections before exiting"` // nolint:lll
}

// VersionVars feeds the version banner to kong.VersionFlag
func VersionVars() kong.Vars {
	return kong.Vars{"version": build.String()}
}

func (g *Globals) LoggingConfig() logging.Config {
	return logging.Config{
		LogLevel:  g.LogLevel,
		LogOutput: g.LogOutput,
	}
}

func (g *Globals) ExporterConfig() exporter.Config {
	return exporter.Config{
		HTTPListenAddress:   g.MetricsAddress,
		HTTPReadTimeout:     g.MetricsReadTimeout,
		HTTPWriteTimeout:    g.MetricsWriteTimeout,
		HTTPShutdownTimeout: g.MetricsShutdownTimeout,
	}
}

// BringupConfig converts the shared flags; the bus scan fields are left to the caller
func (g *Globals) BringupConfig() (bringup.Config, error) {
	busName, addr, err := i2ctransport.ParsePath(g.Bus)
	if err != nil {
		return bringup.Config{}, fmt.Errorf("invalid --bus: %w", err)
	}
	if g.Transport == bringup.TransportUART && g.Port == "" {
		return bringup.Config{}, fmt.Errorf("--port is required for the %s transport", g.Transport)
	}
	return bringup.Config{
		Transport:                g.Transport,
		Bus:                      busName,
		Address:                  addr,
		Port:                     g.Port,
		IgnorePaths:              g.IgnorePaths,
		Timeout:                  g.Timeout,
		Deadline:                 g.BringupTimeout,
		Retries:                  g.Retries,
		PassiveActivationRetries: g.ActivationRetries,
		ScanFirst:                0x01,
		ScanLast:                 0x7E,
	}, nil
}
