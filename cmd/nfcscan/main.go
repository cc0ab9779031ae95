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

package main

import (
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/fx"

	"github.com/ZaparooProject/go-pn532-rhizome/internal/app"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/bringup"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/commander"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/logging"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/scanner"
	"github.com/ZaparooProject/go-pn532-rhizome/polling"
)

type CLI struct {
	commander.Globals

	ScanBus         bool          `default:"true"  negatable:"" help:"Probe the I2C bus and list responding addresses before initialization"` // nolint:lll
	ScanFirst       uint8         `default:"1"                  help:"First address probed by the bus scan"`
	ScanLast        uint8         `default:"126"                help:"Last address probed by the bus scan"`
	PollTimeout     time.Duration `default:"100ms"              help:"Sets the maximum time a single tag poll waits for a card"`
	ScanInterval    time.Duration `default:"100ms"              help:"Pause between two polls that found no card"`
	RemovalPause    time.Duration `default:"1s"                 help:"Pause after a detected card before polling again"`
	SuppressRepeats bool          `                             help:"Do not report the same card again until it has left the field"` // nolint:lll
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(
		&cli,
		kong.Name("nfcscan"),
		kong.Description("Waits for NFC cards on a PN532 and prints their UIDs"),
		kong.UsageOnError(),
		kong.DefaultEnvars("NFCSCAN"),
		commander.VersionVars(),
	)

	bringupCfg, err := cli.BringupConfig()
	kctx.FatalIfErrorf(err)
	bringupCfg.ScanBus = cli.ScanBus
	bringupCfg.ScanFirst = cli.ScanFirst
	bringupCfg.ScanLast = cli.ScanLast

	app.NewBuilder(
		app.Module,
		fx.Supply(cli.LoggingConfig()),
		fx.Provide(logging.Provide),
		fx.WithLogger(logging.FxLogger),
		fx.Supply(bringupCfg),
		bringup.Module,
		fx.Supply(polling.Config{
			PollTimeout:       cli.PollTimeout,
			ScanInterval:      cli.ScanInterval,
			RemovalPause:      cli.RemovalPause,
			RepeatSuppression: cli.SuppressRepeats,
		}),
		scanner.Module,
		fx.Invoke(func(*scanner.Component) {}),
	).
		WithExporter(cli.ExporterConfig()).
		Build().
		Run()
}
