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
	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/sender"
	"github.com/ZaparooProject/go-pn532-rhizome/p2p"
)

type CLI struct {
	commander.Globals

	ScanBus      bool          `default:"false" negatable:"" help:"Probe the I2C bus and list responding addresses before initialization"` // nolint:lll
	SendInterval time.Duration `default:"3s"                 help:"Interval between two periodic messages"`
	MaxPayload   int           `default:"64"                 help:"Maximum number of bytes sent in one exchange (1-64)"`
	Message      string        `default:"${message}"         help:"Periodic message template; a single %d is replaced by the message counter"` // nolint:lll
	NDEF         bool          `                             help:"Wrap outgoing messages in an NDEF text record"`
	Language     string        `default:"en"                 help:"Language code of NDEF text records"`
	Stdin        bool          `default:"true"  negatable:"" help:"Send every line typed on standard input as a message"`
	BaudRate     int           `default:"424"   enum:"106,212,424" help:"DEP baud rate in kbps"`
	Passive      bool          `                             help:"Activate the target in passive mode instead of active mode"` // nolint:lll
}

func main() {
	cli := CLI{}
	vars := commander.VersionVars()
	vars["message"] = p2p.DefaultMessageTemplate
	kctx := kong.Parse(
		&cli,
		kong.Name("p2psend"),
		kong.Description("Sends messages to a peer-to-peer NFC target through a PN532 initiator"),
		kong.UsageOnError(),
		kong.DefaultEnvars("P2PSEND"),
		vars,
	)

	bringupCfg, err := cli.BringupConfig()
	kctx.FatalIfErrorf(err)
	bringupCfg.ScanBus = cli.ScanBus

	app.NewBuilder(
		app.Module,
		fx.Supply(cli.LoggingConfig()),
		fx.Provide(logging.Provide),
		fx.WithLogger(logging.FxLogger),
		fx.Supply(bringupCfg),
		bringup.Module,
		fx.Supply(sender.Config{
			P2P: p2p.Config{
				Template:     cli.Message,
				Language:     cli.Language,
				SendInterval: cli.SendInterval,
				MaxPayload:   cli.MaxPayload,
				BaudRate:     cli.BaudRate,
				Passive:      cli.Passive,
				NDEF:         cli.NDEF,
			},
			Console: cli.Stdin,
		}),
		sender.Module,
		fx.Invoke(func(*sender.Component) {}),
	).
		WithExporter(cli.ExporterConfig()).
		Build().
		Run()
}
