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

package app

import (
	"os"

	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"

	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/exporter"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/app/logging"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/console"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/metrics"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/validation"
)

// Builder collects the fx options of one program
type Builder struct {
	opts []fx.Option
}

// NewBuilder starts a builder with opts
func NewBuilder(opts ...fx.Option) *Builder {
	return &Builder{
		opts: opts,
	}
}

// Add appends opts
func (b *Builder) Add(opts ...fx.Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// WithExporter serves the metrics registry when cfg has a listen address
func (b *Builder) WithExporter(cfg exporter.Config) *Builder {
	return b.Add(
		fx.Supply(cfg),
		exporter.Module,
		fx.Invoke(func(*exporter.Component) {}),
	)
}

// Build creates the fx application
func (b *Builder) Build() *fx.App {
	return fx.New(b.opts...)
}

// ProvideOutput writes the console status lines to stdout
func ProvideOutput() *console.Output {
	return console.NewOutput(os.Stdout)
}

// Module provides the clock, validator, metrics collector and console output
var Module = fx.Module("application",
	fx.Invoke(logging.NoGlobal),
	fx.Provide(clockwork.NewRealClock),
	fx.Provide(validation.New),
	fx.Provide(metrics.New),
	fx.Provide(ProvideOutput),
)
