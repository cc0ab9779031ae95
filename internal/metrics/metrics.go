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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ZaparooProject/go-pn532-rhizome/p2p"
	"github.com/ZaparooProject/go-pn532-rhizome/polling"
)

type Collector struct {
	registry *prometheus.Registry

	BusResponders prometheus.Gauge
	ChipInfo      *prometheus.GaugeVec

	PollCycles    *prometheus.CounterVec
	TagDetections prometheus.Counter

	Exchanges         *prometheus.CounterVec
	MessagesSent      prometheus.Counter
	MessagesTruncated prometheus.Counter
	BytesSent         prometheus.Counter
	BytesReceived     prometheus.Counter
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	return &Collector{
		registry: registry,

		BusResponders: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "i2c_bus_responders",
			Help: "The number of addresses that answered the last I2C bus scan",
		}),
		ChipInfo: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "pn532_chip_info",
			Help: "Firmware version reported by the PN532 during bring-up",
		}, []string{"version"}),
		PollCycles: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_poll_cycles_total",
			Help: "The total number of passive target polls by result",
		}, []string{"result"}),
		TagDetections: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "scanner_tag_detections_total",
			Help: "The total number of reported tag detections",
		}),
		Exchanges: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "sender_exchanges_total",
			Help: "The total number of P2P exchange attempts by outcome",
		}, []string{"outcome"}),
		MessagesSent: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "sender_messages_sent_total",
			Help: "The total number of messages handed to a discovered peer",
		}),
		MessagesTruncated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "sender_messages_truncated_total",
			Help: "The total number of messages cut to the payload limit",
		}),
		BytesSent: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "sender_sent_bytes_total",
			Help: "The total amount of payload bytes sent to peers",
		}),
		BytesReceived: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "sender_received_bytes_total",
			Help: "The total amount of response bytes received from peers",
		}),
	}
}

func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ObservePoll(result polling.PollResult) {
	c.PollCycles.WithLabelValues(result.String()).Inc()
	if result == polling.ResultHit {
		c.TagDetections.Inc()
	}
}

func (c *Collector) ObserveExchange(result *p2p.Result) {
	c.Exchanges.WithLabelValues(result.Outcome.String()).Inc()
	if result.Outcome == p2p.OutcomeNoPeer {
		return
	}
	c.MessagesSent.Inc()
	c.BytesSent.Add(float64(result.Sent.Len()))
	c.BytesReceived.Add(float64(result.Response.Len()))
	if result.Truncated {
		c.MessagesTruncated.Inc()
	}
}

func (c *Collector) ObserveChip(version string) {
	c.ChipInfo.Reset()
	c.ChipInfo.WithLabelValues(version).Set(1)
}
