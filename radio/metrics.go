// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package radio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/protimer"
)

// Metrics holds the counters shared by all transceivers of a simulation. A nil *Metrics records
// nothing.
type Metrics struct {
	stateEntries *prometheus.CounterVec
	residency    *prometheus.CounterVec
	frames       *prometheus.CounterVec
	lbt          *prometheus.CounterVec
	interrupts   *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		stateEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radio_state_entries_total",
				Help: "Radio state machine state entries",
			},
			[]string{"node", "state"},
		),
		residency: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radio_state_residency_seconds_total",
				Help: "Virtual time spent in each radio state, counted when the state is left",
			},
			[]string{"node", "state"},
		),
		frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radio_frames_total",
				Help: "Frames transmitted and received",
			},
			[]string{"node", "direction"},
		),
		lbt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radio_lbt_outcomes_total",
				Help: "Listen-before-talk outcomes",
			},
			[]string{"node", "outcome"},
		),
		interrupts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radio_interrupt_assertions_total",
				Help: "Interrupt line assertions",
			},
			[]string{"node", "line"},
		),
	}
}

func nodeLabel(id NodeId) string {
	return fmt.Sprintf("%d", id)
}

func (m *Metrics) onStateEntry(id NodeId, state RadioState) {
	if m == nil {
		return
	}
	m.stateEntries.WithLabelValues(nodeLabel(id), state.String()).Inc()
}

func (m *Metrics) onStateResidency(id NodeId, state RadioState, ns uint64) {
	if m == nil || ns == 0 {
		return
	}
	m.residency.WithLabelValues(nodeLabel(id), state.String()).Add(float64(ns) / 1e9)
}

func (m *Metrics) onProtimerEvent(id NodeId, e protimer.Event) {
	if m == nil {
		return
	}
	switch e {
	case protimer.EventTxDone:
		m.frames.WithLabelValues(nodeLabel(id), "tx").Inc()
	case protimer.EventRxDone:
		m.frames.WithLabelValues(nodeLabel(id), "rx").Inc()
	case protimer.EventListenBeforeTalkSuccess:
		m.lbt.WithLabelValues(nodeLabel(id), "success").Inc()
	case protimer.EventListenBeforeTalkFailure:
		m.lbt.WithLabelValues(nodeLabel(id), "failure").Inc()
	case protimer.EventListenBeforeTalkRetry:
		m.lbt.WithLabelValues(nodeLabel(id), "retry").Inc()
	}
}

func (m *Metrics) onInterruptLine(id NodeId, line interrupts.Line, level bool) {
	if m == nil || !level {
		return
	}
	m.interrupts.WithLabelValues(nodeLabel(id), line.String()).Inc()
}

// FormatMetrics gathers g and formats every sample as "name{label=value,...} value", sorted.
func FormatMetrics(g prometheus.Gatherer) ([]string, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %v", mf.GetName(), formatLabels(m.GetLabel()), metricValue(m)))
		}
	}
	sort.Strings(lines)
	return lines, nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, lp := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func metricValue(m *dto.Metric) float64 {
	if m.GetCounter() != nil {
		return m.GetCounter().GetValue()
	}
	if m.GetGauge() != nil {
		return m.GetGauge().GetValue()
	}
	if m.GetHistogram() != nil {
		return m.GetHistogram().GetSampleSum()
	}
	if m.GetSummary() != nil {
		return m.GetSummary().GetSampleSum()
	}
	return 0
}
