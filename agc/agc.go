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

// Package agc implements the automatic gain control's RSSI sampling and clear channel
// assessment.
package agc

import (
	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/vtime"
)

// AGC interrupt flag bits.
const (
	IntRssiDone uint = 0
	IntCcaClear uint = 1
	IntCcaBusy  uint = 2
)

type Config struct {
	CcaThresholdDbm     DbValue `yaml:"cca_threshold_dbm"`
	MeasurementPeriodUs uint64  `yaml:"measurement_period_us"`
}

func DefaultConfig() Config {
	return Config{
		CcaThresholdDbm:     -75,
		MeasurementPeriodUs: 128,
	}
}

// RssiSource returns the power currently sensed on the radio's channel.
type RssiSource interface {
	CurrentRssi() DbValue
}

type InterruptSink interface {
	SetBoth(b interrupts.Block, bit uint)
}

type GainControl struct {
	cfg   Config
	src   RssiSource
	irq   InterruptSink
	log   *logger.NodeLogger
	timer *vtime.OneShotTimer

	// OnMeasurementDone is called when a measurement period ends or is aborted.
	OnMeasurementDone func(busy bool, fromLbt bool)

	samplingEnabled bool
	measuring       bool
	fromLbt         bool
	sampleMax       DbValue
	lastRssi        DbValue
	ccaPassed       bool
	measurements    uint64
}

func NewGainControl(cfg Config, timers vtime.TimerFactory, src RssiSource, irq InterruptSink, log *logger.NodeLogger) *GainControl {
	gc := &GainControl{
		cfg:       cfg,
		src:       src,
		irq:       irq,
		log:       log,
		sampleMax: RssiMinusInfinity,
		lastRssi:  RssiInvalid,
	}
	gc.timer = timers.NewTimer("agc-rssi", 1000000, gc.onMeasurementPeriodEnd)
	return gc
}

func (gc *GainControl) Config() Config {
	return gc.cfg
}

func (gc *GainControl) SetCcaThreshold(dbm DbValue) {
	gc.cfg.CcaThresholdDbm = dbm
}

// SetRssiSamplingEnabled follows the receiving states of the radio. Leaving them aborts a running
// measurement, which then reports a busy channel.
func (gc *GainControl) SetRssiSamplingEnabled(enabled bool) {
	if gc.samplingEnabled == enabled {
		return
	}
	gc.samplingEnabled = enabled
	if !enabled && gc.measuring {
		gc.timer.SetEnabled(false)
		gc.log.Debugf("agc: measurement aborted, radio left rx")
		gc.finishMeasurement(true)
	}
}

func (gc *GainControl) RssiSamplingEnabled() bool {
	return gc.samplingEnabled
}

// StartRssiMeasurement starts a measurement period. It returns false if the radio is not
// receiving.
func (gc *GainControl) StartRssiMeasurement(fromLbt bool) bool {
	if !gc.samplingEnabled {
		return false
	}
	gc.measuring = true
	gc.fromLbt = fromLbt
	gc.sampleMax = gc.src.CurrentRssi()
	gc.timer.Restart(gc.cfg.MeasurementPeriodUs)
	return true
}

func (gc *GainControl) Measuring() bool {
	return gc.measuring
}

// InterferenceChanged samples the channel again during a measurement.
func (gc *GainControl) InterferenceChanged() {
	if !gc.measuring {
		return
	}
	if rssi := gc.src.CurrentRssi(); rssi > gc.sampleMax {
		gc.sampleMax = rssi
	}
}

func (gc *GainControl) onMeasurementPeriodEnd() {
	if !gc.measuring {
		return
	}
	gc.InterferenceChanged()
	gc.finishMeasurement(gc.sampleMax >= gc.cfg.CcaThresholdDbm)
}

func (gc *GainControl) finishMeasurement(busy bool) {
	gc.measuring = false
	gc.measurements++
	gc.lastRssi = gc.sampleMax
	gc.ccaPassed = !busy
	gc.irq.SetBoth(interrupts.BlockAgc, IntRssiDone)
	if busy {
		gc.irq.SetBoth(interrupts.BlockAgc, IntCcaBusy)
	} else {
		gc.irq.SetBoth(interrupts.BlockAgc, IntCcaClear)
	}
	fromLbt := gc.fromLbt
	gc.fromLbt = false
	gc.sampleMax = RssiMinusInfinity
	if gc.OnMeasurementDone != nil {
		gc.OnMeasurementDone(busy, fromLbt)
	}
}

// Rssi is the RSSI register: the live channel power while sampling is enabled, RssiInvalid
// otherwise.
func (gc *GainControl) Rssi() DbValue {
	if !gc.samplingEnabled {
		return RssiInvalid
	}
	return gc.src.CurrentRssi()
}

// LastRssi returns the maximum power of the last completed measurement.
func (gc *GainControl) LastRssi() DbValue {
	return gc.lastRssi
}

// CcaPassed returns whether the last measurement found the channel clear.
func (gc *GainControl) CcaPassed() bool {
	return gc.ccaPassed
}

func (gc *GainControl) Measurements() uint64 {
	return gc.measurements
}
