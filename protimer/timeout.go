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

package protimer

import (
	"math"

	"github.com/openthread/ot-radiocore/logger"
)

// TimeoutConfig is the configuration of one timeout counter.
type TimeoutConfig struct {
	Source        CounterSource
	SyncSource    CounterSource
	Mode          TimeoutMode
	CounterTop    uint32
	PreCounterTop uint32
	Compare       uint32
	PreCompare    uint32
	MatchEnabled  bool
}

// timeoutCounter is a down-counter with its own pre-counter. It underflows after
// (counter+1)*(preCounterTop+1) source ticks from a (re)load.
type timeoutCounter struct {
	cfg           TimeoutConfig
	counter       uint32
	preCounter    uint32
	running       bool
	synchronizing bool
}

func (t *timeoutCounter) load(counter uint32) {
	t.counter = counter
	t.preCounter = t.cfg.PreCounterTop
}

func (t *timeoutCounter) start() {
	t.load(t.cfg.CounterTop)
	if t.cfg.SyncSource != SourceDisabled {
		t.synchronizing = true
		t.running = false
	} else {
		t.running = true
		t.synchronizing = false
	}
}

func (t *timeoutCounter) stop() {
	t.running = false
	t.synchronizing = false
}

func (t *timeoutCounter) busy() bool {
	return t.running || t.synchronizing
}

// overflowLimit returns how many pre-counter overflows may be batched without skipping a step
// of this counter.
func (t *timeoutCounter) overflowLimit() uint64 {
	if t.synchronizing {
		if t.cfg.SyncSource == SourcePreCounterOverflow {
			return 1
		}
		return math.MaxUint64
	}
	if !t.running || t.cfg.Source != SourcePreCounterOverflow {
		return math.MaxUint64
	}
	if t.cfg.MatchEnabled && t.counter == t.cfg.Compare {
		return 1
	}
	return uint64(t.preCounter) + 1
}

func checkTimeoutCounter(i int) {
	logger.AssertTrue(i >= 0 && i < NumTimeoutCounters, "timeout counter out of range: %d", i)
}

// ConfigureTimeoutCounter sets the configuration of timeout counter i. It does not start or stop
// the counter.
func (p *ProtocolTimer) ConfigureTimeoutCounter(i int, cfg TimeoutConfig) {
	checkTimeoutCounter(i)
	p.flush()
	defer p.commit()
	if cfg.Source > SourceWrapCounterOverflow {
		p.log.Errorf("protimer: timeout counter %d: unsupported source %v, counter disabled", i, cfg.Source)
		cfg.Source = SourceDisabled
	}
	if cfg.SyncSource > SourceWrapCounterOverflow {
		p.log.Errorf("protimer: timeout counter %d: unsupported sync source %v, sync disabled", i, cfg.SyncSource)
		cfg.SyncSource = SourceDisabled
	}
	if cfg.Mode > TimeoutOneShot {
		p.log.Errorf("protimer: timeout counter %d: unsupported mode %d, using one-shot", i, cfg.Mode)
		cfg.Mode = TimeoutOneShot
	}
	p.timeouts[i].cfg = cfg
}

func (p *ProtocolTimer) GetTimeoutConfig(i int) TimeoutConfig {
	checkTimeoutCounter(i)
	return p.timeouts[i].cfg
}

// StartTimeoutCounter is the TOUTnSTART command.
func (p *ProtocolTimer) StartTimeoutCounter(i int) {
	checkTimeoutCounter(i)
	p.flush()
	defer p.commit()
	p.timeouts[i].start()
}

// StopTimeoutCounter is the TOUTnSTOP command.
func (p *ProtocolTimer) StopTimeoutCounter(i int) {
	checkTimeoutCounter(i)
	p.flush()
	defer p.commit()
	p.timeouts[i].stop()
	if i == 0 {
		p.onTimeoutCounter0Idle()
	}
}

// TimeoutCounter returns the flushed counter and pre-counter of timeout counter i.
func (p *ProtocolTimer) TimeoutCounter(i int) (counter, preCounter uint32) {
	checkTimeoutCounter(i)
	p.flush()
	p.commit()
	return p.timeouts[i].counter, p.timeouts[i].preCounter
}

func (p *ProtocolTimer) TimeoutCounterRunning(i int) bool {
	checkTimeoutCounter(i)
	p.flush()
	p.commit()
	return p.timeouts[i].running
}

func (p *ProtocolTimer) TimeoutCounterSynchronizing(i int) bool {
	checkTimeoutCounter(i)
	p.flush()
	p.commit()
	return p.timeouts[i].synchronizing
}

func (p *ProtocolTimer) tickTimeoutCounters(preOverflows, baseOverflows, wrapOverflows uint64) {
	ticksFrom := func(src CounterSource) uint64 {
		switch src {
		case SourcePreCounterOverflow:
			return preOverflows
		case SourceBaseCounterOverflow:
			return baseOverflows
		case SourceWrapCounterOverflow:
			return wrapOverflows
		default:
			return 0
		}
	}
	for i := range p.timeouts {
		t := &p.timeouts[i]
		if t.synchronizing {
			if ticksFrom(t.cfg.SyncSource) > 0 {
				t.synchronizing = false
				t.running = true
			}
			continue
		}
		for n := ticksFrom(t.cfg.Source); n > 0 && t.running; n-- {
			p.stepTimeoutCounter(i)
		}
	}
}

func (p *ProtocolTimer) stepTimeoutCounter(i int) {
	t := &p.timeouts[i]
	if t.preCounter > 0 {
		t.preCounter--
	} else {
		t.preCounter = t.cfg.PreCounterTop
		if t.counter == 0 {
			p.timeoutUnderflow(i)
			return
		}
		t.counter--
	}
	if t.cfg.MatchEnabled && t.counter == t.cfg.Compare && t.preCounter == t.cfg.PreCompare {
		p.setInterrupt(IntTimeoutMatch0 + uint(i))
		p.triggerEvent(timeoutMatchEvent(i))
	}
}

func (p *ProtocolTimer) timeoutUnderflow(i int) {
	t := &p.timeouts[i]
	lbtOwned := i == 0 && p.lbt.state != LbtIdle
	if t.cfg.Mode == TimeoutOneShot || lbtOwned {
		t.running = false
	} else {
		t.counter = t.cfg.CounterTop
	}
	p.setInterrupt(IntTimeoutUnderflow0 + uint(i))
	p.triggerEvent(timeoutUnderflowEvent(i))
	if i != 0 {
		return
	}
	if lbtOwned {
		p.onLbtTimeout()
	} else if !t.busy() {
		p.onTimeoutCounter0Idle()
	}
}
