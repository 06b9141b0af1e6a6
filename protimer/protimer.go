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

// Package protimer implements the protocol timer: the pre/base/wrap counter hierarchy clocked by
// the HF clock, capture/compare channels, timeout counters, the event graph driving the TX/RX
// request latches and the listen-before-talk (CSMA-CA) sub-machine.
//
// Counting is lazy. The timer never ticks the counters one by one; it arms a single one-shot
// timer for the number of pre-counter overflows until the next edge anything cares about, and
// flushes the elapsed overflows in one batch when that timer fires or when a value is read.
package protimer

import (
	"math"
	"math/rand"

	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/vtime"
)

const (
	DefaultClockHz        = 38400000
	DefaultBaseCounterTop = 0xFFFF
	DefaultWrapCounterTop = 0xFFFFFFFF
	MaxPreCounterTop      = 0xFFFF

	maxBatchOverflows = 1 << 24
)

// Host is the part of the radio the protocol timer drives.
type Host interface {
	// ProtimerTxRequest is called when the TX request latch reaches Set.
	ProtimerTxRequest()
	// ProtimerRxEnable is called when the RX request latch asserts or releases the
	// PROTIMER-driven RX enable.
	ProtimerRxEnable(enabled bool)
	// StartCcaMeasurement asks for a CCA measurement on behalf of LBT. It returns false if the
	// radio is not receiving. The result is delivered through OnCcaCompleted.
	StartCcaMeasurement() bool
}

// InterruptSink receives the PROTIMER interrupt flags.
type InterruptSink interface {
	SetBoth(b interrupts.Block, bit uint)
	Recompute()
}

type Config struct {
	ClockHz uint64    `yaml:"clock_hz"`
	Lbt     LbtConfig `yaml:"lbt"`
}

func DefaultConfig() Config {
	return Config{
		ClockHz: DefaultClockHz,
		Lbt:     DefaultLbtConfig(),
	}
}

// Timestamp is a flushed snapshot of the counter hierarchy.
type Timestamp struct {
	Pre  uint32
	Base uint32
	Wrap uint32
}

type ProtocolTimer struct {
	cfg   Config
	host  Host
	irq   InterruptSink
	log   *logger.NodeLogger
	rnd   *rand.Rand
	timer *vtime.OneShotTimer

	// OnEvent, if set, observes every event passing through the event graph.
	OnEvent func(e Event)

	enabled           bool
	preCounterSource  PreCounterSource
	baseCounterSource CounterSource
	wrapCounterSource CounterSource
	preCounterTop     uint32
	baseCounterTop    uint32
	wrapCounterTop    uint32

	// preCounter is the pre-counter value as of consumedTicks HF clock cycles after the timer
	// epoch. Between flushes the live value is derived from the elapsed time.
	preCounter    uint64
	consumedTicks uint64
	baseCounter   uint32
	wrapCounter   uint32
	flushing      bool

	channels [NumCaptureCompareChannels]captureCompareChannel
	timeouts [NumTimeoutCounters]timeoutCounter

	txRequest requestLatch
	rxRequest requestLatch
	rxEnable  bool

	lbt listenBeforeTalk
}

// New creates a stopped protocol timer. The internal timer is created from timers and runs at
// 1 GHz so that the HF clock phase is never lost across flushes.
func New(cfg Config, timers vtime.TimerFactory, irq InterruptSink, host Host, rnd *rand.Rand, log *logger.NodeLogger) *ProtocolTimer {
	logger.AssertTrue(cfg.ClockHz > 0 && cfg.ClockHz <= 1000000000, "invalid protimer clock: %d", cfg.ClockHz)
	p := &ProtocolTimer{
		cfg:            cfg,
		host:           host,
		irq:            irq,
		log:            log,
		rnd:            rnd,
		baseCounterTop: DefaultBaseCounterTop,
		wrapCounterTop: DefaultWrapCounterTop,
		rxRequest:      requestLatch{isRx: true},
	}
	p.timer = timers.NewTimer("protimer", 1000000000, p.onTimer)
	p.lbt.cfg = cfg.Lbt
	return p
}

func (p *ProtocolTimer) ClockHz() uint64 {
	return p.cfg.ClockHz
}

func (p *ProtocolTimer) onTimer() {
	p.flush()
	p.commit()
}

func (p *ProtocolTimer) period() uint64 {
	return uint64(p.preCounterTop) + 1
}

func (p *ProtocolTimer) isCounting() bool {
	return p.enabled && p.preCounterSource == PreCounterClock
}

// restartEpoch restarts the HF clock phase at the current time.
func (p *ProtocolTimer) restartEpoch() {
	p.timer.SetEnabled(false)
	p.timer.SetLimit(math.MaxUint64)
	p.timer.SetValue(0)
	p.consumedTicks = 0
}

// flush folds the pre-counter overflows elapsed since the last flush into the counters, firing
// all side effects. Nested calls made from those side effects are no-ops.
func (p *ProtocolTimer) flush() {
	if p.flushing || !p.isCounting() {
		return
	}
	p.flushing = true
	defer func() {
		p.flushing = false
	}()

	p.timer.SetEnabled(false)
	now := vtime.NsToTicks(p.timer.Value(), p.cfg.ClockHz)
	if now <= p.consumedTicks {
		return
	}
	total := p.preCounter + (now - p.consumedTicks)
	p.consumedTicks = now
	period := p.period()
	p.preCounter = total % period
	if n := total / period; n > 0 {
		p.handlePreCounterOverflows(n)
	}
}

// commit re-arms the batch timer for the next interesting edge and updates interrupt lines.
func (p *ProtocolTimer) commit() {
	if p.flushing {
		return
	}
	p.arm()
	p.irq.Recompute()
}

func (p *ProtocolTimer) arm() {
	if !p.isCounting() {
		p.timer.SetEnabled(false)
		return
	}
	limit := p.overflowLimit()
	ticks := p.consumedTicks + limit*p.period() - p.preCounter
	p.timer.SetEnabled(false)
	p.timer.SetLimit(vtime.TicksToNsCeil(ticks, p.cfg.ClockHz))
	p.timer.SetEnabled(true)
}

// overflowLimit returns the number of pre-counter overflows until the next edge that has a
// visible effect: a counter overflow, a compare match or a timeout counter step.
func (p *ProtocolTimer) overflowLimit() uint64 {
	limit := uint64(maxBatchOverflows)
	atMost := func(d uint64) {
		if d < limit {
			limit = d
		}
	}

	if p.baseCounterSource == SourcePreCounterOverflow {
		atMost(uint64(p.baseCounterTop - p.baseCounter))
		for i := range p.channels {
			if ch := &p.channels[i]; ch.comparesBase() {
				atMost(distanceToMatch(p.baseCounter, ch.base, p.baseCounterTop))
			}
		}
	}
	if p.wrapCounterSource == SourcePreCounterOverflow {
		atMost(uint64(p.wrapCounterTop - p.wrapCounter))
		for i := range p.channels {
			if ch := &p.channels[i]; ch.comparesWrapOnly() {
				atMost(distanceToMatch(p.wrapCounter, ch.wrap, p.wrapCounterTop))
			}
		}
	}
	for i := range p.timeouts {
		atMost(p.timeouts[i].overflowLimit())
	}
	if p.txRequest.waitsFor(EventPreCounterOverflow) || p.rxRequest.waitsFor(EventPreCounterOverflow) {
		atMost(1)
	}
	if limit == 0 {
		limit = 1
	}
	return limit
}

// distanceToMatch returns the number of increments of a counter modulo top until it next equals
// target, or math.MaxUint64 if target is out of range.
func distanceToMatch(value, target, top uint32) uint64 {
	if target >= top {
		return math.MaxUint64
	}
	d := (uint64(target) + uint64(top) - uint64(value)) % uint64(top)
	if d == 0 {
		d = uint64(top)
	}
	return d
}

func (p *ProtocolTimer) handlePreCounterOverflows(n uint64) {
	p.setInterrupt(IntPreCounterOverflow)
	p.triggerEvent(EventPreCounterOverflow)

	var baseTicks, wrapTicks uint64
	if p.baseCounterSource == SourcePreCounterOverflow {
		baseTicks = n
	}
	baseOverflows, baseVisited := p.advanceBaseCounter(baseTicks)

	switch p.wrapCounterSource {
	case SourcePreCounterOverflow:
		wrapTicks = n
	case SourceBaseCounterOverflow:
		wrapTicks = baseOverflows
	}
	wrapOverflows, wrapVisited := p.advanceWrapCounter(wrapTicks)

	if baseOverflows > 0 {
		p.setInterrupt(IntBaseCounterOverflow)
		p.triggerEvent(EventBaseCounterOverflow)
	}
	if wrapOverflows > 0 {
		p.setInterrupt(IntWrapCounterOverflow)
		p.triggerEvent(EventWrapCounterOverflow)
	}
	p.evaluateCompares(baseVisited, wrapVisited)
	p.tickTimeoutCounters(n, baseOverflows, wrapOverflows)
}

// checkCounterWrite rejects software counter writes while the counters are advancing.
func (p *ProtocolTimer) checkCounterWrite(name string) {
	logger.AssertFalse(p.isCounting(), "protimer %s counter written while running", name)
}

// advanceBaseCounter adds ticks to the base counter, returning the overflow count and the mask
// of channels whose base compare value was passed.
func (p *ProtocolTimer) advanceBaseCounter(ticks uint64) (overflows uint64, visited uint32) {
	if ticks == 0 {
		return 0, 0
	}
	for i := range p.channels {
		if ch := &p.channels[i]; ch.comparesBase() && distanceToMatch(p.baseCounter, ch.base, p.baseCounterTop) <= ticks {
			visited |= 1 << uint(i)
		}
	}
	total := uint64(p.baseCounter) + ticks
	p.baseCounter = uint32(total % uint64(p.baseCounterTop))
	logger.AssertTrue(p.baseCounter < p.baseCounterTop)
	return total / uint64(p.baseCounterTop), visited
}

func (p *ProtocolTimer) advanceWrapCounter(ticks uint64) (overflows uint64, visited uint32) {
	if ticks == 0 {
		return 0, 0
	}
	for i := range p.channels {
		if ch := &p.channels[i]; ch.comparesWrapOnly() && distanceToMatch(p.wrapCounter, ch.wrap, p.wrapCounterTop) <= ticks {
			visited |= 1 << uint(i)
		}
	}
	total := uint64(p.wrapCounter) + ticks
	p.wrapCounter = uint32(total % uint64(p.wrapCounterTop))
	logger.AssertTrue(p.wrapCounter < p.wrapCounterTop)
	return total / uint64(p.wrapCounterTop), visited
}

func (p *ProtocolTimer) setInterrupt(bit uint) {
	p.irq.SetBoth(interrupts.BlockProtimer, bit)
}

// Start is the START command.
func (p *ProtocolTimer) Start() {
	if p.enabled {
		return
	}
	p.enabled = true
	p.restartEpoch()
	p.log.Debugf("protimer started")
	p.commit()
}

// Stop is the STOP command: the counters freeze and LBT returns to Idle.
func (p *ProtocolTimer) Stop() {
	if !p.enabled {
		return
	}
	p.flush()
	p.enabled = false
	p.timer.SetEnabled(false)
	if p.lbt.state != LbtIdle {
		p.timeouts[0].stop()
	}
	p.lbt.reset()
	p.log.Debugf("protimer stopped")
	p.commit()
}

// Reset is the RESET command: counters return to 0, timeout counters stop, captures are
// invalidated and LBT returns to Idle.
func (p *ProtocolTimer) Reset() {
	p.flush()
	p.timer.SetEnabled(false)
	p.preCounter = 0
	p.baseCounter = 0
	p.wrapCounter = 0
	for i := range p.timeouts {
		p.timeouts[i].stop()
	}
	for i := range p.channels {
		p.channels[i].captureValid = false
	}
	p.lbt.reset()
	p.txRequest.state = RequestIdle
	p.rxRequest.state = RequestIdle
	if p.rxEnable {
		p.setRxEnable(false)
	}
	if p.isCounting() {
		p.restartEpoch()
	}
	p.commit()
}

func (p *ProtocolTimer) Running() bool {
	return p.enabled
}

func (p *ProtocolTimer) SetPreCounterSource(src PreCounterSource) {
	p.flush()
	defer p.commit()
	if src > PreCounterClock {
		p.log.Errorf("protimer: unsupported pre-counter source %d, counting disabled", src)
		src = PreCounterDisabled
	}
	wasCounting := p.isCounting()
	p.preCounterSource = src
	if !wasCounting && p.isCounting() {
		p.restartEpoch()
	}
}

func (p *ProtocolTimer) SetBaseCounterSource(src CounterSource) {
	p.flush()
	defer p.commit()
	if src != SourceDisabled && src != SourcePreCounterOverflow {
		p.log.Errorf("protimer: unsupported base counter source %v, base counter disabled", src)
		src = SourceDisabled
	}
	p.baseCounterSource = src
}

func (p *ProtocolTimer) SetWrapCounterSource(src CounterSource) {
	p.flush()
	defer p.commit()
	if src > SourceBaseCounterOverflow {
		p.log.Errorf("protimer: unsupported wrap counter source %v, wrap counter disabled", src)
		src = SourceDisabled
	}
	p.wrapCounterSource = src
}

// SetPreCounterTop sets the integer part of the pre-counter top. A fractional part is accepted by
// the hardware register but not modeled.
func (p *ProtocolTimer) SetPreCounterTop(top uint32, fraction uint8) {
	p.flush()
	defer p.commit()
	if top > MaxPreCounterTop {
		p.log.Errorf("protimer: pre-counter top %d out of range, clamped", top)
		top = MaxPreCounterTop
	}
	if fraction != 0 {
		p.log.Warnf("protimer: pre-counter top fraction %d ignored", fraction)
	}
	p.preCounterTop = top
	p.preCounter %= p.period()
}

// SetBaseCounterTop sets the base counter modulus. If the counter is at or above the new top, it
// restarts from 0.
func (p *ProtocolTimer) SetBaseCounterTop(top uint32) {
	p.flush()
	defer p.commit()
	if top == 0 {
		p.log.Errorf("protimer: base counter top 0 rejected")
		return
	}
	p.timer.SetEnabled(false)
	p.baseCounterTop = top
	if p.baseCounter >= top {
		p.baseCounter = 0
	}
}

func (p *ProtocolTimer) SetWrapCounterTop(top uint32) {
	p.flush()
	defer p.commit()
	if top == 0 {
		p.log.Errorf("protimer: wrap counter top 0 rejected")
		return
	}
	p.timer.SetEnabled(false)
	p.wrapCounterTop = top
	if p.wrapCounter >= top {
		p.wrapCounter = 0
	}
}

func (p *ProtocolTimer) PreCounterTop() uint32 {
	return p.preCounterTop
}

func (p *ProtocolTimer) BaseCounterTop() uint32 {
	return p.baseCounterTop
}

func (p *ProtocolTimer) WrapCounterTop() uint32 {
	return p.wrapCounterTop
}

// PreCounter returns the flushed pre-counter value.
func (p *ProtocolTimer) PreCounter() uint32 {
	p.flush()
	p.commit()
	return uint32(p.preCounter)
}

// BaseCounter returns the flushed base counter value.
func (p *ProtocolTimer) BaseCounter() uint32 {
	p.flush()
	p.commit()
	return p.baseCounter
}

// WrapCounter returns the flushed wrap counter value.
func (p *ProtocolTimer) WrapCounter() uint32 {
	p.flush()
	p.commit()
	return p.wrapCounter
}

// Now returns a flushed snapshot of all three counters.
func (p *ProtocolTimer) Now() Timestamp {
	p.flush()
	p.commit()
	return Timestamp{Pre: uint32(p.preCounter), Base: p.baseCounter, Wrap: p.wrapCounter}
}

// SetBaseCounter writes the base counter. PROTIMER must be stopped, and values outside
// [0, top) are a caller error.
func (p *ProtocolTimer) SetBaseCounter(v uint32) {
	p.checkCounterWrite("base")
	logger.AssertTrue(v < p.baseCounterTop, "base counter %d out of range [0, %d)", v, p.baseCounterTop)
	p.baseCounter = v
	p.commit()
}

// SetWrapCounter writes the wrap counter. PROTIMER must be stopped, and values outside
// [0, top) are a caller error.
func (p *ProtocolTimer) SetWrapCounter(v uint32) {
	p.checkCounterWrite("wrap")
	logger.AssertTrue(v < p.wrapCounterTop, "wrap counter %d out of range [0, %d)", v, p.wrapCounterTop)
	p.wrapCounter = v
	p.commit()
}

// RxEnable returns the PROTIMER-driven RX enable bit.
func (p *ProtocolTimer) RxEnable() bool {
	return p.rxEnable
}

func (p *ProtocolTimer) setRxEnable(enabled bool) {
	if p.rxEnable == enabled {
		return
	}
	p.rxEnable = enabled
	p.host.ProtimerRxEnable(enabled)
}
