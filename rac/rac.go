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

// Package rac implements the radio state machine: the nine radio states plus PowerOnReset, the
// priority-ordered arbitration of state machine signals, and the transmit and receive timing of
// frames.
package rac

import (
	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/interference"
	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/protimer"
	"github.com/openthread/ot-radiocore/vtime"
)

const (
	historyDepth                = 3
	maxTransitionsPerEvaluation = 16
)

// RAC interrupt flag bits in the CPU context.
const (
	IntStateChange uint = 0
	IntRxOverflow  uint = 1
	IntTxDone      uint = 2
	IntRxDone      uint = 3
)

// IntSequencerStateEntry0 + state is the sequencer context flag raised on entry of state.
const IntSequencerStateEntry0 uint = 0

// RxEnableSource is a bit of the RX enable: the radio wants to receive while any bit is set.
type RxEnableSource uint16

const (
	RxEnableSoftware0 RxEnableSource = 1 << iota
	RxEnableSoftware1
	RxEnableSoftware2
	RxEnableSoftware3
	RxEnableSoftware4
	RxEnableSoftware5
	RxEnableSoftware6
	RxEnableSoftware7
	RxEnableChannelBusy
	RxEnableTimingDetected
	RxEnablePreambleDetected
	RxEnableFrameDetected
	RxEnableDemodRxRequest
	RxEnablePrs
	RxEnableProtimer

	RxEnableSoftwareMask RxEnableSource = 0xff
)

// FrameAssembler builds the frames to transmit and stores the frames received.
type FrameAssembler interface {
	AssembleFrame() []byte
	// DisassembleFrame returns false if the frame could not be stored.
	DisassembleFrame(frame []byte, forceCrcError bool) bool
}

// InterferenceBus is the shared medium.
type InterferenceBus interface {
	Add(sender NodeId, phy PhyType, channel ChannelId, powerDbm DbValue, frame []byte)
	Remove(sender NodeId)
	GetTxStartTime(sender NodeId) (uint64, bool)
	GetTransmission(sender NodeId) (interference.Transmission, bool)
}

// BasebandTiming converts frames and modem settings to durations.
type BasebandTiming interface {
	PreambleAndSyncUs() uint64
	FrameAirTimeUs(frame []byte) uint64
	TxDoneDelayUs() uint64
	RxDoneDelayUs() uint64
}

// Protimer is the part of the protocol timer the state machine notifies.
type Protimer interface {
	TriggerEvent(e protimer.Event)
	OnRadioStateEntry(state RadioState)
}

// GainControl follows the receiving states.
type GainControl interface {
	SetRssiSamplingEnabled(enabled bool)
}

type InterruptSink interface {
	Set(b interrupts.Block, ctx interrupts.Context, bit uint)
	Recompute()
}

// Clock creates the state machine timers and tells the current time in ns.
type Clock interface {
	vtime.TimerFactory
	Now() uint64
}

// Timing holds the durations of the timed states.
type Timing struct {
	TxWarmUs      uint64 `yaml:"tx_warm_us"`
	RxWarmUs      uint64 `yaml:"rx_warm_us"`
	TxWrapUpUs    uint64 `yaml:"tx_wrap_up_us"`
	RxWrapUpUs    uint64 `yaml:"rx_wrap_up_us"`
	ShutdownUs    uint64 `yaml:"shutdown_us"`
	PaRampUs      uint64 `yaml:"pa_ramp_us"`
	SynthSettleUs uint64 `yaml:"synth_settle_us"`
}

func DefaultTiming() Timing {
	return Timing{
		TxWarmUs:      100,
		RxWarmUs:      100,
		TxWrapUpUs:    10,
		RxWrapUpUs:    10,
		ShutdownUs:    5,
		PaRampUs:      10,
		SynthSettleUs: 60,
	}
}

type Stats struct {
	FramesTransmitted   uint64
	FramesAborted       uint64
	FramesReceived      uint64
	FramesCollided      uint64
	FramesDropped       uint64
	FramesNotListening  uint64
	ReceptionsCancelled uint64
}

type Rac struct {
	id     NodeId
	timing Timing
	clock  Clock
	fa     FrameAssembler
	bus    InterferenceBus
	bb     BasebandTiming
	pt     Protimer
	gc     GainControl
	irq    InterruptSink
	log    *logger.NodeLogger

	// OnStateChange, if set, is called after every state entry.
	OnStateChange func(prev, next RadioState)

	state   RadioState
	history [historyDepth]RadioState

	evaluating bool

	// commands and levels
	resetPending        bool
	forcePending        bool
	forceTarget         RadioState
	forceDisable        bool
	forceTxPending      bool
	forceTxAfterWrapUp  bool
	txEnable            bool
	txDisablePending    bool
	rxSources           RxEnableSource
	rxCalPending        bool
	exitShutdownDisable bool
	sequencerEnabled    bool
	txNextState         RadioState
	rxNextState         RadioState

	// latches
	exitLatch     bool
	seqEntryLatch bool
	seqEndLatch   bool
	warmPending   bool
	synthPending  bool
	paRampPending bool

	// completion notifications
	frameDetectedPending bool
	txDonePending        bool
	frameExitPending     bool
	rxDonePending        bool
	rxOverflow           bool

	phy       PhyType
	channel   ChannelId
	txPowerDb DbValue

	txState    InternalTxState
	rxState    InternalRxState
	rxFrame    []byte
	rxSender   NodeId
	rxStart    uint64
	rxCollided bool

	stateTimer       *vtime.OneShotTimer
	stateTimerSignal StateMachineSignal
	synthTimer       *vtime.OneShotTimer
	paRampTimer      *vtime.OneShotTimer
	txTimer          *vtime.OneShotTimer
	rxTimer          *vtime.OneShotTimer
	rxDoneTimer      *vtime.OneShotTimer

	stats Stats
}

// New creates a state machine in PowerOnReset. The first evaluation moves it to Off.
func New(id NodeId, timing Timing, clock Clock, fa FrameAssembler, bus InterferenceBus, bb BasebandTiming,
	pt Protimer, gc GainControl, irq InterruptSink, log *logger.NodeLogger) *Rac {
	r := &Rac{
		id:          id,
		timing:      timing,
		clock:       clock,
		fa:          fa,
		bus:         bus,
		bb:          bb,
		pt:          pt,
		gc:          gc,
		irq:         irq,
		log:         log,
		state:       RadioPowerOnReset,
		txNextState: RadioRxSearch,
		rxNextState: RadioRxSearch,
		phy:         PhyIeee802154,
		channel:     11,
	}
	for i := range r.history {
		r.history[i] = RadioPowerOnReset
	}
	r.stateTimer = clock.NewTimer("rac-state", 1000000, r.onStateTimer)
	r.synthTimer = clock.NewTimer("rac-synth", 1000000, func() { r.Evaluate(SignalSynthCalibrationDone) })
	r.paRampTimer = clock.NewTimer("rac-paramp", 1000000, func() { r.Evaluate(SignalPaRampDone) })
	r.txTimer = clock.NewTimer("rac-tx", 1000000000, r.onTxTimer)
	r.rxTimer = clock.NewTimer("rac-rx", 1000000000, r.onRxTimer)
	r.rxDoneTimer = clock.NewTimer("rac-rxdone", 1000000, func() { r.Evaluate(SignalFrameRxDone) })
	return r
}

func (r *Rac) State() RadioState {
	return r.state
}

// History returns the last previous states, newest first.
func (r *Rac) History() [historyDepth]RadioState {
	return r.history
}

func (r *Rac) TxState() InternalTxState {
	return r.txState
}

func (r *Rac) RxState() InternalRxState {
	return r.rxState
}

func (r *Rac) Stats() Stats {
	return r.stats
}

func (r *Rac) Timing() Timing {
	return r.timing
}

func (r *Rac) SetTiming(t Timing) {
	r.timing = t
}

func (r *Rac) SetPhy(phy PhyType) {
	r.phy = phy
}

func (r *Rac) Phy() PhyType {
	return r.phy
}

func (r *Rac) SetChannel(ch ChannelId) {
	logger.AssertTrue(ch >= MinChannelNumber && ch <= MaxChannelNumber)
	r.channel = ch
}

func (r *Rac) Channel() ChannelId {
	return r.channel
}

func (r *Rac) SetTxPower(dbm DbValue) {
	r.txPowerDb = dbm
}

func (r *Rac) TxPower() DbValue {
	return r.txPowerDb
}

func (r *Rac) TxEnable() bool {
	return r.txEnable
}

// RxEnable returns the OR of all RX enable sources.
func (r *Rac) RxEnable() bool {
	return r.rxSources != 0
}

func (r *Rac) RxEnableSources() RxEnableSource {
	return r.rxSources
}

func (r *Rac) RxOverflow() bool {
	return r.rxOverflow
}

func (r *Rac) ForceDisable() bool {
	return r.forceDisable
}

func (r *Rac) SequencerEnabled() bool {
	return r.sequencerEnabled
}

// SetSequencerEnabled selects whether state entries wait for a sequencer acknowledge.
func (r *Rac) SetSequencerEnabled(enabled bool) {
	r.sequencerEnabled = enabled
	if !enabled {
		r.seqEntryLatch = false
		r.seqEndLatch = false
	}
	r.Evaluate(SignalNone)
}

// SetExitShutdownDisable holds the radio in Shutdown while set.
func (r *Rac) SetExitShutdownDisable(disable bool) {
	r.exitShutdownDisable = disable
	r.Evaluate(SignalNone)
}

// SetForceDisable sets the force-disable level.
func (r *Rac) SetForceDisable(disable bool) {
	r.forceDisable = disable
	r.Evaluate(SignalForceDisable)
}

// ForceState forces a transition to target, cancelling any transmission or reception.
func (r *Rac) ForceState(target RadioState) {
	logger.AssertTrue(target < NumRadioStates, "invalid radio state %d", target)
	r.forceTarget = target
	r.Evaluate(SignalForceStateTransition)
}

// SetRxEnableSource sets or clears one or more RX enable sources.
func (r *Rac) SetRxEnableSource(src RxEnableSource, on bool) {
	if on {
		r.rxSources |= src
	} else {
		r.rxSources &^= src
	}
	r.Evaluate(SignalNone)
}

func isNextStateValid(s RadioState) bool {
	return s == RadioTx || s == RadioRxSearch
}

// SetTxNextState sets the state expected after TX wrap-up: Tx or RxSearch.
func (r *Rac) SetTxNextState(s RadioState) {
	if !isNextStateValid(s) {
		r.log.Errorf("rac: unsupported next state after tx: %v", s)
		return
	}
	r.txNextState = s
}

// SetRxNextState sets the state expected after RX wrap-up: Tx or RxSearch.
func (r *Rac) SetRxNextState(s RadioState) {
	if !isNextStateValid(s) {
		r.log.Errorf("rac: unsupported next state after rx: %v", s)
		return
	}
	r.rxNextState = s
}

func (r *Rac) TxNextState() RadioState {
	return r.txNextState
}

func (r *Rac) RxNextState() RadioState {
	return r.rxNextState
}

// Evaluate consumes a signal and moves the state machine until no rule applies. Calls made while
// an evaluation is in progress only record the signal; the running evaluation picks it up.
func (r *Rac) Evaluate(sig StateMachineSignal) {
	r.applySignal(sig)
	if r.evaluating {
		return
	}
	r.evaluating = true
	for i := 0; ; i++ {
		logger.AssertTrue(i < maxTransitionsPerEvaluation, "rac: no stable state after %d transitions", i)
		next, force := r.arbitrate()
		if next == r.state && !force {
			break
		}
		r.enter(next)
		if force {
			// a forced state holds until the next evaluation
			break
		}
	}
	r.evaluating = false
	r.irq.Recompute()
}

func (r *Rac) applySignal(sig StateMachineSignal) {
	switch sig {
	case SignalNone, SignalForceDisable:
	case SignalReset:
		r.resetPending = true
	case SignalForceStateTransition:
		r.forcePending = true
	case SignalForceTx:
		r.forceTxPending = true
	case SignalTxEnable, SignalProtimerTxEnable:
		r.txEnable = true
	case SignalTxDisable:
		r.txEnable = false
		r.txDisablePending = true
	case SignalRxEnable:
		r.rxSources |= RxEnableSoftware0
	case SignalRxDisable:
		r.rxSources &^= RxEnableSoftware0
	case SignalProtimerRxEnable:
		r.rxSources |= RxEnableProtimer
	case SignalProtimerRxDisable:
		r.rxSources &^= RxEnableProtimer
	case SignalRxCalibration:
		r.rxCalPending = true
	case SignalFrameDetected:
		r.frameDetectedPending = true
	case SignalFrameTxDone:
		r.txDonePending = true
	case SignalRxFrameExit:
		r.frameExitPending = true
	case SignalFrameRxDone:
		r.rxDonePending = true
	case SignalTxWarmDone:
		if r.state == RadioTxWarm {
			r.warmPending = false
			r.checkWarmDone()
		}
	case SignalRxWarmDone:
		if r.state == RadioRxWarm {
			r.warmPending = false
			r.checkWarmDone()
		}
	case SignalSynthCalibrationDone:
		if r.state == RadioTxWarm || r.state == RadioRxWarm {
			r.synthPending = false
			r.checkWarmDone()
		}
	case SignalPaRampDone:
		if r.state == RadioTxWarm && r.paRampPending {
			r.paRampPending = false
			r.exitLatch = false
		}
	case SignalTxWrapUpDone:
		if r.state == RadioTxWrapUp {
			r.exitLatch = false
		}
	case SignalRxWrapUpDone:
		if r.state == RadioRxWrapUp {
			r.exitLatch = false
		}
	case SignalShutdownDone:
		if r.state == RadioShutdown {
			r.exitLatch = false
		}
	case SignalSequencerAck:
		r.seqEntryLatch = false
	case SignalSequencerEndAck:
		r.seqEndLatch = false
	case SignalClearRxOverflow:
		r.rxOverflow = false
	default:
		logger.Panicf("rac: invalid signal %d", sig)
	}
}

// checkWarmDone starts the PA ramp once TX warm-up and synthesizer settling are both done, and
// ends RX warm-up once both are done.
func (r *Rac) checkWarmDone() {
	if r.warmPending || r.synthPending {
		return
	}
	if r.state == RadioTxWarm {
		if !r.paRampPending && r.exitLatch {
			r.paRampPending = true
			r.paRampTimer.Restart(r.timing.PaRampUs)
		}
		return
	}
	r.exitLatch = false
}

func (r *Rac) canExit() bool {
	if r.exitLatch || r.seqEntryLatch {
		return false
	}
	return r.state != RadioShutdown || !r.seqEndLatch
}

// arbitrate returns the state the machine moves to. force is set for reset and forced
// transitions, which enter the state even if it equals the current one.
func (r *Rac) arbitrate() (next RadioState, force bool) {
	if r.resetPending {
		r.resetPending = false
		r.txEnable = false
		r.rxSources &^= RxEnableSoftwareMask
		r.forceTxPending = false
		r.forceTxAfterWrapUp = false
		r.cancelActivity()
		return RadioShutdown, true
	}
	if r.forcePending {
		r.forcePending = false
		r.forceTxPending = false
		r.forceTxAfterWrapUp = false
		r.cancelActivity()
		return r.forceTarget, true
	}
	if r.state == RadioPowerOnReset {
		return RadioOff, false
	}
	if r.forceDisable {
		r.forceTxPending = false
		switch r.state {
		case RadioOff:
			return RadioOff, false
		case RadioShutdown:
			return r.nextFromShutdown(), false
		default:
			r.cancelActivity()
			return RadioShutdown, false
		}
	}
	if r.forceTxPending {
		r.forceTxPending = false
		if r.state == RadioTx {
			r.abortTransmission()
			r.forceTxAfterWrapUp = true
			return RadioTxWrapUp, false
		}
		r.cancelActivity()
		return RadioTx, false
	}

	if !r.canExit() {
		return r.state, false
	}
	switch r.state {
	case RadioOff:
		if r.txEnable {
			return RadioTxWarm, false
		}
		if r.RxEnable() {
			return RadioRxWarm, false
		}
	case RadioTxWarm:
		if r.txEnable {
			return RadioTx, false
		}
		return RadioTxWrapUp, false
	case RadioTx:
		if r.txDonePending {
			r.txDonePending = false
			return RadioTxWrapUp, false
		}
		if r.txDisablePending {
			r.txDisablePending = false
			r.abortTransmission()
			return RadioTxWrapUp, false
		}
	case RadioTxWrapUp:
		return r.nextFromTxWrapUp(), false
	case RadioRxWarm:
		return RadioRxSearch, false
	case RadioRxSearch:
		if r.frameDetectedPending {
			r.frameDetectedPending = false
			return RadioRxFrame, false
		}
		if r.txEnable || !r.RxEnable() {
			return RadioRxWrapUp, false
		}
		if r.rxCalPending {
			r.rxCalPending = false
			return RadioRxWarm, false
		}
	case RadioRxFrame:
		if r.frameExitPending && r.rxDonePending {
			r.frameExitPending = false
			r.rxDonePending = false
			return RadioRxWrapUp, false
		}
	case RadioRxWrapUp:
		return r.nextFromRxWrapUp(), false
	case RadioShutdown:
		return r.nextFromShutdown(), false
	}
	return r.state, false
}

// nextFromTxWrapUp compares the configured next state with the live enables. A mismatch detours
// through RxWrapUp, which resolves TX first.
func (r *Rac) nextFromTxWrapUp() RadioState {
	if r.forceTxAfterWrapUp {
		r.forceTxAfterWrapUp = false
		return RadioTx
	}
	if r.txEnable {
		if r.txNextState == RadioTx {
			return RadioTx
		}
		return RadioRxWrapUp
	}
	if r.RxEnable() {
		if r.txNextState == RadioRxSearch {
			return RadioRxSearch
		}
		return RadioRxWrapUp
	}
	return RadioOff
}

// nextFromRxWrapUp turns around to TX whenever TX is enabled. With only RX enabled and Tx
// configured as next state, the radio stays in RxWrapUp until the enables change.
func (r *Rac) nextFromRxWrapUp() RadioState {
	if r.txEnable {
		return RadioTx
	}
	if r.RxEnable() {
		if r.rxNextState == RadioRxSearch {
			return RadioRxSearch
		}
		return RadioRxWrapUp
	}
	return RadioOff
}

func (r *Rac) nextFromShutdown() RadioState {
	if r.canExit() && !r.exitShutdownDisable {
		return RadioOff
	}
	return RadioShutdown
}

func (r *Rac) enter(next RadioState) {
	prev := r.state
	copy(r.history[1:], r.history[:historyDepth-1])
	r.history[0] = prev
	r.state = next

	r.stateTimer.SetEnabled(false)
	r.synthTimer.SetEnabled(false)
	r.paRampTimer.SetEnabled(false)
	r.exitLatch = false
	r.warmPending = false
	r.synthPending = false
	r.paRampPending = false
	r.seqEntryLatch = r.sequencerEnabled

	if next != RadioRxSearch && next != RadioRxFrame && r.rxState != InternalRxIdle {
		r.cancelReception()
	}

	switch next {
	case RadioTxWarm:
		r.startWarm(SignalTxWarmDone, r.timing.TxWarmUs)
	case RadioRxWarm:
		r.startWarm(SignalRxWarmDone, r.timing.RxWarmUs)
	case RadioTxWrapUp:
		r.startTimedState(SignalTxWrapUpDone, r.timing.TxWrapUpUs)
	case RadioRxWrapUp:
		r.startTimedState(SignalRxWrapUpDone, r.timing.RxWrapUpUs)
	case RadioShutdown:
		r.startTimedState(SignalShutdownDone, r.timing.ShutdownUs)
		r.seqEndLatch = r.sequencerEnabled
	case RadioRxSearch:
		r.rxCalPending = false
		if r.rxState == InternalRxIdle {
			r.frameDetectedPending = false
			r.frameExitPending = false
			r.rxDonePending = false
		}
	case RadioTx:
		r.txEnable = false
		r.txDonePending = false
		r.txDisablePending = false
		r.TransmitFrame(r.fa.AssembleFrame())
	}

	r.irq.Set(interrupts.BlockRac, interrupts.ContextCpu, IntStateChange)
	r.irq.Set(interrupts.BlockRac, interrupts.ContextSequencer, IntSequencerStateEntry0+uint(next))
	r.gc.SetRssiSamplingEnabled(next == RadioRxSearch || next == RadioRxFrame)
	r.log.Debugf("rac: %v -> %v", prev, next)
	r.pt.OnRadioStateEntry(next)
	if r.OnStateChange != nil {
		r.OnStateChange(prev, next)
	}
}

func (r *Rac) startTimedState(done StateMachineSignal, us uint64) {
	r.exitLatch = true
	r.stateTimerSignal = done
	r.stateTimer.Restart(us)
}

func (r *Rac) startWarm(done StateMachineSignal, us uint64) {
	r.startTimedState(done, us)
	r.warmPending = true
	r.synthPending = true
	r.synthTimer.Restart(r.timing.SynthSettleUs)
}

func (r *Rac) onStateTimer() {
	r.Evaluate(r.stateTimerSignal)
}

// cancelActivity stops any transmission or reception in flight.
func (r *Rac) cancelActivity() {
	r.abortTransmission()
	if r.rxState != InternalRxIdle {
		r.cancelReception()
	}
	r.rxDoneTimer.SetEnabled(false)
	r.txDonePending = false
	r.txDisablePending = false
	r.frameDetectedPending = false
	r.frameExitPending = false
	r.rxDonePending = false
}
