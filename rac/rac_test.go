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

package rac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/frc"
	"github.com/openthread/ot-radiocore/interference"
	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/modem"
	"github.com/openthread/ot-radiocore/protimer"
	"github.com/openthread/ot-radiocore/vtime"
)

type testProtimer struct {
	clock   *vtime.Clock
	events  []protimer.Event
	times   []uint64
	entries []RadioState
}

func (p *testProtimer) TriggerEvent(e protimer.Event) {
	p.events = append(p.events, e)
	p.times = append(p.times, p.clock.Now())
}

func (p *testProtimer) OnRadioStateEntry(state RadioState) {
	p.entries = append(p.entries, state)
}

func (p *testProtimer) eventTime(e protimer.Event) (uint64, bool) {
	for i, ev := range p.events {
		if ev == e {
			return p.times[i], true
		}
	}
	return 0, false
}

type testGainControl struct {
	sampling     bool
	enabledCount int
}

func (g *testGainControl) SetRssiSamplingEnabled(enabled bool) {
	if enabled && !g.sampling {
		g.enabledCount++
	}
	g.sampling = enabled
}

type testNode struct {
	r      *Rac
	fc     *frc.FrameController
	irq    *interrupts.Aggregator
	pt     *testProtimer
	gc     *testGainControl
	states []RadioState
}

func (n *testNode) ReceiveFrame(frame []byte, sender NodeId) {
	n.r.ReceiveFrame(frame, sender)
}

func (n *testNode) InterferenceChanged() {
}

func (n *testNode) count(s RadioState) int {
	c := 0
	for _, st := range n.states {
		if st == s {
			c++
		}
	}
	return c
}

func (n *testNode) cpuFlag(bit uint) bool {
	return n.irq.IsSet(interrupts.BlockRac, interrupts.ContextCpu, bit)
}

func (n *testNode) clearFlags() {
	for b := interrupts.Block(0); b < interrupts.NumBlocks; b++ {
		n.irq.WriteFlagsClear(b, interrupts.ContextCpu, ^uint64(0))
		n.irq.WriteFlagsClear(b, interrupts.ContextSequencer, ^uint64(0))
	}
}

type testBench struct {
	clock  *vtime.Clock
	medium *interference.Medium
	bb     *modem.Timing
}

func newTestBench() *testBench {
	clock := vtime.NewClock()
	return &testBench{
		clock:  clock,
		medium: interference.NewMedium(clock, interference.DefaultModelParams()),
		bb:     modem.NewTiming(modem.DefaultConfig()),
	}
}

// newNode creates a radio in Off.
func (tb *testBench) newNode(id NodeId) *testNode {
	n := &testNode{
		irq: interrupts.NewAggregator(nil),
		pt:  &testProtimer{clock: tb.clock},
		gc:  &testGainControl{},
	}
	log := logger.GetNodeLogger("", id)
	n.fc = frc.NewFrameController(n.irq, log)
	n.r = New(id, DefaultTiming(), tb.clock, n.fc, tb.medium, tb.bb, n.pt, n.gc, n.irq, log)
	tb.medium.Attach(id, n, interference.Position{X: float64(id)})
	n.r.Evaluate(SignalNone)
	n.r.OnStateChange = func(prev, next RadioState) {
		n.states = append(n.states, next)
	}
	return n
}

func (tb *testBench) runUntil(us uint64) {
	tb.clock.RunUntil(vtime.UsToNs(us))
}

func (tb *testBench) runFor(us uint64) {
	tb.clock.RunFor(vtime.UsToNs(us))
}

// txStartUs is when a radio enabled for TX in Off starts transmitting.
func txStartUs(t Timing) uint64 {
	warm := t.TxWarmUs
	if t.SynthSettleUs > warm {
		warm = t.SynthSettleUs
	}
	return warm + t.PaRampUs
}

func TestPowerOnResetGoesOff(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	assert.Equal(t, RadioOff, n.r.State())
	assert.Equal(t, RadioPowerOnReset, n.r.History()[0])
}

func TestTxFromOffWithoutRxSideEffects(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.fc.QueueTxFrame([]byte{1, 2, 3})

	n.r.Evaluate(SignalTxEnable)
	assert.Equal(t, RadioTxWarm, n.r.State())

	start := txStartUs(n.r.Timing())
	tb.runUntil(start - 1)
	assert.Equal(t, RadioTxWarm, n.r.State())
	tb.runUntil(start)
	assert.Equal(t, RadioTx, n.r.State())
	assert.False(t, n.r.TxEnable())
	assert.Equal(t, InternalTxTx, n.r.TxState())
	assert.Equal(t, []NodeId{1}, tb.medium.Transmitters())

	assert.Equal(t, []RadioState{RadioTxWarm, RadioTx}, n.states)
	assert.Equal(t, 0, n.gc.enabledCount)
	assert.Equal(t, InternalRxIdle, n.r.RxState())
	assert.Equal(t, 0, n.fc.PendingTxFrames())

	air := tb.bb.FrameAirTimeUs([]byte{1, 2, 3})
	tb.runUntil(start + air + n.r.Timing().TxWrapUpUs)
	assert.Equal(t, []RadioState{RadioTxWarm, RadioTx, RadioTxWrapUp, RadioOff}, n.states)
	assert.Empty(t, tb.medium.Transmitters())
	assert.True(t, n.cpuFlag(IntTxDone))
	assert.Equal(t, uint64(1), n.r.Stats().FramesTransmitted)
	txDone, ok := n.pt.eventTime(protimer.EventTxDone)
	assert.True(t, ok)
	assert.Equal(t, vtime.UsToNs(start+air), txDone)
}

func TestEvaluateNoneIsIdempotent(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.clearFlags()
	raised := n.irq.RaisedCount()

	n.r.Evaluate(SignalNone)
	assert.Empty(t, n.states)
	assert.Equal(t, raised, n.irq.RaisedCount())

	n.r.SetRxEnableSource(RxEnableSoftware0, true)
	tb.runFor(200)
	assert.Equal(t, RadioRxSearch, n.r.State())
	n.clearFlags()
	entries := len(n.states)
	raised = n.irq.RaisedCount()

	n.r.Evaluate(SignalNone)
	n.r.Evaluate(SignalNone)
	assert.Len(t, n.states, entries)
	assert.Equal(t, raised, n.irq.RaisedCount())
	assert.Zero(t, n.irq.Flags(interrupts.BlockRac, interrupts.ContextCpu))
	assert.Zero(t, n.irq.Flags(interrupts.BlockRac, interrupts.ContextSequencer))
}

func TestStateEntryInterrupts(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.clearFlags()
	n.r.Evaluate(SignalRxEnable)
	assert.Equal(t, RadioRxWarm, n.r.State())
	assert.True(t, n.cpuFlag(IntStateChange))
	assert.True(t, n.irq.IsSet(interrupts.BlockRac, interrupts.ContextSequencer, IntSequencerStateEntry0+uint(RadioRxWarm)))
	assert.Equal(t, RadioRxWarm, n.pt.entries[len(n.pt.entries)-1])
}

func TestRxWarmWaitsForSynthesizer(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	timing := n.r.Timing()
	timing.SynthSettleUs = 150
	n.r.SetTiming(timing)

	n.r.Evaluate(SignalRxEnable)
	tb.runUntil(timing.RxWarmUs)
	assert.Equal(t, RadioRxWarm, n.r.State())
	tb.runUntil(150)
	assert.Equal(t, RadioRxSearch, n.r.State())
	assert.True(t, n.gc.sampling)
}

func TestForceStateCancelsTx(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.fc.QueueTxFrame([]byte{1, 2, 3, 4})
	n.r.Evaluate(SignalTxEnable)
	tb.runFor(txStartUs(n.r.Timing()) + 50)
	assert.Equal(t, RadioTx, n.r.State())

	n.r.ForceState(RadioRxSearch)
	assert.Equal(t, RadioRxSearch, n.r.State())
	assert.Equal(t, InternalTxIdle, n.r.TxState())
	assert.Empty(t, tb.medium.Transmitters())
	assert.Equal(t, uint64(1), n.r.Stats().FramesAborted)

	// the transmission never completes
	tb.runFor(2000)
	_, ok := n.pt.eventTime(protimer.EventTxDone)
	assert.False(t, ok)
	assert.False(t, n.cpuFlag(IntTxDone))
}

func TestForceStateCancelsRx(t *testing.T) {
	tb := newTestBench()
	a := tb.newNode(1)
	b := tb.newNode(2)
	b.r.Evaluate(SignalRxEnable)
	a.fc.QueueTxFrame(make([]byte, 20))
	a.r.Evaluate(SignalTxEnable)

	start := txStartUs(a.r.Timing())
	tb.runUntil(start + tb.bb.PreambleAndSyncUs() + 10)
	assert.Equal(t, RadioRxFrame, b.r.State())
	assert.Equal(t, InternalRxFrame, b.r.RxState())

	b.r.ForceState(RadioOff)
	assert.Equal(t, RadioOff, b.r.State())
	assert.Equal(t, InternalRxIdle, b.r.RxState())

	tb.runFor(2000)
	assert.Equal(t, 0, b.fc.RxFrameCount())
	_, ok := b.pt.eventTime(protimer.EventRxDone)
	assert.False(t, ok)
}

func TestForceStateWinsOverEverything(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.SetForceDisable(true)
	n.r.Evaluate(SignalForceTx)
	assert.Equal(t, RadioOff, n.r.State())

	n.r.ForceState(RadioRxWarm)
	assert.Equal(t, RadioRxWarm, n.r.State())
	n.r.Evaluate(SignalNone)
	assert.Equal(t, RadioShutdown, n.r.State())
}

func TestRxFrameExitNeedsBothCompletions(t *testing.T) {
	for _, order := range [][2]StateMachineSignal{
		{SignalRxFrameExit, SignalFrameRxDone},
		{SignalFrameRxDone, SignalRxFrameExit},
	} {
		tb := newTestBench()
		n := tb.newNode(1)
		n.r.Evaluate(SignalRxEnable)
		tb.runFor(200)
		n.r.Evaluate(SignalFrameDetected)
		assert.Equal(t, RadioRxFrame, n.r.State())

		n.r.Evaluate(order[0])
		assert.Equal(t, RadioRxFrame, n.r.State())
		n.r.Evaluate(order[0])
		assert.Equal(t, RadioRxFrame, n.r.State())

		n.r.Evaluate(order[1])
		assert.Equal(t, RadioRxWrapUp, n.r.State())
		n.r.Evaluate(order[1])
		assert.Equal(t, 1, n.count(RadioRxWrapUp))

		tb.runFor(n.r.Timing().RxWrapUpUs)
		assert.Equal(t, RadioRxSearch, n.r.State())
		assert.Equal(t, 1, n.count(RadioRxWrapUp))
	}
}

func TestOverTheAirDuration(t *testing.T) {
	tb := newTestBench()
	a := tb.newNode(1)
	b := tb.newNode(2)
	frame := []byte{0x41, 0x88, 0x01, 0xcd, 0xab, 0xff, 0xff, 0x02, 0x00}
	b.r.Evaluate(SignalRxEnable)
	a.fc.QueueTxFrame(frame)
	a.r.Evaluate(SignalTxEnable)

	tb.runFor(3000)
	txStart := vtime.UsToNs(txStartUs(a.r.Timing()))
	air := vtime.UsToNs(tb.bb.FrameAirTimeUs(frame))

	sync, ok := b.pt.eventTime(protimer.EventSyncWordDetected)
	assert.True(t, ok)
	assert.Equal(t, txStart+vtime.UsToNs(tb.bb.PreambleAndSyncUs()), sync)
	rxDone, ok := b.pt.eventTime(protimer.EventRxDone)
	assert.True(t, ok)
	assert.Equal(t, txStart+air, rxDone)

	rx, ok := b.fc.ReadRxFrame()
	assert.True(t, ok)
	assert.Equal(t, frame, rx.Data)
	assert.False(t, rx.CrcError)
	assert.True(t, b.cpuFlag(IntRxDone))
	assert.Equal(t, RadioRxSearch, b.r.State())
	assert.Equal(t, []RadioState{RadioRxWarm, RadioRxSearch, RadioRxFrame, RadioRxWrapUp, RadioRxSearch}, b.states)
}

func TestRxDoneDelay(t *testing.T) {
	tb := newTestBench()
	cfg := modem.DefaultConfig()
	cfg.RxDoneDelayUs = 20
	tb.bb.SetConfig(cfg)
	a := tb.newNode(1)
	b := tb.newNode(2)
	b.r.Evaluate(SignalRxEnable)
	a.fc.QueueTxFrame([]byte{1, 2})
	a.r.Evaluate(SignalTxEnable)

	end := txStartUs(a.r.Timing()) + tb.bb.FrameAirTimeUs([]byte{1, 2})
	tb.runUntil(end + 19)
	assert.Equal(t, RadioRxFrame, b.r.State())
	tb.runUntil(end + 20)
	assert.Equal(t, RadioRxWrapUp, b.r.State())
}

func TestCollisionCorruptsFrame(t *testing.T) {
	tb := newTestBench()
	a := tb.newNode(1)
	b := tb.newNode(2)
	c := tb.newNode(3)
	b.r.Evaluate(SignalRxEnable)
	a.fc.QueueTxFrame(make([]byte, 30))
	a.r.Evaluate(SignalTxEnable)
	tb.runFor(50)
	c.fc.QueueTxFrame([]byte{9})
	c.r.Evaluate(SignalTxEnable)

	tb.runFor(3000)
	assert.Equal(t, 1, b.fc.RxFrameCount())
	rx, _ := b.fc.ReadRxFrame()
	assert.Equal(t, 30, len(rx.Data))
	assert.True(t, rx.CrcError)
	assert.Equal(t, uint64(1), b.r.Stats().FramesCollided)
}

func TestFrameDroppedWhenNotListening(t *testing.T) {
	tb := newTestBench()
	a := tb.newNode(1)
	b := tb.newNode(2)
	a.fc.QueueTxFrame([]byte{1})
	a.r.Evaluate(SignalTxEnable)
	tb.runFor(1000)
	assert.Equal(t, uint64(1), b.r.Stats().FramesNotListening)
	assert.Equal(t, 0, b.fc.RxFrameCount())
}

func TestFrameOnOtherChannelIgnored(t *testing.T) {
	tb := newTestBench()
	a := tb.newNode(1)
	b := tb.newNode(2)
	b.r.SetChannel(15)
	b.r.Evaluate(SignalRxEnable)
	a.fc.QueueTxFrame([]byte{1})
	a.r.Evaluate(SignalTxEnable)
	tb.runFor(1000)
	assert.Equal(t, 0, b.fc.RxFrameCount())
	assert.Equal(t, RadioRxSearch, b.r.State())
}

func TestSenderAbortBeforeSyncWord(t *testing.T) {
	tb := newTestBench()
	a := tb.newNode(1)
	b := tb.newNode(2)
	b.r.Evaluate(SignalRxEnable)
	a.fc.QueueTxFrame(make([]byte, 10))
	a.r.Evaluate(SignalTxEnable)

	start := txStartUs(a.r.Timing())
	tb.runUntil(start + 20)
	assert.Equal(t, InternalRxPreambleAndSyncWord, b.r.RxState())
	a.r.ForceState(RadioOff)

	tb.runFor(2000)
	assert.Equal(t, RadioRxSearch, b.r.State())
	assert.Equal(t, InternalRxIdle, b.r.RxState())
	assert.Equal(t, 0, b.fc.RxFrameCount())
	assert.Zero(t, b.count(RadioRxFrame))
}

func TestRxOverflow(t *testing.T) {
	tb := newTestBench()
	a := tb.newNode(1)
	b := tb.newNode(2)
	b.fc.SetRxCapacity(1)
	assert.True(t, b.fc.DisassembleFrame([]byte{0}, false))
	b.r.Evaluate(SignalRxEnable)
	a.fc.QueueTxFrame([]byte{1})
	a.r.Evaluate(SignalTxEnable)
	tb.runFor(1000)

	assert.True(t, b.r.RxOverflow())
	assert.True(t, b.cpuFlag(IntRxOverflow))
	b.r.Evaluate(SignalClearRxOverflow)
	assert.False(t, b.r.RxOverflow())
}

func TestTransmitWhileTransmittingPanics(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.Evaluate(SignalTxEnable)
	tb.runFor(txStartUs(n.r.Timing()))
	assert.Equal(t, RadioTx, n.r.State())
	assert.Panics(t, func() {
		n.r.TransmitFrame([]byte{1})
	})
}

func TestTxDisableAbortsTx(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.Evaluate(SignalTxEnable)
	tb.runFor(txStartUs(n.r.Timing()) + 10)
	n.r.Evaluate(SignalTxDisable)
	assert.Equal(t, RadioTxWrapUp, n.r.State())
	assert.Equal(t, uint64(1), n.r.Stats().FramesAborted)
	tb.runFor(1000)
	assert.Equal(t, RadioOff, n.r.State())
	assert.False(t, n.cpuFlag(IntTxDone))
}

func TestTxDisableDuringWarmUp(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.Evaluate(SignalTxEnable)
	tb.runFor(20)
	n.r.Evaluate(SignalTxDisable)
	assert.Equal(t, RadioTxWarm, n.r.State())
	tb.runFor(1000)
	assert.Equal(t, []RadioState{RadioTxWarm, RadioTxWrapUp, RadioOff}, n.states)
	assert.Zero(t, tb.medium.FramesAdded())
}

func TestTxWrapUpToRxSearch(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.SetRxEnableSource(RxEnableSoftware3, true)
	assert.Equal(t, RadioRxWarm, n.r.State())
	n.r.Evaluate(SignalTxEnable)
	tb.runFor(2000)
	assert.Equal(t, []RadioState{RadioRxWarm, RadioRxSearch, RadioRxWrapUp, RadioTx, RadioTxWrapUp, RadioRxSearch}, n.states)
}

func TestTxWrapUpMismatchDetoursThroughRxWrapUp(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.SetTxNextState(RadioTx)
	n.r.Evaluate(SignalTxEnable)
	tb.runFor(txStartUs(n.r.Timing()))
	assert.Equal(t, RadioTx, n.r.State())
	n.r.Evaluate(SignalRxEnable)

	tb.runFor(2000)
	assert.Equal(t, []RadioState{RadioTxWarm, RadioTx, RadioTxWrapUp, RadioRxWrapUp, RadioRxSearch}, n.states)
}

func TestRxWrapUpWaitsForEnables(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.SetRxNextState(RadioTx)
	n.r.Evaluate(SignalRxEnable)
	tb.runFor(200)
	n.r.Evaluate(SignalFrameDetected)
	n.r.Evaluate(SignalRxFrameExit)
	n.r.Evaluate(SignalFrameRxDone)
	tb.runFor(100)
	assert.Equal(t, RadioRxWrapUp, n.r.State())

	n.r.Evaluate(SignalTxEnable)
	assert.Equal(t, RadioTx, n.r.State())
}

func TestInvalidNextStateIgnored(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.SetTxNextState(RadioOff)
	n.r.SetRxNextState(RadioShutdown)
	assert.Equal(t, RadioRxSearch, n.r.TxNextState())
	assert.Equal(t, RadioRxSearch, n.r.RxNextState())
	n.r.SetTxNextState(RadioTx)
	assert.Equal(t, RadioTx, n.r.TxNextState())
}

func TestResetGoesThroughShutdown(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.Evaluate(SignalRxEnable)
	tb.runFor(200)
	n.r.Evaluate(SignalReset)
	assert.Equal(t, RadioShutdown, n.r.State())
	assert.False(t, n.r.RxEnable())
	tb.runFor(n.r.Timing().ShutdownUs)
	assert.Equal(t, RadioOff, n.r.State())
}

func TestExitShutdownDisable(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.SetExitShutdownDisable(true)
	n.r.Evaluate(SignalReset)
	tb.runFor(100)
	assert.Equal(t, RadioShutdown, n.r.State())
	n.r.SetExitShutdownDisable(false)
	assert.Equal(t, RadioOff, n.r.State())
}

func TestSequencerLatches(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.SetSequencerEnabled(true)
	n.r.Evaluate(SignalReset)
	tb.runFor(100)
	assert.Equal(t, RadioShutdown, n.r.State())

	n.r.Evaluate(SignalSequencerAck)
	assert.Equal(t, RadioShutdown, n.r.State())
	n.r.Evaluate(SignalSequencerEndAck)
	assert.Equal(t, RadioOff, n.r.State())

	n.r.Evaluate(SignalRxEnable)
	assert.Equal(t, RadioOff, n.r.State())
	n.r.Evaluate(SignalSequencerAck)
	assert.Equal(t, RadioRxWarm, n.r.State())
}

func TestForceDisable(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.Evaluate(SignalRxEnable)
	tb.runFor(200)
	n.r.SetForceDisable(true)
	assert.Equal(t, RadioShutdown, n.r.State())
	tb.runFor(100)
	assert.Equal(t, RadioOff, n.r.State())
	assert.True(t, n.r.RxEnable())

	n.r.SetForceDisable(false)
	assert.Equal(t, RadioRxWarm, n.r.State())
}

func TestForceTx(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.Evaluate(SignalRxEnable)
	tb.runFor(200)
	n.r.Evaluate(SignalForceTx)
	assert.Equal(t, RadioTx, n.r.State())

	n.r.Evaluate(SignalForceTx)
	assert.Equal(t, RadioTxWrapUp, n.r.State())
	assert.Equal(t, uint64(1), n.r.Stats().FramesAborted)
	tb.runFor(n.r.Timing().TxWrapUpUs)
	assert.Equal(t, RadioTx, n.r.State())
	assert.Equal(t, 2, n.count(RadioTx))
}

func TestRxCalibration(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.Evaluate(SignalRxEnable)
	tb.runFor(200)
	n.r.Evaluate(SignalRxCalibration)
	assert.Equal(t, RadioRxWarm, n.r.State())
	assert.False(t, n.gc.sampling)
	tb.runFor(200)
	assert.Equal(t, RadioRxSearch, n.r.State())
}

func TestRxEnableSources(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.Evaluate(SignalProtimerRxEnable)
	assert.Equal(t, RxEnableProtimer, n.r.RxEnableSources())
	n.r.SetRxEnableSource(RxEnableSoftware5, true)
	n.r.Evaluate(SignalProtimerRxDisable)
	assert.True(t, n.r.RxEnable())
	n.r.SetRxEnableSource(RxEnableSoftware5, false)
	assert.False(t, n.r.RxEnable())
}

func TestHistory(t *testing.T) {
	tb := newTestBench()
	n := tb.newNode(1)
	n.r.Evaluate(SignalRxEnable)
	tb.runFor(200)
	assert.Equal(t, [3]RadioState{RadioRxWarm, RadioOff, RadioPowerOnReset}, n.r.History())
}
