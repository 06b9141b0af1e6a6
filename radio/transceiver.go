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

// Package radio assembles one simulated transceiver: the radio state machine, the protocol timer,
// gain control, frame controller and interrupt registers, all behind a single lock.
package radio

import (
	"sync"

	"github.com/pkg/errors"

	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/agc"
	"github.com/openthread/ot-radiocore/frc"
	"github.com/openthread/ot-radiocore/interference"
	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/modem"
	"github.com/openthread/ot-radiocore/prng"
	"github.com/openthread/ot-radiocore/protimer"
	"github.com/openthread/ot-radiocore/rac"
	"github.com/openthread/ot-radiocore/vtime"
)

const csmaBackoffPeriodUs = 320

// Transceiver is safe for concurrent use. Register accesses, timer callbacks and frame deliveries
// from the medium are serialized by one mutex.
type Transceiver struct {
	mu      sync.Mutex
	id      NodeId
	cfg     Config
	clock   *vtime.Clock
	medium  *interference.Medium
	metrics *Metrics
	log     *logger.NodeLogger

	irq   *interrupts.Aggregator
	modem *modem.Timing
	fc    *frc.FrameController
	gc    *agc.GainControl
	pt    *protimer.ProtocolTimer
	rac   *rac.Rac

	lineChanges   uint64
	stateSince    uint64
	stateObserver func(state RadioState, timestamp uint64)
}

// lockedClock hands out timers whose callbacks run under the transceiver lock.
type lockedClock struct {
	t *Transceiver
}

func (c lockedClock) NewTimer(name string, frequency uint64, onLimitReached func()) *vtime.OneShotTimer {
	t := c.t
	return t.clock.NewTimer(name, frequency, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		onLimitReached()
		t.irq.Recompute()
	})
}

func (c lockedClock) Now() uint64 {
	return c.t.clock.Now()
}

// protimerHost connects the protocol timer to the state machine and gain control.
type protimerHost struct {
	t *Transceiver
}

func (h protimerHost) ProtimerTxRequest() {
	h.t.rac.Evaluate(SignalProtimerTxEnable)
}

func (h protimerHost) ProtimerRxEnable(enabled bool) {
	if enabled {
		h.t.rac.Evaluate(SignalProtimerRxEnable)
	} else {
		h.t.rac.Evaluate(SignalProtimerRxDisable)
	}
}

func (h protimerHost) StartCcaMeasurement() bool {
	return h.t.gc.StartRssiMeasurement(true)
}

type rssiSource struct {
	t *Transceiver
}

func (s rssiSource) CurrentRssi() DbValue {
	return s.t.medium.GetCurrentRssi(s.t.id, s.t.rac.Phy(), s.t.rac.Channel())
}

// NewTransceiver creates a transceiver and attaches it to medium at pos. metrics may be nil.
func NewTransceiver(id NodeId, cfg Config, clock *vtime.Clock, medium *interference.Medium, pos interference.Position,
	metrics *Metrics, log *logger.NodeLogger) (*Transceiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Transceiver{
		id:      id,
		cfg:     cfg,
		clock:   clock,
		medium:  medium,
		metrics: metrics,
		log:     log,
		modem:   modem.NewTiming(cfg.Modem),
	}
	timers := lockedClock{t}
	t.irq = interrupts.NewAggregator(t.onInterruptLine)
	t.fc = frc.NewFrameController(t.irq, log)
	t.fc.SetRxCapacity(cfg.RxCapacity)
	t.gc = agc.NewGainControl(cfg.Agc, timers, rssiSource{t}, t.irq, log)
	t.pt = protimer.New(cfg.Protimer, timers, t.irq, protimerHost{t}, prng.NewNodeRandom(cfg.RandomSeed), log)
	t.rac = rac.New(id, cfg.Rac, timers, t.fc, medium, t.modem, t.pt, t.gc, t.irq, log)

	t.rac.SetPhy(cfg.Phy)
	t.rac.SetChannel(cfg.Channel)
	t.rac.SetTxPower(cfg.TxPowerDbm)
	t.gc.OnMeasurementDone = func(busy bool, fromLbt bool) {
		if fromLbt {
			t.pt.OnCcaCompleted(busy)
		}
	}
	t.pt.OnEvent = func(e protimer.Event) {
		t.metrics.onProtimerEvent(id, e)
	}
	t.stateSince = clock.Now()
	t.rac.OnStateChange = func(prev, next RadioState) {
		now := t.clock.Now()
		t.metrics.onStateEntry(id, next)
		t.metrics.onStateResidency(id, prev, now-t.stateSince)
		t.stateSince = now
		if t.stateObserver != nil {
			t.stateObserver(next, now)
		}
	}

	t.mu.Lock()
	t.rac.Evaluate(SignalNone)
	t.mu.Unlock()

	medium.Attach(id, t, pos)
	log.Debugf("radio: transceiver %d created on channel %d", id, cfg.Channel)
	return t, nil
}

// SetStateObserver sets f to be called with every RAC state entry and its virtual time. f runs
// inside the critical section and must not call back into the transceiver.
func (t *Transceiver) SetStateObserver(f func(state RadioState, timestamp uint64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stateObserver = f
}

func (t *Transceiver) Id() NodeId {
	return t.id
}

func (t *Transceiver) Config() Config {
	return t.cfg
}

// Close detaches the transceiver from the medium, ending any transmission in flight.
func (t *Transceiver) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rac.ForceState(RadioOff)
	t.pt.Stop()
	t.medium.Detach(t.id)
}

func (t *Transceiver) onInterruptLine(line interrupts.Line, level bool) {
	t.lineChanges++
	t.metrics.onInterruptLine(t.id, line, level)
	t.log.Tracef("radio: irq %v -> %v", line, level)
}

// ReceiveFrame is called by the medium.
func (t *Transceiver) ReceiveFrame(frame []byte, sender NodeId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rac.ReceiveFrame(frame, sender)
	t.irq.Recompute()
}

// InterferenceChanged is called by the medium.
func (t *Transceiver) InterferenceChanged() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gc.InterferenceChanged()
}

// Signal feeds a signal into the state machine, like a write of the RAC command register.
func (t *Transceiver) Signal(sig StateMachineSignal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rac.Evaluate(sig)
}

// ForceState is a write of the force-state register.
func (t *Transceiver) ForceState(state RadioState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rac.ForceState(state)
}

func (t *Transceiver) SetRxEnableSource(src rac.RxEnableSource, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rac.SetRxEnableSource(src, on)
}

func (t *Transceiver) SetChannel(ch ChannelId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rac.SetChannel(ch)
}

func (t *Transceiver) SetTxPower(dbm DbValue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rac.SetTxPower(dbm)
}

func (t *Transceiver) State() RadioState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rac.State()
}

// QueueTxFrame writes a frame to the transmit buffer.
func (t *Transceiver) QueueTxFrame(frame []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fc.QueueTxFrame(frame)
}

// ReadRxFrame pops a frame from the receive buffer.
func (t *Transceiver) ReadRxFrame() (frc.RxFrame, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fc.ReadRxFrame()
}

// WithRac runs f on the state machine under the lock.
func (t *Transceiver) WithRac(f func(r *rac.Rac)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f(t.rac)
	t.irq.Recompute()
}

// WithProtimer runs f on the protocol timer under the lock.
func (t *Transceiver) WithProtimer(f func(p *protimer.ProtocolTimer)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f(t.pt)
	t.irq.Recompute()
}

// StartCsmaCa transmits the queued frame after a successful CSMA-CA. Timeout counter 0 counts
// 802.15.4 backoff periods of 320 us, and the TX request latch fires on LBT success. The
// receiver must be in RxSearch so that the channel assessments can sample the medium.
func (t *Transceiver) StartCsmaCa(cfg protimer.LbtConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rac.State() != RadioRxSearch {
		return errors.Errorf("radio: CSMA-CA needs the receiver in RxSearch, state is %s", t.rac.State())
	}
	if t.fc.PendingTxFrames() == 0 {
		return errors.Errorf("radio: no frame queued for transmission")
	}
	cyclesPerUs := t.pt.ClockHz() / 1000000
	if cyclesPerUs == 0 {
		return errors.Errorf("radio: protimer clock %d Hz too slow for CSMA-CA", t.pt.ClockHz())
	}

	t.pt.ConfigureTimeoutCounter(0, protimer.TimeoutConfig{
		Source:        protimer.SourcePreCounterOverflow,
		Mode:          protimer.TimeoutOneShot,
		PreCounterTop: csmaBackoffPeriodUs - 1,
	})
	t.pt.ConfigureListenBeforeTalk(cfg)
	if !t.pt.Running() {
		t.pt.SetPreCounterTop(uint32(cyclesPerUs-1), 0)
		t.pt.SetPreCounterSource(protimer.PreCounterClock)
		t.pt.Start()
	}
	t.pt.SetTxRequestEvents(protimer.EventAlways, protimer.EventListenBeforeTalkSuccess)
	t.pt.ListenBeforeTalkStart()
	t.irq.Recompute()
	return nil
}

// ProtimerNow returns the flushed counter values.
func (t *Transceiver) ProtimerNow() protimer.Timestamp {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pt.Now()
}

func (t *Transceiver) Rssi() DbValue {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gc.Rssi()
}

// InterruptFlags reads the IF register of a block.
func (t *Transceiver) InterruptFlags(b interrupts.Block, ctx interrupts.Context) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.irq.Flags(b, ctx)
}

// ClearInterruptFlags is a write of the IF_CLR register of a block.
func (t *Transceiver) ClearInterruptFlags(b interrupts.Block, ctx interrupts.Context, mask uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.irq.WriteFlagsClear(b, ctx, mask)
}

// SetInterruptEnable is a write of the IEN register of a block.
func (t *Transceiver) SetInterruptEnable(b interrupts.Block, ctx interrupts.Context, mask uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.irq.SetEnable(b, ctx, mask)
}

func (t *Transceiver) InterruptLine(b interrupts.Block, ctx interrupts.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.irq.Level(b, ctx)
}

// Status is a snapshot of the transceiver for display.
type Status struct {
	Id              NodeId
	State           RadioState
	History         [3]RadioState
	TxState         InternalTxState
	RxState         InternalRxState
	Channel         ChannelId
	TxPowerDbm      DbValue
	TxEnable        bool
	RxEnable        bool
	Rssi            DbValue
	ProtimerRunning bool
	Protimer        protimer.Timestamp
	LbtState        protimer.LbtState
	TxPending       int
	RxStored        int
	Rac             rac.Stats
	Frc             frc.Stats
}

func (t *Transceiver) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Id:              t.id,
		State:           t.rac.State(),
		History:         t.rac.History(),
		TxState:         t.rac.TxState(),
		RxState:         t.rac.RxState(),
		Channel:         t.rac.Channel(),
		TxPowerDbm:      t.rac.TxPower(),
		TxEnable:        t.rac.TxEnable(),
		RxEnable:        t.rac.RxEnable(),
		Rssi:            t.gc.Rssi(),
		ProtimerRunning: t.pt.Running(),
		Protimer:        t.pt.Now(),
		LbtState:        t.pt.LbtState(),
		TxPending:       t.fc.PendingTxFrames(),
		RxStored:        t.fc.RxFrameCount(),
		Rac:             t.rac.Stats(),
		Frc:             t.fc.Stats(),
	}
}
