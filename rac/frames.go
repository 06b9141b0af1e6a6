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
	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/protimer"
	"github.com/openthread/ot-radiocore/vtime"
)

// TransmitFrame puts frame on the medium. The transmitter is done TxDoneDelay before the end of
// the frame on air.
func (r *Rac) TransmitFrame(frame []byte) {
	logger.AssertTrue(r.txState == InternalTxIdle, "rac: transmit while already transmitting")
	r.txState = InternalTxTx
	r.bus.Add(r.id, r.phy, r.channel, r.txPowerDb, frame)

	air := r.bb.FrameAirTimeUs(frame)
	doneDelay := r.bb.TxDoneDelayUs()
	if doneDelay > air {
		doneDelay = air
	}
	r.txTimer.Restart(vtime.UsToNs(air - doneDelay))
	r.log.Debugf("rac: tx %d bytes on channel %d, %d us on air", len(frame), r.channel, air)
}

func (r *Rac) onTxTimer() {
	if r.txState != InternalTxTx {
		return
	}
	r.txState = InternalTxIdle
	r.bus.Remove(r.id)
	r.stats.FramesTransmitted++
	r.irq.Set(interrupts.BlockRac, interrupts.ContextCpu, IntTxDone)
	r.pt.TriggerEvent(protimer.EventTxDone)
	r.Evaluate(SignalFrameTxDone)
}

// abortTransmission takes a transmission in flight off the medium without a TX done.
func (r *Rac) abortTransmission() {
	if r.txState == InternalTxIdle {
		return
	}
	r.txTimer.SetEnabled(false)
	r.txState = InternalTxIdle
	r.bus.Remove(r.id)
	r.stats.FramesAborted++
	r.log.Debugf("rac: tx aborted")
}

// ReceiveFrame is called when a transmission of sender reaches this radio. A frame arriving while
// another is being received corrupts the one in progress; the new one is lost.
func (r *Rac) ReceiveFrame(frame []byte, sender NodeId) {
	tx, ok := r.bus.GetTransmission(sender)
	if !ok {
		r.stats.FramesDropped++
		return
	}
	if tx.Phy != r.phy || tx.Channel != r.channel {
		return
	}
	if r.rxState != InternalRxIdle {
		r.rxCollided = true
		r.stats.FramesCollided++
		r.log.Debugf("rac: frame from %d collides with frame from %d", sender, r.rxSender)
		return
	}
	if r.state != RadioRxSearch {
		r.stats.FramesNotListening++
		return
	}

	r.rxState = InternalRxPreambleAndSyncWord
	r.rxFrame = frame
	r.rxSender = sender
	r.rxStart = tx.StartTime
	r.rxCollided = false
	r.rxSources |= RxEnableTimingDetected | RxEnablePreambleDetected

	elapsed := r.clock.Now() - tx.StartTime
	syncAt := vtime.UsToNs(r.bb.PreambleAndSyncUs())
	if elapsed >= syncAt {
		r.onSyncWordDetected()
		return
	}
	r.rxTimer.Restart(syncAt - elapsed)
}

func (r *Rac) onRxTimer() {
	switch r.rxState {
	case InternalRxPreambleAndSyncWord:
		r.onSyncWordDetected()
	case InternalRxFrame:
		r.onFrameEnd()
	}
}

func (r *Rac) onSyncWordDetected() {
	start, ok := r.bus.GetTxStartTime(r.rxSender)
	if !ok || start != r.rxStart {
		r.log.Debugf("rac: transmission of %d ended before sync word", r.rxSender)
		r.cancelReception()
		r.Evaluate(SignalNone)
		return
	}
	r.rxState = InternalRxFrame
	r.rxSources |= RxEnableFrameDetected
	r.pt.TriggerEvent(protimer.EventSyncWordDetected)
	r.Evaluate(SignalFrameDetected)
	if r.rxState != InternalRxFrame {
		// cancelled by the transition
		return
	}

	end := r.rxStart + vtime.UsToNs(r.bb.FrameAirTimeUs(r.rxFrame))
	now := r.clock.Now()
	if end <= now {
		r.onFrameEnd()
		return
	}
	r.rxTimer.Restart(end - now)
}

func (r *Rac) onFrameEnd() {
	frame, collided := r.rxFrame, r.rxCollided
	r.rxState = InternalRxIdle
	r.rxFrame = nil
	r.rxSources &^= RxEnableTimingDetected | RxEnablePreambleDetected | RxEnableFrameDetected
	r.Evaluate(SignalRxFrameExit)

	if !r.fa.DisassembleFrame(frame, collided) {
		r.rxOverflow = true
		r.irq.Set(interrupts.BlockRac, interrupts.ContextCpu, IntRxOverflow)
	}
	r.stats.FramesReceived++
	r.irq.Set(interrupts.BlockRac, interrupts.ContextCpu, IntRxDone)
	r.pt.TriggerEvent(protimer.EventRxDone)

	if delay := r.bb.RxDoneDelayUs(); delay > 0 {
		r.rxDoneTimer.Restart(delay)
		return
	}
	r.Evaluate(SignalFrameRxDone)
}

// cancelReception drops the frame being received.
func (r *Rac) cancelReception() {
	r.rxTimer.SetEnabled(false)
	r.rxState = InternalRxIdle
	r.rxFrame = nil
	r.rxSources &^= RxEnableTimingDetected | RxEnablePreambleDetected | RxEnableFrameDetected
	r.stats.ReceptionsCancelled++
}
