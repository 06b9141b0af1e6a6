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

// requestLatch is a two-edge latch advanced by configured events. The TX latch stops in Set; the
// RX latch continues through ClearEvent1 back to Idle, releasing the RX enable.
type requestLatch struct {
	state       RequestState
	setEvent1   Event
	setEvent2   Event
	clearEvent1 Event
	clearEvent2 Event
	isRx        bool
}

func eventMatches(cfg Event, e Event) bool {
	return cfg == EventAlways || (cfg != EventDisabled && cfg == e)
}

// handle advances the latch by e. A stage configured as Always is passed in the same call as the
// stage before it; e itself only ever satisfies one stage.
func (l *requestLatch) handle(e Event) (set, cleared bool) {
	for {
		switch l.state {
		case RequestIdle:
			if !eventMatches(l.setEvent1, e) {
				return
			}
			l.state = RequestSetEvent1
		case RequestSetEvent1:
			if !eventMatches(l.setEvent2, e) {
				return
			}
			l.state = RequestSet
			set = true
			if !l.isRx {
				return
			}
		case RequestSet:
			if !l.isRx || !eventMatches(l.clearEvent1, e) {
				return
			}
			l.state = RequestClearEvent1
		case RequestClearEvent1:
			if !eventMatches(l.clearEvent2, e) {
				return
			}
			l.state = RequestIdle
			cleared = true
			return
		}
		// only Always-configured stages cascade
		e = EventDisabled
	}
}

// waitsFor returns whether the next stage of the latch waits for e.
func (l *requestLatch) waitsFor(e Event) bool {
	switch l.state {
	case RequestIdle:
		return l.setEvent1 == e
	case RequestSetEvent1:
		return l.setEvent2 == e
	case RequestSet:
		return l.isRx && l.clearEvent1 == e
	case RequestClearEvent1:
		return l.clearEvent2 == e
	}
	return false
}

func (p *ProtocolTimer) checkEvent(e Event) Event {
	if int(e) >= NumEvents {
		p.log.Errorf("protimer: unsupported trigger event %d, disabled", e)
		return EventDisabled
	}
	return e
}

// SetTxRequestEvents configures the TX request latch and returns it to Idle.
func (p *ProtocolTimer) SetTxRequestEvents(set1, set2 Event) {
	p.flush()
	defer p.commit()
	p.txRequest.setEvent1 = p.checkEvent(set1)
	p.txRequest.setEvent2 = p.checkEvent(set2)
	p.txRequest.state = RequestIdle
	if set, _ := p.txRequest.handle(EventAlways); set {
		p.host.ProtimerTxRequest()
	}
}

// SetRxRequestEvents configures the RX request latch and returns it to Idle, releasing the
// PROTIMER RX enable.
func (p *ProtocolTimer) SetRxRequestEvents(set1, set2, clear1, clear2 Event) {
	p.flush()
	defer p.commit()
	p.rxRequest.setEvent1 = p.checkEvent(set1)
	p.rxRequest.setEvent2 = p.checkEvent(set2)
	p.rxRequest.clearEvent1 = p.checkEvent(clear1)
	p.rxRequest.clearEvent2 = p.checkEvent(clear2)
	p.rxRequest.state = RequestIdle
	p.setRxEnable(false)
	p.applyRxRequest(p.rxRequest.handle(EventAlways))
}

func (p *ProtocolTimer) TxRequestState() RequestState {
	return p.txRequest.state
}

func (p *ProtocolTimer) RxRequestState() RequestState {
	return p.rxRequest.state
}

func (p *ProtocolTimer) applyRxRequest(set, cleared bool) {
	if set {
		p.setRxEnable(true)
	}
	if cleared {
		p.setRxEnable(false)
	}
}

// TriggerEvent delivers an external event (TxDone, RxDone, SyncWordDetected, Prs, ...) to the
// event graph. TxDone and RxDone are followed by TxOrRxDone.
func (p *ProtocolTimer) TriggerEvent(e Event) {
	p.flush()
	defer p.commit()
	p.triggerEvent(e)
	if e == EventTxDone || e == EventRxDone {
		p.triggerEvent(EventTxOrRxDone)
	}
}

func (p *ProtocolTimer) triggerEvent(e Event) {
	if e == EventTimeoutCounter0Match && p.lbt.state != LbtIdle {
		e = EventListenBeforeTalkTimeoutCounterMatch
	}
	if p.OnEvent != nil {
		p.OnEvent(e)
	}

	switch e {
	case EventTxDone:
		p.captureOn(CaptureTxDone)
	case EventRxDone:
		p.captureOn(CaptureRxDone)
	case EventTxOrRxDone:
		p.captureOn(CaptureTxOrRxDone)
	case EventSyncWordDetected:
		p.captureOn(CaptureSyncWordDetected)
	case EventPrs:
		p.captureOn(CapturePrs)
	}

	if set, _ := p.txRequest.handle(e); set {
		p.host.ProtimerTxRequest()
	}
	p.applyRxRequest(p.rxRequest.handle(e))
}
