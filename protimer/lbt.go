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

// LbtConfig holds the CSMA-CA parameters. Backoff and CCA delay are counted in periods of timeout
// counter 0, whose source and pre-counter top must be configured by the firmware.
type LbtConfig struct {
	StartExponent uint8  `yaml:"start_exponent"`
	MaxExponent   uint8  `yaml:"max_exponent"`
	RetryLimit    uint8  `yaml:"retry_limit"`
	CcaRepeat     uint8  `yaml:"cca_repeat"`
	CcaDelay      uint32 `yaml:"cca_delay"`
}

func DefaultLbtConfig() LbtConfig {
	return LbtConfig{
		StartExponent: 3,
		MaxExponent:   5,
		RetryLimit:    4,
		CcaRepeat:     1,
		CcaDelay:      7,
	}
}

type listenBeforeTalk struct {
	cfg          LbtConfig
	state        LbtState
	exponent     uint8
	retryCounter uint8
	ccaCounter   uint8
	startPending bool
}

func (l *listenBeforeTalk) reset() {
	l.state = LbtIdle
	l.startPending = false
	l.ccaCounter = 0
}

func (p *ProtocolTimer) ConfigureListenBeforeTalk(cfg LbtConfig) {
	p.flush()
	defer p.commit()
	if cfg.MaxExponent < cfg.StartExponent {
		p.log.Warnf("protimer: lbt max exponent %d below start exponent %d", cfg.MaxExponent, cfg.StartExponent)
		cfg.MaxExponent = cfg.StartExponent
	}
	if cfg.MaxExponent > 31 {
		p.log.Errorf("protimer: lbt exponent %d out of range, clamped", cfg.MaxExponent)
		cfg.MaxExponent = 31
		if cfg.StartExponent > 31 {
			cfg.StartExponent = 31
		}
	}
	p.lbt.cfg = cfg
}

func (p *ProtocolTimer) ListenBeforeTalkConfig() LbtConfig {
	return p.lbt.cfg
}

func (p *ProtocolTimer) LbtState() LbtState {
	p.flush()
	p.commit()
	return p.lbt.state
}

func (p *ProtocolTimer) LbtRetryCounter() uint8 {
	return p.lbt.retryCounter
}

func (p *ProtocolTimer) LbtExponent() uint8 {
	return p.lbt.exponent
}

// LbtStartPending returns whether an LBT start waits for timeout counter 0 to finish.
func (p *ProtocolTimer) LbtStartPending() bool {
	return p.lbt.startPending
}

// ListenBeforeTalkStart is the LBTSTART command. If timeout counter 0 is busy the start is
// deferred until it finishes.
func (p *ProtocolTimer) ListenBeforeTalkStart() {
	p.flush()
	defer p.commit()
	if p.timeouts[0].busy() {
		p.lbt.startPending = true
		p.log.Debugf("lbt: start deferred, timeout counter 0 busy")
		return
	}
	p.startListenBeforeTalk()
}

// ListenBeforeTalkPause is the LBTPAUSE command, which is not modeled.
func (p *ProtocolTimer) ListenBeforeTalkPause() {
	p.log.Panicf("lbt: pause is not implemented")
}

// ListenBeforeTalkStop is the LBTSTOP command.
func (p *ProtocolTimer) ListenBeforeTalkStop() {
	p.flush()
	defer p.commit()
	if p.lbt.state != LbtIdle {
		p.timeouts[0].stop()
	}
	p.lbt.reset()
}

func (p *ProtocolTimer) startListenBeforeTalk() {
	l := &p.lbt
	l.startPending = false
	l.retryCounter = 0
	l.ccaCounter = 0
	l.exponent = l.cfg.StartExponent
	backoff := p.drawBackoff()
	l.state = LbtBackoff
	t := &p.timeouts[0]
	t.load(backoff)
	if t.cfg.SyncSource != SourceDisabled {
		t.synchronizing = true
		t.running = false
	} else {
		t.running = true
	}
	p.log.Debugf("lbt: started, backoff %d", backoff)
}

func (p *ProtocolTimer) drawBackoff() uint32 {
	return p.rnd.Uint32() & (uint32(1)<<p.lbt.exponent - 1)
}

func (p *ProtocolTimer) loadLbtTimeout(count uint32) {
	t := &p.timeouts[0]
	t.load(count)
	t.synchronizing = false
	t.running = true
}

// onTimeoutCounter0Idle starts a deferred LBT once timeout counter 0 is no longer busy.
func (p *ProtocolTimer) onTimeoutCounter0Idle() {
	if p.lbt.startPending && p.lbt.state == LbtIdle && !p.timeouts[0].busy() {
		p.startListenBeforeTalk()
	}
}

// onLbtTimeout handles an underflow of timeout counter 0 while LBT owns it.
func (p *ProtocolTimer) onLbtTimeout() {
	switch p.lbt.state {
	case LbtBackoff:
		p.requestCca()
	case LbtCcaDelay:
		p.lbt.ccaCounter++
		if p.lbt.ccaCounter >= p.lbt.cfg.CcaRepeat {
			p.lbt.state = LbtIdle
			p.setInterrupt(IntLbtSuccess)
			p.log.Debugf("lbt: success after %d retries", p.lbt.retryCounter)
			p.triggerEvent(EventListenBeforeTalkSuccess)
			p.triggerEvent(EventClearChannelAssessmentMeasurementCompleted)
			return
		}
		p.requestCca()
	}
}

func (p *ProtocolTimer) requestCca() {
	if !p.host.StartCcaMeasurement() {
		p.log.Debugf("lbt: radio not receiving, cca refused")
		p.lbtFailure()
		return
	}
	p.lbt.state = LbtCcaDelay
	p.loadLbtTimeout(p.lbt.cfg.CcaDelay)
}

func (p *ProtocolTimer) lbtFailure() {
	p.timeouts[0].stop()
	p.lbt.reset()
	p.setInterrupt(IntLbtFailure)
	p.log.Debugf("lbt: failure after %d retries", p.lbt.retryCounter)
	p.triggerEvent(EventListenBeforeTalkFailure)
}

// OnCcaCompleted is the CCA measurement-done callback. Only a busy result has an effect during
// LBT; a clear channel is declared when the CCA window elapses.
func (p *ProtocolTimer) OnCcaCompleted(busy bool) {
	p.flush()
	defer p.commit()
	if p.lbt.state != LbtCcaDelay || !busy {
		return
	}
	p.triggerEvent(EventClearChannelAssessmentMeasurementCompleted)
	if p.lbt.state != LbtCcaDelay {
		return
	}
	l := &p.lbt
	l.retryCounter++
	if l.retryCounter >= l.cfg.RetryLimit {
		p.lbtFailure()
		return
	}
	if l.exponent < l.cfg.MaxExponent {
		l.exponent++
	}
	l.ccaCounter = 0
	l.state = LbtBackoff
	backoff := p.drawBackoff()
	p.loadLbtTimeout(backoff)
	p.setInterrupt(IntLbtRetry)
	p.log.Debugf("lbt: channel busy, retry %d, backoff %d", l.retryCounter, backoff)
	p.triggerEvent(EventListenBeforeTalkRetry)
}
