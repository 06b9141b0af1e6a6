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
	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/logger"
)

// ChannelConfig is the configuration of one capture/compare channel.
type ChannelConfig struct {
	Enabled   bool
	Mode      CaptureCompareMode
	PreMatch  bool
	BaseMatch bool
	WrapMatch bool
	Source    CaptureSource
	// StateMask selects the radio states whose entry triggers a capture when Source is
	// CaptureRadioStateMask; bit n is RadioState n.
	StateMask uint16
}

type captureCompareChannel struct {
	cfg          ChannelConfig
	pre          uint32
	base         uint32
	wrap         uint32
	captureValid bool
}

func (ch *captureCompareChannel) comparesBase() bool {
	return ch.cfg.Enabled && ch.cfg.BaseMatch && (ch.cfg.Mode == ModeCompare || ch.cfg.Mode == ModeWrapRange)
}

func (ch *captureCompareChannel) comparesWrapOnly() bool {
	return ch.cfg.Enabled && ch.cfg.Mode == ModeCompare && ch.cfg.WrapMatch && !ch.cfg.BaseMatch
}

func (ch *captureCompareChannel) capturesOn(src CaptureSource) bool {
	return ch.cfg.Enabled && ch.cfg.Mode == ModeCapture && ch.cfg.Source == src
}

func checkChannel(ch int) {
	logger.AssertTrue(ch >= 0 && ch < NumCaptureCompareChannels, "capture/compare channel out of range: %d", ch)
}

// ConfigureChannel sets the configuration of channel ch. Reserved modes or capture sources
// disable the channel.
func (p *ProtocolTimer) ConfigureChannel(ch int, cfg ChannelConfig) {
	checkChannel(ch)
	p.flush()
	defer p.commit()

	if cfg.Mode > ModeNone {
		p.log.Errorf("protimer: channel %d: unsupported mode %v, channel disabled", ch, cfg.Mode)
		cfg.Enabled = false
	}
	if cfg.Mode == ModeCapture && cfg.Source > CaptureRadioStateMask {
		p.log.Errorf("protimer: channel %d: unsupported capture source %v, channel disabled", ch, cfg.Source)
		cfg.Enabled = false
	}
	if cfg.PreMatch && cfg.Mode != ModeCapture {
		p.log.Warnf("protimer: channel %d: pre-counter compare is not supported", ch)
	}
	p.timer.SetEnabled(false)
	p.channels[ch].cfg = cfg
}

func (p *ProtocolTimer) GetChannelConfig(ch int) ChannelConfig {
	checkChannel(ch)
	return p.channels[ch].cfg
}

// SetChannelValues writes the pre/base/wrap fields of channel ch, i.e. the compare targets in
// compare mode. Writing invalidates a pending capture.
func (p *ProtocolTimer) SetChannelValues(ch int, pre, base, wrap uint32) {
	checkChannel(ch)
	p.flush()
	defer p.commit()
	c := &p.channels[ch]
	c.pre, c.base, c.wrap = pre, base, wrap
	c.captureValid = false
}

// ChannelValues reads the pre/base/wrap fields of channel ch and invalidates a pending capture.
func (p *ProtocolTimer) ChannelValues(ch int) (pre, base, wrap uint32) {
	checkChannel(ch)
	p.flush()
	defer p.commit()
	c := &p.channels[ch]
	c.captureValid = false
	return c.pre, c.base, c.wrap
}

func (p *ProtocolTimer) ChannelPre(ch int) uint32 {
	pre, _, _ := p.ChannelValues(ch)
	return pre
}

func (p *ProtocolTimer) ChannelBase(ch int) uint32 {
	_, base, _ := p.ChannelValues(ch)
	return base
}

func (p *ProtocolTimer) ChannelWrap(ch int) uint32 {
	_, _, wrap := p.ChannelValues(ch)
	return wrap
}

// CaptureValid returns whether channel ch holds an unread capture. It does not clear it.
func (p *ProtocolTimer) CaptureValid(ch int) bool {
	checkChannel(ch)
	return p.channels[ch].captureValid
}

func (p *ProtocolTimer) capture(ch int) {
	c := &p.channels[ch]
	if c.captureValid {
		p.setInterrupt(IntCaptureOverflow0 + uint(ch))
	}
	c.pre = uint32(p.preCounter)
	c.base = p.baseCounter
	c.wrap = p.wrapCounter
	c.captureValid = true
	p.setInterrupt(IntCaptureCompare0 + uint(ch))
	p.triggerEvent(captureCompareEvent(ch))
}

func (p *ProtocolTimer) captureOn(src CaptureSource) {
	for i := range p.channels {
		if p.channels[i].capturesOn(src) {
			p.capture(i)
		}
	}
}

// evaluateCompares fires the channels whose compare condition was met by the last batch. baseVisited
// and wrapVisited are the channel masks whose base or wrap value was passed during the batch.
func (p *ProtocolTimer) evaluateCompares(baseVisited, wrapVisited uint32) {
	if baseVisited == 0 && wrapVisited == 0 {
		return
	}
	for i := range p.channels {
		c := &p.channels[i]
		bit := uint32(1) << uint(i)
		matched := false
		switch c.cfg.Mode {
		case ModeCompare:
			if c.cfg.BaseMatch {
				matched = baseVisited&bit != 0 && (!c.cfg.WrapMatch || p.wrapCounter == c.wrap)
			} else {
				matched = wrapVisited&bit != 0
			}
		case ModeWrapRange:
			matched = baseVisited&bit != 0 && p.wrapCounter <= c.wrap
		}
		if matched {
			p.setInterrupt(IntCaptureCompare0 + uint(i))
			p.triggerEvent(captureCompareEvent(i))
		}
	}
}

// OnRadioStateEntry captures on the channels whose state mask selects state.
func (p *ProtocolTimer) OnRadioStateEntry(state RadioState) {
	p.flush()
	defer p.commit()
	for i := range p.channels {
		c := &p.channels[i]
		if c.capturesOn(CaptureRadioStateMask) && c.cfg.StateMask&(1<<uint(state)) != 0 {
			p.capture(i)
		}
	}
	p.triggerEvent(EventRadioStateEntry)
}
